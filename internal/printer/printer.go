// Package printer writes styled, human oriented command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colonyops/abroad/internal/core/styles"
)

type ctxKey struct{}

// Printer writes leveled lines to an output stream. Errors go to a separate
// stream so that stdout stays pipeable.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a Printer writing to out and err.
func New(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stdout and stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Writer returns the output stream.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Printf writes a plain line.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(p.out, styles.InfoStyle.Render(styles.IconBullet), format, args...)
}

// Successf writes a success line.
func (p *Printer) Successf(format string, args ...any) {
	p.line(p.out, styles.SuccessStyle.Render(styles.IconCompleted), format, args...)
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.err, styles.WarningStyle.Render("!"), format, args...)
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.err, styles.ErrorStyle.Render(styles.IconMissing), format, args...)
}

// Section writes a title with an underline divider.
func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintln(p.out, styles.TitleStyle.Render(title))
	_, _ = fmt.Fprintln(p.out, styles.DividerStyle.Render(strings.Repeat("─", max(len([]rune(title)), 3))))
}

// KeyValue writes an aligned label and value.
func (p *Printer) KeyValue(label string, value any) {
	_, _ = fmt.Fprintf(p.out, "%s%s\n", styles.LabelStyle.Render(label), styles.ValueStyle.Render(fmt.Sprint(value)))
}

// CheckItem writes a passed check with an optional detail.
func (p *Printer) CheckItem(label, detail string) {
	p.item(styles.SuccessStyle.Render(styles.IconReady), label, detail)
}

// WarnItem writes a check that passed with a caveat.
func (p *Printer) WarnItem(label, detail string) {
	p.item(styles.WarningStyle.Render("!"), label, detail)
}

// FailItem writes a failed check.
func (p *Printer) FailItem(label, detail string) {
	p.item(styles.ErrorStyle.Render(styles.IconMissing), label, detail)
}

func (p *Printer) item(mark, label, detail string) {
	if detail == "" {
		_, _ = fmt.Fprintf(p.out, "  %s %s\n", mark, label)
		return
	}
	_, _ = fmt.Fprintf(p.out, "  %s %s %s\n", mark, label, styles.MutedStyle.Render(detail))
}

func (p *Printer) line(w io.Writer, mark, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
