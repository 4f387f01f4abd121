package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestPrinter_Streams(t *testing.T) {
	p, out, errOut := newTestPrinter()

	p.Infof("loaded %d phases", 6)
	p.Successf("saved")
	p.Warnf("task %q not found", "x")
	p.Errorf("boom")

	assert.Contains(t, out.String(), "loaded 6 phases")
	assert.Contains(t, out.String(), "saved")
	assert.Contains(t, errOut.String(), `task "x" not found`)
	assert.Contains(t, errOut.String(), "boom")
	assert.NotContains(t, out.String(), "boom")
}

func TestPrinter_SectionAndItems(t *testing.T) {
	p, out, _ := newTestPrinter()

	p.Section("Documents")
	p.CheckItem("Valid passport", "Identity")
	p.FailItem("Bank statements", "")
	p.KeyValue("Progress", "50%")

	got := out.String()
	assert.Contains(t, got, "Documents\n")
	assert.Contains(t, got, "─────────")
	assert.Contains(t, got, "Valid passport Identity")
	assert.Contains(t, got, "Bank statements\n")
	assert.Contains(t, got, "Progress")
	assert.Contains(t, got, "50%")
}

func TestCtx(t *testing.T) {
	p, _, _ := newTestPrinter()

	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))

	assert.NotNil(t, Ctx(context.Background()))
}
