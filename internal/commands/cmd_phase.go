package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/iojson"
)

type PhaseCmd struct {
	flags *Flags
	app   *abroad.App

	jsonOutput bool
}

// NewPhaseCmd creates a new phase command
func NewPhaseCmd(flags *Flags, app *abroad.App) *PhaseCmd {
	return &PhaseCmd{flags: flags, app: app}
}

// Register adds the phase command to the application
func (cmd *PhaseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "phase",
		Usage: "Inspect journey phases",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List phases with status and progress",
				UsageText: "abroad phase list [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:          "show",
				Usage:         "Show a phase and its tasks",
				UsageText:     "abroad phase show <phase-id>",
				ArgsUsage:     "<phase-id>",
				ShellComplete: PhaseIDCompleter(cmd.app),
				Action:        cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *PhaseCmd) runList(ctx context.Context, c *cli.Command) error {
	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return err
	}

	phases := j.Engine.Phases()
	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, phasesJSON(phases))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tPHASE\tSTATUS\tTASKS\tPROGRESS\tTIMEFRAME")
	for _, p := range phases {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%d/%d\t%d%%\t%s\n",
			p.Number, p.ID, p.Title, phaseIcon(p.Status), p.Status,
			p.CompletedTasks(), len(p.Tasks), journey.PhaseProgress(p), p.Timeframe)
	}
	return w.Flush()
}

func (cmd *PhaseCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one phase id")
	}
	id := c.Args().First()

	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return err
	}

	phase, ok := j.Engine.Phase(id)
	if !ok {
		printer.Ctx(ctx).Warnf("no phase with id %q", id)
		return nil
	}

	_, err = fmt.Fprint(c.Root().Writer, renderMarkdown(phaseMarkdown(phase)))
	return err
}

// renderMarkdown renders md with the active theme, falling back to the raw
// text when rendering fails.
func renderMarkdown(md string) string {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw content")
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		return md
	}
	return rendered
}
