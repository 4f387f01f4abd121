package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/doctor"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *abroad.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *abroad.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your abroad setup",
		UsageText:   "abroad doctor [options]",
		Description: "Checks configuration, storage, journey consistency, document expiry and upcoming scholarship deadlines.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "correct phase statuses that disagree with their tasks",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := cmd.app.Doctor.RunChecks(ctx, cmd.flags.ConfigPath, cmd.autofix)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(c.Root().Writer, results)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: failed == 0,
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}

func (cmd *DoctorCmd) outputText(w io.Writer, results []doctor.Result) error {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TitleStyle.Render("Abroad Doctor"))
	_, _ = fmt.Fprintln(w, styles.DividerStyle.Render("────────────────────────────────────────"))
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.HeaderStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.MutedStyle.Render(item.Detail)
			}
			if item.Fixed {
				detail += " " + styles.SuccessStyle.Render("(fixed)")
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = styles.SuccessStyle.Render(styles.IconCompleted)
			case doctor.StatusWarn:
				icon = styles.WarningStyle.Render(styles.IconInProgress)
			case doctor.StatusFail:
				icon = styles.ErrorStyle.Render(styles.IconMissing)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	passed, warned, failed := doctor.Summary(results)
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.SuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.WarningStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)

	if fixable := doctor.CountFixable(results); fixable > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("Run 'abroad doctor --autofix' to fix %d issue(s)", fixable)))
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
