package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/iojson"
)

type ExportCmd struct {
	flags *Flags
	app   *abroad.App
	fr    *iojson.FileReader[abroad.Export]

	output string
}

// NewExportCmd creates the export and import commands
func NewExportCmd(flags *Flags, app *abroad.App) *ExportCmd {
	return &ExportCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[abroad.Export]{},
	}
}

// Register adds the export and import commands to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Write the profile and journey progress as JSON",
			UsageText: "abroad export [-o file]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "output",
					Aliases:     []string{"o"},
					Usage:       "write to file instead of stdout",
					Destination: &cmd.output,
				},
			},
			Action: cmd.runExport,
		},
		&cli.Command{
			Name:      "import",
			Usage:     "Restore journey progress from an export",
			UsageText: "abroad import [-f file]",
			Description: `Reads an export produced by 'abroad export' from a file or stdin.

If no profile exists yet, the exported profile is recreated. Otherwise your
current profile is kept and only task and document progress is replaced.`,
			Flags:  []cli.Flag{cmd.fr.Flag()},
			Action: cmd.runImport,
		},
	)

	return app
}

func (cmd *ExportCmd) runExport(ctx context.Context, c *cli.Command) error {
	doc, err := cmd.app.Journey.Export(ctx)
	if err != nil {
		return err
	}

	if cmd.output == "" {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, doc)
	}

	f, err := os.Create(cmd.output)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := iojson.WriteWith(f, os.Stderr, doc); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	printer.Ctx(ctx).Successf("Exported %s's journey to %s", doc.Profile.Name, cmd.output)
	return nil
}

func (cmd *ExportCmd) runImport(ctx context.Context, c *cli.Command) error {
	doc, err := cmd.fr.Read()
	if err != nil {
		return err
	}

	j, err := cmd.app.Journey.Import(ctx, doc)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	printer.Ctx(ctx).Successf("Imported journey for %s", j.Profile.Name)
	renderDashboard(c.Root().Writer, j, cmd.app.Journey.Summary(j))
	return nil
}
