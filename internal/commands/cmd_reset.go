package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/printer"
)

type ResetCmd struct {
	flags *Flags
	app   *abroad.App

	yes bool
}

// NewResetCmd creates a new reset command
func NewResetCmd(flags *Flags, app *abroad.App) *ResetCmd {
	return &ResetCmd{flags: flags, app: app}
}

// Register adds the reset command to the application
func (cmd *ResetCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "reset",
		Usage:     "Delete your profile and all progress",
		UsageText: "abroad reset [--yes]",
		Description: `Clears every task, document status and your profile. Run 'abroad init'
afterwards to start again. Use 'abroad export' first to keep a copy.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ResetCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return err
	}

	if !cmd.yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to reset without confirmation; pass --yes")
		}

		var confirm bool
		err := huh.NewConfirm().
			Title("Reset your journey?").
			Description(fmt.Sprintf("All progress for %s will be deleted.", j.Profile.Name)).
			Affirmative("Reset").
			Negative("Cancel").
			Value(&confirm).
			Run()
		if err != nil {
			return err
		}
		if !confirm {
			p.Infof("Reset cancelled")
			return nil
		}
	}

	if err := cmd.app.Journey.Reset(ctx); err != nil {
		return err
	}

	p.Successf("Journey reset. Run 'abroad init' to start again.")
	return nil
}
