package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/validate"
	"github.com/colonyops/abroad/internal/printer"
)

type InitCmd struct {
	flags *Flags
	app   *abroad.App

	// flags
	name    string
	country string
	level   string
	start   string
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags, app *abroad.App) *InitCmd {
	return &InitCmd{flags: flags, app: app}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Start a new study-abroad journey",
		UsageText: "abroad init [--name NAME] [--country COUNTRY] [--level LEVEL] [--start YYYY-MM]",
		Description: `Creates your profile and a fresh six phase journey.

Any value not given as a flag is asked for interactively. When stdin is not a
terminal every flag is required.

Study levels: Undergraduate, Masters, PhD, Language Course.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "your name",
				Destination: &cmd.name,
			},
			&cli.StringFlag{
				Name:        "country",
				Usage:       "destination country",
				Destination: &cmd.country,
			},
			&cli.StringFlag{
				Name:        "level",
				Usage:       "study level",
				Destination: &cmd.level,
			},
			&cli.StringFlag{
				Name:        "start",
				Usage:       "planned start month (YYYY-MM)",
				Destination: &cmd.start,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.name == "" || cmd.country == "" || cmd.level == "" || cmd.start == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("missing profile values; pass --name, --country, --level and --start")
		}
		if err := cmd.prompt(); err != nil {
			return err
		}
	}

	start, err := validate.ParseMonth(cmd.start)
	if err != nil {
		return err
	}

	j, err := cmd.app.Journey.Onboard(ctx, validate.ProfileInput{
		Name:          cmd.name,
		TargetCountry: cmd.country,
		StudyLevel:    journey.StudyLevel(cmd.level),
		StartDate:     start,
	})
	if errors.Is(err, abroad.ErrAlreadyOnboarded) {
		p.Warnf("%v", err)
		return nil
	}
	if err != nil {
		return err
	}

	p.Successf("Welcome, %s! Your journey to %s is ready.", j.Profile.Name, j.Profile.TargetCountry)
	p.Printf("")
	renderDashboard(p.Writer(), j, cmd.app.Journey.Summary(j))
	p.Printf("")
	p.Infof("Mark tasks done with 'abroad task toggle <phase> <task>'")

	return nil
}

func (cmd *InitCmd) prompt() error {
	if cmd.level == "" {
		cmd.level = string(journey.LevelMasters)
	}
	if cmd.start == "" {
		cmd.start = time.Now().AddDate(0, 9, 0).Format("2006-01")
	}

	levels := make([]huh.Option[string], 0, len(journey.StudyLevels()))
	for _, l := range journey.StudyLevels() {
		levels = append(levels, huh.NewOption(string(l), string(l)))
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("What's your name?").
			Value(&cmd.name).
			Validate(validate.Required),
		huh.NewInput().
			Title("Where do you want to study?").
			Description("Destination country").
			Value(&cmd.country).
			Validate(validate.Required),
		huh.NewSelect[string]().
			Title("Study level").
			Options(levels...).
			Value(&cmd.level),
		huh.NewInput().
			Title("When do you plan to start?").
			Description("Month in YYYY-MM form").
			Value(&cmd.start).
			Validate(func(s string) error {
				t, err := validate.ParseMonth(s)
				if err != nil {
					return err
				}
				return validate.StartMonth(time.Now())(t)
			}),
	))

	return form.Run()
}
