package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/commands"
	"github.com/colonyops/abroad/internal/core/config"
	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/logging"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser     func()
		abroadApp     = &abroad.App{}
		opened        bool
		notifications = &printer.Deferred{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "abroad",
		Usage:     "Plan your study abroad journey",
		UsageText: "abroad [global options] command [command options]",
		Description: `Abroad walks you through six phases of moving abroad to study, from
research to departure, tracking tasks, documents and deadlines along the way.

Run 'abroad init' to create your profile, then 'abroad' or 'abroad status'
to see where you are.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ABROAD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/abroad.log)",
				Sources:     cli.EnvVars("ABROAD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ABROAD_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("ABROAD_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			// Always log to a file; use explicit path or default to <datadir>/abroad.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "abroad.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logging.Install(logger)
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			p := printer.New(os.Stdout, os.Stderr)
			ctx = printer.NewContext(ctx, p)
			ctx = logging.WithCommand(ctx, c.Args().First())

			svc, err := abroad.Open(ctx, cfg, logging.Component("abroad"))
			if err != nil {
				return ctx, err
			}

			// Notifications arrive on the bus goroutine; hold them until the
			// command has finished writing.
			np := printer.New(notifications, notifications)
			svc.Bus.SubscribeNotificationPublished(func(n eventbus.NotificationPublishedPayload) {
				switch n.Level {
				case eventbus.LevelSuccess:
					np.Successf("%s", n.Message)
				case eventbus.LevelWarning:
					np.Warnf("%s", n.Message)
				default:
					np.Infof("%s", n.Message)
				}
			})

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*abroadApp = *svc
			opened = true

			log.Debug().Ctx(ctx).Str("data_dir", cfg.DataDir).Msg("abroad ready")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Drain pending events and close the database
			if opened {
				if err := abroadApp.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close app")
					return err
				}
			}

			if notifications.Pending() {
				_, _ = fmt.Fprintln(os.Stderr)
				_ = notifications.Flush(os.Stderr)
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	statusCmd := commands.NewStatusCmd(flags, abroadApp)

	app = commands.NewInitCmd(flags, abroadApp).Register(app)
	app = statusCmd.Register(app)
	app = commands.NewPhaseCmd(flags, abroadApp).Register(app)
	app = commands.NewTaskCmd(flags, abroadApp).Register(app)
	app = commands.NewDocCmd(flags, abroadApp).Register(app)
	app = commands.NewResetCmd(flags, abroadApp).Register(app)
	app = commands.NewHistoryCmd(flags, abroadApp).Register(app)
	app = commands.NewScholarshipCmd(flags, abroadApp).Register(app)
	app = commands.NewConvertCmd(flags, abroadApp).Register(app)
	app = commands.NewExportCmd(flags, abroadApp).Register(app)
	app = commands.NewDoctorCmd(flags, abroadApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Show the dashboard when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'abroad --help' for usage", c.Args().First())
		}
		return statusCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
