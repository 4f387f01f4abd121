package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/history"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/internal/store/jsonfile"
	"github.com/colonyops/abroad/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *abroad.App

	kind       string
	limit      int
	jsonOutput bool
	follow     bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *abroad.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Aliases:   []string{"log"},
		Usage:     "Show recent journey activity",
		UsageText: "abroad history [--kind <glob>] [--limit N] [--json] [--follow]",
		Description: `Lists recorded activity for the current profile, newest first.

Kinds: profile.created, journey.task-toggled, journey.phase-changed,
journey.phase-unlocked, journey.document-changed, journey.reset.
--kind accepts glob patterns such as 'journey.*' or '{journey.reset,profile.*}'.

--follow keeps running and prints new activity as it is recorded, oldest
first. With --json each entry is written as one JSON line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "kind",
				Aliases:     []string{"k"},
				Usage:       "filter by activity kind (glob)",
				Destination: &cmd.kind,
			},
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum entries to show (0 for all)",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "follow",
				Aliases:     []string{"f"},
				Usage:       "stream new activity until interrupted",
				Destination: &cmd.follow,
			},
		},
		Action: cmd.run,
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Delete all recorded activity",
				Action: cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) query(ctx context.Context) (history.Query, error) {
	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return history.Query{}, err
	}
	return history.Query{ProfileID: j.Profile.ID, Kind: cmd.kind, Limit: cmd.limit}, nil
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	q, err := cmd.query(ctx)
	if err != nil {
		return err
	}

	if cmd.follow {
		return cmd.runFollow(ctx, c.Root().Writer, q)
	}

	entries, err := cmd.app.History.List(ctx, q)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, entries)
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No activity recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tKIND\tSUBJECT\tDETAIL")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Kind,
			e.Subject,
			e.Detail,
		)
	}
	return w.Flush()
}

func (cmd *HistoryCmd) runFollow(ctx context.Context, out io.Writer, q history.Query) error {
	watcher, err := jsonfile.NewWatcher(cmd.flags.Config.DataDir)
	if err != nil {
		return fmt.Errorf("watch data dir: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	changes, err := watcher.Watch(ctx, historyFileName)
	if err != nil {
		return fmt.Errorf("watch history: %w", err)
	}

	seen := make(map[string]bool)
	emit := func() error {
		entries, err := cmd.app.History.List(ctx, q)
		if err != nil {
			return err
		}
		// Entries are newest first; print in chronological order.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			if err := cmd.writeEntry(out, e); err != nil {
				return err
			}
		}
		return nil
	}

	if err := emit(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := emit(); err != nil {
				log.Warn().Err(err).Msg("history: reload after change")
			}
		}
	}
}

func (cmd *HistoryCmd) writeEntry(out io.Writer, e history.Entry) error {
	if cmd.jsonOutput {
		return iojson.WriteLine(out, e)
	}
	_, err := fmt.Fprintf(out, "%s %s %s %s\n",
		styles.MutedStyle.Render(e.Timestamp.Local().Format("15:04:05")),
		styles.InfoStyle.Render(string(e.Kind)),
		e.Subject,
		styles.MutedStyle.Render(e.Detail),
	)
	return err
}

func (cmd *HistoryCmd) runClear(ctx context.Context, _ *cli.Command) error {
	if err := cmd.app.History.Clear(ctx); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("History cleared")
	return nil
}
