package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
)

// completer returns a ShellCompleteFunc that prints the values produced by
// list as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func completer(list func(ctx context.Context, args []string) []string) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		args := cmd.Args().Slice()
		if len(args) > 0 {
			last := args[len(args)-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		w := cmd.Root().Writer
		for _, v := range list(ctx, args) {
			_, _ = fmt.Fprintln(w, v)
		}
	}
}

// PhaseIDCompleter suggests phase IDs of the current journey.
func PhaseIDCompleter(app *abroad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context, _ []string) []string {
		j, err := app.Journey.Current(ctx)
		if err != nil {
			return nil
		}
		var ids []string
		for _, p := range j.Engine.Phases() {
			ids = append(ids, p.ID)
		}
		return ids
	})
}

// TaskCompleter suggests phase IDs for the first argument and the task IDs of
// that phase for the second.
func TaskCompleter(app *abroad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context, args []string) []string {
		j, err := app.Journey.Current(ctx)
		if err != nil {
			return nil
		}

		var out []string
		if len(args) == 0 {
			for _, p := range j.Engine.Phases() {
				out = append(out, p.ID)
			}
			return out
		}

		phase, ok := j.Engine.Phase(args[0])
		if !ok {
			return nil
		}
		for _, t := range phase.Tasks {
			out = append(out, t.ID)
		}
		return out
	})
}

// DocumentIDCompleter suggests document IDs of the current journey.
func DocumentIDCompleter(app *abroad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context, _ []string) []string {
		j, err := app.Journey.Current(ctx)
		if err != nil {
			return nil
		}
		var ids []string
		for _, d := range j.Engine.Documents() {
			ids = append(ids, d.ID)
		}
		return ids
	})
}

// ScholarshipIDCompleter suggests scholarship IDs.
func ScholarshipIDCompleter(app *abroad.App) cli.ShellCompleteFunc {
	return completer(func(context.Context, []string) []string {
		var ids []string
		for _, s := range app.Scholarships.All() {
			ids = append(ids, s.ID)
		}
		return ids
	})
}
