package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/printer"
)

type TaskCmd struct {
	flags *Flags
	app   *abroad.App
}

// NewTaskCmd creates a new task command
func NewTaskCmd(flags *Flags, app *abroad.App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task command to the application
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Work through journey tasks",
		Commands: []*cli.Command{
			{
				Name:      "toggle",
				Usage:     "Mark a task done, or undo it",
				UsageText: "abroad task toggle <phase-id> <task-id>",
				ArgsUsage: "<phase-id> <task-id>",
				Description: `Flips the completion of a task and updates its phase.

Completing every task in a phase unlocks the next one. Tasks in a locked phase
cannot be toggled.`,
				ShellComplete: TaskCompleter(cmd.app),
				Action:        cmd.runToggle,
			},
		},
	})

	return app
}

func (cmd *TaskCmd) runToggle(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <phase-id> <task-id>")
	}
	phaseID, taskID := c.Args().Get(0), c.Args().Get(1)

	p := printer.Ctx(ctx)

	tr, applied, err := cmd.app.Journey.ToggleTask(ctx, phaseID, taskID)
	if err != nil {
		return err
	}
	if !applied {
		p.Warnf("no task %q in phase %q", taskID, phaseID)
		return nil
	}

	if tr.Completed {
		p.Successf("Completed %s", taskID)
	} else {
		p.Infof("Reopened %s", taskID)
	}

	if tr.Changed() {
		p.Infof("Phase %s: %s → %s", phaseID, tr.From, tr.To)
	}
	for _, id := range tr.Unlocked {
		p.Successf("Unlocked phase %s", id)
	}

	if tr.To == journey.StatusCompleted && len(tr.Unlocked) == 0 {
		j, err := cmd.app.Journey.Current(ctx)
		if err == nil && journey.OverallProgress(j.Engine.Phases()) == 100 {
			p.Successf("Every phase is complete. Safe travels!")
		}
	}

	return nil
}
