package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/store/jsonfile"
	"github.com/colonyops/abroad/pkg/iojson"
)

// historyFileName is the watch pattern for the activity log. Every journey
// mutation appends to it, whichever snapshot backend is configured.
const historyFileName = "history"

type StatusCmd struct {
	flags *Flags
	app   *abroad.App

	// flags
	jsonOutput bool
	watch      bool
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *abroad.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show journey progress",
		UsageText: "abroad status [--json | --watch]",
		Description: `Displays overall progress, phase statuses, next steps and document readiness.

Use --watch to keep the dashboard open; it refreshes whenever another abroad
command changes the journey.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "refresh on changes until q is pressed",
				Destination: &cmd.watch,
			},
		},
		Action: cmd.run,
	})

	return app
}

// statusJSON is the JSON output format for abroad status --json.
type statusJSON struct {
	Profile journey.Profile `json:"profile"`
	Summary journey.Summary `json:"summary"`
	Phases  []phaseJSON     `json:"phases"`
}

type phaseJSON struct {
	journey.Phase
	Progress int `json:"progress"`
}

func phasesJSON(phases []journey.Phase) []phaseJSON {
	out := make([]phaseJSON, 0, len(phases))
	for _, p := range phases {
		out = append(out, phaseJSON{Phase: p, Progress: journey.PhaseProgress(p)})
	}
	return out
}

// Run shows the dashboard. It is also the root action when abroad is invoked
// without a subcommand.
func (cmd *StatusCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.watch {
		return cmd.runWatch(ctx)
	}

	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return err
	}
	summary := cmd.app.Journey.Summary(j)

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, statusJSON{
			Profile: j.Profile,
			Summary: summary,
			Phases:  phasesJSON(j.Engine.Phases()),
		})
	}

	renderDashboard(c.Root().Writer, j, summary)
	return nil
}

func (cmd *StatusCmd) runWatch(ctx context.Context) error {
	watcher, err := jsonfile.NewWatcher(cmd.flags.Config.DataDir)
	if err != nil {
		return fmt.Errorf("watch data dir: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := watcher.Watch(ctx, historyFileName)
	if err != nil {
		return fmt.Errorf("watch history: %w", err)
	}

	m := newStatusModel(ctx, cmd.app, changes)
	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

type statusLoadedMsg struct {
	view string
	err  error
}

type journeyChangedMsg struct{}

// statusModel is the live dashboard shown by status --watch.
type statusModel struct {
	ctx     context.Context
	app     *abroad.App
	changes <-chan jsonfile.ChangeEvent

	view string
	err  error
}

func newStatusModel(ctx context.Context, app *abroad.App, changes <-chan jsonfile.ChangeEvent) statusModel {
	return statusModel{ctx: ctx, app: app, changes: changes, view: "loading…"}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(m.load, m.waitForChange)
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load
		}
	case journeyChangedMsg:
		return m, tea.Batch(m.load, m.waitForChange)
	case statusLoadedMsg:
		m.view, m.err = msg.view, msg.err
	}
	return m, nil
}

func (m statusModel) View() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.view)
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render("watching for changes · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m statusModel) load() tea.Msg {
	j, err := m.app.Journey.Current(m.ctx)
	if err != nil {
		return statusLoadedMsg{err: err}
	}

	var b strings.Builder
	renderDashboard(&b, j, m.app.Journey.Summary(j))
	return statusLoadedMsg{view: b.String()}
}

func (m statusModel) waitForChange() tea.Msg {
	if _, ok := <-m.changes; !ok {
		return nil
	}
	return journeyChangedMsg{}
}
