package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/scholarship"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/iojson"
)

type ScholarshipCmd struct {
	flags *Flags
	app   *abroad.App

	filter     scholarship.Filter
	limit      int
	jsonOutput bool
}

// NewScholarshipCmd creates a new scholarship command
func NewScholarshipCmd(flags *Flags, app *abroad.App) *ScholarshipCmd {
	return &ScholarshipCmd{flags: flags, app: app}
}

// Register adds the scholarship command to the application
func (cmd *ScholarshipCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: &cmd.jsonOutput,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:    "scholarship",
		Aliases: []string{"sch"},
		Usage:   "Browse the scholarship directory",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List scholarships, optionally filtered",
				UsageText: "abroad scholarship list [--country C] [--level L] [--coverage T] [--field F] [--query Q] [--json]",
				Description: `Filters combine with AND. Scholarships open to all levels or all fields
match any --level or --field value. Run 'abroad scholarship facets' for the
values each filter accepts.`,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "country", Usage: "host country", Destination: &cmd.filter.Country},
					&cli.StringFlag{Name: "level", Usage: "study level", Destination: &cmd.filter.StudyLevel},
					&cli.StringFlag{Name: "coverage", Usage: "coverage type (Full, Partial)", Destination: &cmd.filter.Coverage},
					&cli.StringFlag{Name: "field", Usage: "field of study", Destination: &cmd.filter.Field},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search name, provider and description", Destination: &cmd.filter.Query},
					jsonFlag,
				},
				Action: cmd.runList,
			},
			{
				Name:          "show",
				Usage:         "Show scholarship details",
				UsageText:     "abroad scholarship show <id>",
				ArgsUsage:     "<id>",
				ShellComplete: ScholarshipIDCompleter(cmd.app),
				Flags:         []cli.Flag{jsonFlag},
				Action:        cmd.runShow,
			},
			{
				Name:      "deadlines",
				Usage:     "Show the soonest upcoming deadlines",
				UsageText: "abroad scholarship deadlines [--limit N] [--json]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "number of deadlines (defaults to scholarships.upcoming_limit)",
						Destination: &cmd.limit,
					},
					jsonFlag,
				},
				Action: cmd.runDeadlines,
			},
			{
				Name:   "facets",
				Usage:  "List the values accepted by list filters",
				Flags:  []cli.Flag{jsonFlag},
				Action: cmd.runFacets,
			},
		},
	})

	return app
}

func (cmd *ScholarshipCmd) runList(ctx context.Context, c *cli.Command) error {
	items := cmd.app.Scholarships.Filter(cmd.filter)

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, items)
	}

	if len(items) == 0 {
		printer.Ctx(ctx).Infof("No scholarships match those filters")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tLEVEL\tCOVERAGE\tDEADLINE")
	for _, s := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Country, s.StudyLevel, s.Coverage, deadlineLabel(s, now))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%d of %d scholarships\n", len(items), len(cmd.app.Scholarships.All()))
	return nil
}

func (cmd *ScholarshipCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one scholarship id")
	}

	s, err := cmd.app.Scholarships.Get(c.Args().First())
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, s)
	}

	_, err = fmt.Fprint(c.Root().Writer, renderMarkdown(scholarshipMarkdown(s, time.Now())))
	return err
}

func (cmd *ScholarshipCmd) runDeadlines(ctx context.Context, c *cli.Command) error {
	limit := cmd.limit
	if limit == 0 {
		limit = cmd.app.Config.Scholarships.UpcomingLimit
	}

	now := time.Now()
	items := cmd.app.Scholarships.Upcoming(now, limit)

	out := c.Root().Writer
	if cmd.jsonOutput {
		if items == nil {
			items = []scholarship.Scholarship{}
		}
		return iojson.WriteWith(out, os.Stderr, items)
	}

	if len(items) == 0 {
		printer.Ctx(ctx).Infof("No upcoming deadlines")
		return nil
	}

	_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render(styles.IconCalendar+" Upcoming deadlines"))
	for _, s := range items {
		days := s.DaysUntilDeadline(now)
		style := styles.MutedStyle
		if days <= 30 {
			style = styles.WarningStyle
		}
		_, _ = fmt.Fprintf(out, "  %s  %-40s %s\n",
			s.Deadline.Format("2006-01-02"),
			s.Name,
			style.Render(fmt.Sprintf("in %d days", days)),
		)
	}
	return nil
}

type facetsJSON struct {
	Countries   []string `json:"countries"`
	StudyLevels []string `json:"study_levels"`
	Coverage    []string `json:"coverage"`
	Fields      []string `json:"fields"`
}

func (cmd *ScholarshipCmd) runFacets(ctx context.Context, c *cli.Command) error {
	dir := cmd.app.Scholarships
	facets := facetsJSON{
		Countries:   dir.Countries(),
		StudyLevels: dir.StudyLevels(),
		Coverage:    dir.CoverageTypes(),
		Fields:      dir.Fields(),
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, facets)
	}

	p := printer.Ctx(ctx)
	p.KeyValue("Countries", strings.Join(facets.Countries, ", "))
	p.KeyValue("Study levels", strings.Join(facets.StudyLevels, ", "))
	p.KeyValue("Coverage", strings.Join(facets.Coverage, ", "))
	p.KeyValue("Fields", strings.Join(facets.Fields, ", "))
	return nil
}

func deadlineLabel(s scholarship.Scholarship, now time.Time) string {
	label := s.Deadline.Format("2006-01-02")
	if s.DaysUntilDeadline(now) <= 0 {
		label += " (closed)"
	}
	return label
}

func scholarshipMarkdown(s scholarship.Scholarship, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	fmt.Fprintf(&b, "*%s* · %s\n\n", s.Provider, s.Country)
	fmt.Fprintf(&b, "%s\n\n", s.Description)

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Amount | %s |\n", s.Amount)
	fmt.Fprintf(&b, "| Coverage | %s |\n", s.Coverage)
	fmt.Fprintf(&b, "| Study level | %s |\n", s.StudyLevel)
	fmt.Fprintf(&b, "| Deadline | %s |\n", deadlineLabel(s, now))
	fmt.Fprintf(&b, "| Difficulty | %s |\n", s.Difficulty)
	fmt.Fprintf(&b, "| Fields | %s |\n", strings.Join(s.Fields, ", "))
	fmt.Fprintf(&b, "| Eligible | %s |\n\n", strings.Join(s.EligibleCountries, ", "))

	if len(s.Requirements) > 0 {
		b.WriteString("## Requirements\n\n")
		for _, r := range s.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if s.ApplicationURL != "" {
		fmt.Fprintf(&b, "Apply: %s\n", s.ApplicationURL)
	}
	return b.String()
}
