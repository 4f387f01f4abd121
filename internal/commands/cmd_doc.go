package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/styles"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/iojson"
)

type DocCmd struct {
	flags *Flags
	app   *abroad.App

	jsonOutput bool
	missing    bool
}

// NewDocCmd creates a new doc command
func NewDocCmd(flags *Flags, app *abroad.App) *DocCmd {
	return &DocCmd{flags: flags, app: app}
}

// Register adds the doc command to the application
func (cmd *DocCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "doc",
		Usage: "Track required documents",
		Description: `Documents are independent of phases: passports, transcripts, bank
statements and the like. Each is ready, in-progress or missing.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List documents grouped by category",
				UsageText: "abroad doc list [--missing] [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
					&cli.BoolFlag{
						Name:        "missing",
						Usage:       "only show documents that are not ready",
						Destination: &cmd.missing,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:          "set",
				Usage:         "Set the status of a document",
				UsageText:     "abroad doc set <document-id> <ready|in-progress|missing>",
				ArgsUsage:     "<document-id> <status>",
				ShellComplete: DocumentIDCompleter(cmd.app),
				Action:        cmd.runSet,
			},
		},
	})

	return app
}

func (cmd *DocCmd) runList(ctx context.Context, c *cli.Command) error {
	j, err := cmd.app.Journey.Current(ctx)
	if err != nil {
		return err
	}

	docs := j.Engine.Documents()
	if cmd.missing {
		filtered := docs[:0]
		for _, d := range docs {
			if d.Status != journey.DocumentReady {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, docs)
	}

	if len(docs) == 0 {
		printer.Ctx(ctx).Successf("Nothing left to gather")
		return nil
	}

	categories, groups := journey.GroupDocuments(docs)
	for i, category := range categories {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintln(out, styles.HeaderStyle.Render(category))
		for _, d := range groups[category] {
			var extra []string
			if d.Required {
				extra = append(extra, "required")
			}
			if d.ExpiryDate != nil {
				extra = append(extra, "expires "+d.ExpiryDate.Format("2006-01-02"))
			}
			line := fmt.Sprintf("  %s %-32s %s", documentIcon(d.Status), d.Name, styles.MutedStyle.Render(d.ID))
			if len(extra) > 0 {
				line += " " + styles.MutedStyle.Render("("+strings.Join(extra, ", ")+")")
			}
			_, _ = fmt.Fprintln(out, line)
		}
	}

	counts := journey.CountDocuments(j.Engine.Documents())
	_, _ = fmt.Fprintf(out, "\n%d of %d ready\n", counts.Ready, counts.Total)
	return nil
}

func (cmd *DocCmd) runSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <document-id> <status>")
	}
	docID := c.Args().Get(0)
	status := journey.DocumentStatus(strings.ToLower(c.Args().Get(1)))

	p := printer.Ctx(ctx)

	applied, err := cmd.app.Journey.SetDocumentStatus(ctx, docID, status)
	if err != nil {
		return err
	}
	if !applied {
		p.Warnf("no document with id %q", docID)
		return nil
	}

	p.Successf("%s is now %s", docID, status)
	return nil
}
