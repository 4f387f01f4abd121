package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/styles"
)

const barWidth = 30

// progressBar renders pct as a fixed width bar followed by the percentage.
func progressBar(pct, width int) string {
	opts := []progress.Option{progress.WithWidth(width), progress.WithoutPercentage()}
	if styles.CurrentPalette.Mono() {
		opts = append(opts, progress.WithFillCharacters('#', '-'))
	} else {
		opts = append(opts, progress.WithDefaultGradient())
	}
	bar := progress.New(opts...)
	return fmt.Sprintf("%s %3d%%", bar.ViewAs(float64(pct)/100), pct)
}

func phaseIcon(s journey.Status) string {
	switch s {
	case journey.StatusCompleted:
		return styles.PhaseCompletedStyle.Render(styles.IconCompleted)
	case journey.StatusInProgress:
		return styles.PhaseInProgressStyle.Render(styles.IconInProgress)
	case journey.StatusLocked:
		return styles.PhaseLockedStyle.Render(styles.IconLocked)
	default:
		return styles.PhaseNotStartedStyle.Render(styles.IconNotStarted)
	}
}

func phaseStyle(s journey.Status) lipgloss.Style {
	switch s {
	case journey.StatusCompleted:
		return styles.PhaseCompletedStyle
	case journey.StatusInProgress:
		return styles.PhaseInProgressStyle
	case journey.StatusLocked:
		return styles.PhaseLockedStyle
	default:
		return styles.PhaseNotStartedStyle
	}
}

func priorityStyle(p journey.Priority) lipgloss.Style {
	switch p {
	case journey.PriorityHigh:
		return styles.PriorityHighStyle
	case journey.PriorityMedium:
		return styles.PriorityMediumStyle
	default:
		return styles.PriorityLowStyle
	}
}

func documentIcon(s journey.DocumentStatus) string {
	switch s {
	case journey.DocumentReady:
		return styles.SuccessStyle.Render(styles.IconReady)
	case journey.DocumentInProgress:
		return styles.WarningStyle.Render(styles.IconInProgress)
	default:
		return styles.ErrorStyle.Render(styles.IconMissing)
	}
}

func startLabel(s journey.Summary) string {
	switch {
	case s.Started():
		return "started"
	case s.DaysUntilStart < 60:
		return fmt.Sprintf("%d days away", s.DaysUntilStart)
	default:
		return fmt.Sprintf("%d months away (%d days)", s.MonthsUntilStart(), s.DaysUntilStart)
	}
}

// renderDashboard writes the status overview of a journey.
func renderDashboard(w io.Writer, j abroad.Journey, s journey.Summary) {
	var b strings.Builder

	p := j.Profile
	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("%s's journey to %s", p.Name, p.TargetCountry)))
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%s %s starting %s %s %s",
		styles.IconBullet, p.StudyLevel, p.StartDate.Format("January 2006"), styles.IconCalendar, startLabel(s))))
	b.WriteString("\n\n")

	b.WriteString(styles.LabelStyle.Render("Overall"))
	b.WriteString(progressBar(s.OverallProgress, barWidth))
	b.WriteString("\n")
	b.WriteString(styles.LabelStyle.Render("Tasks"))
	b.WriteString(fmt.Sprintf("%d of %d done, %d remaining\n", s.CompletedTasks, s.TotalTasks, s.RemainingTasks()))
	b.WriteString(styles.LabelStyle.Render("Documents"))
	b.WriteString(fmt.Sprintf("%d of %d ready (%d required)\n\n", s.Documents.Ready, s.Documents.Total, s.Documents.Required))

	b.WriteString(styles.HeaderStyle.Render("Phases"))
	b.WriteString("\n")
	for _, ph := range j.Engine.Phases() {
		title := fmt.Sprintf("%d. %s", ph.Number, ph.Title)
		if s.CurrentPhase != nil && s.CurrentPhase.ID == ph.ID {
			title += " " + styles.InfoStyle.Render(styles.IconArrow+" current")
		}
		b.WriteString(fmt.Sprintf("  %s %-32s %s\n", phaseIcon(ph.Status), phaseStyle(ph.Status).Render(title),
			styles.MutedStyle.Render(fmt.Sprintf("%d/%d", ph.CompletedTasks(), len(ph.Tasks)))))
	}

	if len(s.NextSteps) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.HeaderStyle.Render("Next steps"))
		b.WriteString("\n")
		for _, t := range s.NextSteps {
			b.WriteString(fmt.Sprintf("  %s %s %s\n", styles.IconBullet, t.Title, styles.MutedStyle.Render("("+t.ID+")")))
		}
	}

	if len(s.Documents.Categories) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.HeaderStyle.Render("Documents by category"))
		b.WriteString("\n")
		for _, c := range s.Documents.Categories {
			label := lipgloss.NewStyle().Foreground(styles.ColorForString(c.Category)).Width(16).Render(c.Category)
			b.WriteString(fmt.Sprintf("  %s %d/%d\n", label, c.Ready, c.Total))
		}
	}

	_, _ = io.WriteString(w, b.String())
}

// phaseMarkdown renders a phase as markdown for glamour.
func phaseMarkdown(ph journey.Phase) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s %d. %s\n\n", ph.Icon, ph.Number, ph.Title)
	fmt.Fprintf(&b, "*%s* · **%s** · %d%% complete\n\n", ph.Timeframe, ph.Status, journey.PhaseProgress(ph))
	if ph.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", ph.Description)
	}

	b.WriteString("## Tasks\n\n")
	for _, t := range ph.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] **%s** `%s` (%s, %s)\n", mark, t.Title, t.ID, t.Priority, t.Category)
		if t.Description != "" {
			fmt.Fprintf(&b, "  %s\n", t.Description)
		}
	}

	if ph.Status == journey.StatusLocked {
		b.WriteString("\n> This phase unlocks when the previous phase is complete.\n")
	}

	return b.String()
}
