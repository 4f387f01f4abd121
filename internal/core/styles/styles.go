// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	TitleStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	DividerStyle lipgloss.Style
	MutedStyle   lipgloss.Style
	LabelStyle   lipgloss.Style
	ValueStyle   lipgloss.Style

	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	InfoStyle    lipgloss.Style

	// Journey styles.
	PhaseCompletedStyle  lipgloss.Style
	PhaseInProgressStyle lipgloss.Style
	PhaseNotStartedStyle lipgloss.Style
	PhaseLockedStyle     lipgloss.Style

	PriorityHighStyle   lipgloss.Style
	PriorityMediumStyle lipgloss.Style
	PriorityLowStyle    lipgloss.Style

	// Dashboard card.
	CardStyle lipgloss.Style
)

// ColorPool is used for deterministic color hashing of categories.
var ColorPool []lipgloss.TerminalColor

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true).
		Underline(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	LabelStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Width(18)
	ValueStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)

	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)

	PhaseCompletedStyle = lipgloss.NewStyle().Foreground(p.Success)
	PhaseInProgressStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	PhaseNotStartedStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	PhaseLockedStyle = lipgloss.NewStyle().Foreground(p.Muted).Faint(true)

	PriorityHighStyle = lipgloss.NewStyle().Foreground(p.Error)
	PriorityMediumStyle = lipgloss.NewStyle().Foreground(p.Warning)
	PriorityLowStyle = lipgloss.NewStyle().Foreground(p.Muted)

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)

	ColorPool = []lipgloss.TerminalColor{
		p.Primary,
		p.Secondary,
		p.Success,
		p.Warning,
		p.Error,
	}
}

// ColorForString returns a deterministic color for a given string.
// The same string always produces the same color.
func ColorForString(s string) lipgloss.TerminalColor {
	var hash uint32
	for _, c := range s {
		hash = hash*31 + uint32(c)
	}
	return ColorPool[hash%uint32(len(ColorPool))]
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
