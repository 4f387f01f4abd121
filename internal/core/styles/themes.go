package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.TerminalColor
	Secondary  lipgloss.TerminalColor
	Foreground lipgloss.TerminalColor
	Muted      lipgloss.TerminalColor
	Surface    lipgloss.TerminalColor
	Success    lipgloss.TerminalColor
	Warning    lipgloss.TerminalColor
	Error      lipgloss.TerminalColor
}

// Theme names accepted by tui.theme.
const (
	DefaultTheme = "default"
	MonoTheme    = "mono"
)

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	DefaultTheme: {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	MonoTheme: {
		Primary:    lipgloss.NoColor{},
		Secondary:  lipgloss.NoColor{},
		Foreground: lipgloss.NoColor{},
		Muted:      lipgloss.NoColor{},
		Surface:    lipgloss.NoColor{},
		Success:    lipgloss.NoColor{},
		Warning:    lipgloss.NoColor{},
		Error:      lipgloss.NoColor{},
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// Mono reports whether the active palette carries no colors.
func (p Palette) Mono() bool {
	_, ok := p.Primary.(lipgloss.NoColor)
	return ok
}

func colorHexPtr(c lipgloss.TerminalColor) *string {
	hex, ok := c.(lipgloss.Color)
	if !ok || hex == "" {
		return nil
	}
	s := string(hex)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	if CurrentPalette.Mono() {
		return glamourstyles.NoTTYStyleConfig
	}

	cfg := glamourstyles.DarkStyleConfig

	fg := colorHexPtr(CurrentPalette.Foreground)
	primary := colorHexPtr(CurrentPalette.Primary)
	secondary := colorHexPtr(CurrentPalette.Secondary)
	muted := colorHexPtr(CurrentPalette.Muted)
	surface := colorHexPtr(CurrentPalette.Surface)

	cfg.Document.Color = fg

	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.Table.Color = fg

	return cfg
}
