// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
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

// Styles used by the list renderer. SetTheme rebuilds them from a palette;
// the defaults come from DefaultTheme.
var (
	Heading   lipgloss.Style
	Checked   lipgloss.Style
	Unchecked lipgloss.Style
	Custom    lipgloss.Style
	Tag       lipgloss.Style
	Muted     lipgloss.Style
	ErrorText lipgloss.Style
)

// SetTheme installs a palette as the active theme.
func SetTheme(p Palette) {
	Heading = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	Checked = lipgloss.NewStyle().Foreground(p.Success)
	Unchecked = lipgloss.NewStyle().Foreground(p.Foreground)
	Custom = lipgloss.NewStyle().Foreground(p.Warning)
	Tag = lipgloss.NewStyle().Foreground(p.Primary).Faint(true)
	Muted = lipgloss.NewStyle().Foreground(p.Muted)
	ErrorText = lipgloss.NewStyle().Foreground(p.Error)
}

func init() {
	SetTheme(themes[DefaultTheme])
}
