// Package styles provides the shared lipgloss v2 styles used by the CLI
// output and the TUI screens.
package styles

import (
	"sort"

	"charm.land/lipgloss/v2"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Background: lipgloss.Color("#282828"),
		Surface:    lipgloss.Color("#3c3836"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
}

// ThemeNames returns the sorted names of all built-in themes.
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

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Diff row styles.
var (
	DiffAddedStyle   lipgloss.Style
	DiffRemovedStyle lipgloss.Style
	DiffMetaStyle    lipgloss.Style
	DiffContextStyle lipgloss.Style
	DiffCommentedBadgeStyle lipgloss.Style
)

// File list / PR list styles.
var (
	ListSelectedStyle lipgloss.Style
	ListNormalStyle   lipgloss.Style
	FileAddedStyle    lipgloss.Style
	FileDeletedStyle  lipgloss.Style
	FileModifiedStyle lipgloss.Style
	FileRenamedStyle  lipgloss.Style
)

// Verdict / status styles.
var (
	ApproveStyle        lipgloss.Style
	RequestChangesStyle lipgloss.Style
	CommentVerdictStyle lipgloss.Style
	DraftStyle          lipgloss.Style
)

// Chrome styles shared across screens.
var (
	HeaderStyle lipgloss.Style
	HelpStyle   lipgloss.Style
	ModalStyle  lipgloss.Style
	ErrorStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds every global style.
func SetTheme(p Palette) {
	CurrentPalette = p

	DiffAddedStyle = lipgloss.NewStyle().Foreground(p.Success)
	DiffRemovedStyle = lipgloss.NewStyle().Foreground(p.Error)
	DiffMetaStyle = lipgloss.NewStyle().Foreground(p.Muted).Faint(true)
	DiffContextStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	DiffCommentedBadgeStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)

	ListSelectedStyle = lipgloss.NewStyle().Foreground(p.Background).Background(p.Primary)
	ListNormalStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	FileAddedStyle = lipgloss.NewStyle().Foreground(p.Success)
	FileDeletedStyle = lipgloss.NewStyle().Foreground(p.Error)
	FileModifiedStyle = lipgloss.NewStyle().Foreground(p.Warning)
	FileRenamedStyle = lipgloss.NewStyle().Foreground(p.Secondary)

	ApproveStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	RequestChangesStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	CommentVerdictStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	DraftStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ModalStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Primary).Padding(1, 2)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
}

func init() {
	SetTheme(themes[DefaultTheme])
}
