package tui

import (
	"strings"

	"github.com/reviewloop/octoreview/internal/core/styles"
)

// helpModel renders the full keybinding reference, per spec.md §3's Help
// screen.
type helpModel struct {
	bindings []helpEntry
}

func newHelp(r resolver) helpModel {
	return helpModel{bindings: r.helpEntries()}
}

var fixedNavHelp = []helpEntry{
	{Key: "j/k, ↑/↓", Help: "move cursor"},
	{Key: "tab", Help: "switch panel focus"},
	{Key: "enter", Help: "select / open"},
	{Key: "g/G", Help: "top / bottom"},
	{Key: "f", Help: "toggle full-screen diff"},
	{Key: "C", Help: "comment list"},
	{Key: "R", Help: "rally screen (--ai-rally)"},
	{Key: "r", Help: "refresh"},
	{Key: "?", Help: "help"},
	{Key: "esc", Help: "back"},
	{Key: "q, ctrl+c", Help: "quit"},
}

func (m helpModel) View(width int) string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render("Navigation"))
	b.WriteByte('\n')
	for _, e := range fixedNavHelp {
		b.WriteString(renderHelpLine(e))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(styles.HeaderStyle.Render("Actions"))
	b.WriteByte('\n')
	for _, e := range m.bindings {
		b.WriteString(renderHelpLine(e))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHelpLine(e helpEntry) string {
	return styles.HeaderStyle.Render(e.Key) + "  " + styles.HelpStyle.Render(e.Help)
}
