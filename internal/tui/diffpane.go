package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/diffrender"
	"github.com/reviewloop/octoreview/internal/highlight"
)

// diffPaneModel owns the render cache of §4.3 and the scroll/cursor state
// of the currently viewed patch. It never crosses goroutine boundaries: the
// cache is single-slot and owned entirely by this model, per spec.md §5's
// "diff cache is owned by the view and never crossed between threads."
type diffPaneModel struct {
	cache       *diffrender.Cache
	highlighter highlight.Highlighter
	themeID     string

	fileIndex int
	path      string
	ext       string
	entry     *diffrender.Entry

	cursor int
	scroll int
	height int
}

func newDiffPane(h highlight.Highlighter, themeID string) diffPaneModel {
	return diffPaneModel{cache: diffrender.NewCache(), highlighter: h, themeID: themeID}
}

func baseStylesFromTheme() diffrender.BaseStyles {
	return diffrender.BaseStyles{
		Added:   styles.DiffAddedStyle,
		Removed: styles.DiffRemovedStyle,
		Meta:    styles.DiffMetaStyle,
		Default: styles.DiffContextStyle,
	}
}

// SetFile rebuilds the render cache for (fileIndex, path, patch) if the key
// changed, per spec.md §3's cache-entry rebuild conditions. commentedOld and
// commentedNew are the old/new-side line numbers carrying a review comment.
func (m *diffPaneModel) SetFile(fileIndex int, path, patch string, commentedOld, commentedNew map[int]bool) {
	m.fileIndex = fileIndex
	m.path = path
	m.ext = filepath.Ext(path)

	key := diffrender.Key{
		FileIndex:          fileIndex,
		PatchFingerprint:   diffrender.PatchFingerprint(patch),
		CommentFingerprint: diffrender.CommentFingerprint(commentedNew),
		ThemeID:            m.themeID,
		HighlighterID:      m.highlighter.Name(),
	}

	if entry, ok := m.cache.Get(key); ok {
		m.entry = entry
	} else {
		m.entry = m.cache.Build(key, patch, m.ext, m.highlighter, baseStylesFromTheme(), commentedOld, commentedNew)
		m.cursor = 0
		m.scroll = 0
	}
	m.clampScroll()
}

func (m *diffPaneModel) rowCount() int {
	if m.entry == nil {
		return 0
	}
	return len(m.entry.Rows())
}

// clampScroll implements spec.md §4.3's viewport safety clamp: a file
// switch that leaves the scroll offset past the end truncates it back into
// range instead of rendering an error.
func (m *diffPaneModel) clampScroll() {
	n := m.rowCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.height <= 0 {
		return
	}
	if m.scroll > n {
		m.scroll = n
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+m.height {
		m.scroll = m.cursor - m.height + 1
	}
}

// SetHeight sets the viewport height and reapplies the safety clamp.
func (m *diffPaneModel) SetHeight(h int) {
	m.height = h
	m.clampScroll()
}

// Move shifts the row cursor by delta, clamped to the row count.
func (m *diffPaneModel) Move(delta int) {
	m.cursor += delta
	m.clampScroll()
}

// CurrentLine returns the old/new line numbers of the row under the
// cursor, mirroring diffparse.LineInfo's contract for the row the
// reviewer is about to comment on.
func (m *diffPaneModel) CurrentLine() (oldLine, newLine int, ok bool) {
	if m.entry == nil || m.cursor < 0 || m.cursor >= len(m.entry.Rows()) {
		return 0, 0, false
	}
	row := m.entry.Rows()[m.cursor]
	return row.OldLine, row.NewLine, true
}

// View renders the visible rows for the current viewport. Allocation is
// proportional to the number of visible rows, not the whole patch, per
// spec.md §4.3's render contract.
func (m *diffPaneModel) View(width int) string {
	if m.entry == nil {
		return styles.HelpStyle.Render("(no diff)")
	}
	rows := diffrender.Visible(m.entry, m.scroll, m.height)
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range rows {
		idx := m.scroll + i
		line := renderRowText(row)
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		if row.Commented {
			line = "• " + line
		} else {
			line = "  " + line
		}
		if idx == m.cursor {
			line = lipgloss.NewStyle().Reverse(true).Width(width).Render(line)
		}
		b.WriteString(line)
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRowText(row diffrender.Row) string {
	gutter := gutterText(row)
	var b strings.Builder
	b.WriteString(gutter)
	for _, span := range row.Spans {
		b.WriteString(span.Style.Render(span.Text))
	}
	return b.String()
}

func gutterText(row diffrender.Row) string {
	old, new := "    ", "    "
	if row.OldLine > 0 {
		old = fmt.Sprintf("%4d", row.OldLine)
	}
	if row.NewLine > 0 {
		new = fmt.Sprintf("%4d", row.NewLine)
	}
	return old + " " + new + " "
}
