package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/forge"
)

// fileListModel is the changed-files pane: one row per ChangedFile, ordered
// as the snapshot provides them (spec.md §3: "an ordered sequence of
// changed files").
type fileListModel struct {
	files   []forge.ChangedFile
	cursor  int
	scroll  int
	height  int
	hasAny  bool
	commentCount map[string]int
}

func newFileList() fileListModel {
	return fileListModel{commentCount: map[string]int{}}
}

// SetFiles replaces the file list. The cursor is clamped, not reset, so
// switching between loader revalidation ticks doesn't jump the selection
// unless the list shrank past it.
func (m *fileListModel) SetFiles(files []forge.ChangedFile) {
	m.files = files
	if m.cursor >= len(files) {
		m.cursor = len(files) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.hasAny = len(files) > 0
}

// SetCommentCounts records how many review comments land on each path, for
// the badge shown next to a file's name.
func (m *fileListModel) SetCommentCounts(counts map[string]int) {
	m.commentCount = counts
}

// Selected returns the currently highlighted file.
func (m fileListModel) Selected() (forge.ChangedFile, bool) {
	if m.cursor < 0 || m.cursor >= len(m.files) {
		return forge.ChangedFile{}, false
	}
	return m.files[m.cursor], true
}

// Move shifts the cursor by delta, clamped to the file list bounds, and
// keeps the scroll offset tracking it.
func (m *fileListModel) Move(delta int) {
	if len(m.files) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.files) {
		m.cursor = len(m.files) - 1
	}
	m.clampScroll()
}

// MoveTo sets the cursor to an absolute index, clamped to bounds.
func (m *fileListModel) MoveTo(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.files) {
		idx = len(m.files) - 1
	}
	m.cursor = idx
	m.clampScroll()
}

func (m *fileListModel) clampScroll() {
	if m.height <= 0 {
		return
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+m.height {
		m.scroll = m.cursor - m.height + 1
	}
}

// SetHeight sets the viewport height used to clamp scroll.
func (m *fileListModel) SetHeight(h int) {
	m.height = h
	m.clampScroll()
}

// AutoFocus implements spec.md §4.4's auto-focus rule: it selects the
// changed file whose index is nearest to the current cursor, ties broken
// toward the start (the lowest matching index wins on a tie), or the first
// changed file if nothing was selected yet.
func (m *fileListModel) AutoFocus(changedPaths []string) {
	if len(m.files) == 0 || len(changedPaths) == 0 {
		return
	}
	changed := make(map[string]bool, len(changedPaths))
	for _, p := range changedPaths {
		changed[p] = true
	}

	if !m.hasAny {
		for i, f := range m.files {
			if changed[f.Path] {
				m.MoveTo(i)
				m.hasAny = true
				return
			}
		}
		return
	}

	best, bestDist := -1, -1
	for i, f := range m.files {
		if !changed[f.Path] {
			continue
		}
		d := i - m.cursor
		if d < 0 {
			d = -d
		}
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best != -1 {
		m.MoveTo(best)
	}
}

func kindGlyph(k forge.ChangeKind) (string, lipgloss.Style) {
	switch k {
	case forge.Added:
		return "A", styles.FileAddedStyle
	case forge.Deleted:
		return "D", styles.FileDeletedStyle
	case forge.Renamed:
		return "R", styles.FileRenamedStyle
	default:
		return "M", styles.FileModifiedStyle
	}
}

// View renders the visible window of the file list.
func (m fileListModel) View(width int, focused bool) string {
	if len(m.files) == 0 {
		return styles.HelpStyle.Render("(no changed files)")
	}

	var b strings.Builder
	end := m.scroll + m.height
	if end > len(m.files) || m.height <= 0 {
		end = len(m.files)
	}
	for i := m.scroll; i < end; i++ {
		f := m.files[i]
		glyph, glyphStyle := kindGlyph(f.Kind)
		row := fmt.Sprintf("%s %s", glyphStyle.Render(glyph), f.Path)
		if n := m.commentCount[f.Path]; n > 0 {
			row += styles.DiffCommentedBadgeStyle.Render(fmt.Sprintf(" •%d", n))
		}
		row = lipgloss.NewStyle().MaxWidth(width).Render(row)
		if i == m.cursor && focused {
			row = styles.ListSelectedStyle.Width(width).Render(row)
		} else if i == m.cursor {
			row = styles.ListNormalStyle.Bold(true).Render(row)
		} else {
			row = styles.ListNormalStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
