package tui

import (
	"fmt"
	"strings"

	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/forge"
)

// prListModel is the PR picker screen, supplementing spec.md: when
// octoreview is started with --repo but no --pr, this lets the operator
// choose a PR interactively instead of requiring the number up front.
type prListModel struct {
	items   []forge.Summary
	cursor  int
	scroll  int
	height  int
	loading bool
	err     error
	hasMore bool
	offset  int
	state   forge.StateFilter
}

func newPRList() prListModel {
	return prListModel{state: forge.StateOpen}
}

// SetPage appends or replaces the loaded page, per forge.Client.FetchList's
// offset/limit pagination.
func (m *prListModel) SetPage(page forge.ListPage, reset bool) {
	if reset {
		m.items = nil
		m.cursor = 0
		m.scroll = 0
	}
	m.items = append(m.items, page.Items...)
	m.hasMore = page.HasMore
	m.offset = len(m.items)
	m.loading = false
}

func (m *prListModel) SetLoading(v bool) { m.loading = v }

func (m *prListModel) SetErr(err error) {
	m.err = err
	m.loading = false
}

// CycleState advances the open/closed/merged/all filter and signals that a
// fresh fetch is needed.
func (m *prListModel) CycleState() forge.StateFilter {
	switch m.state {
	case forge.StateOpen:
		m.state = forge.StateClosed
	case forge.StateClosed:
		m.state = forge.StateMerged
	case forge.StateMerged:
		m.state = forge.StateAll
	default:
		m.state = forge.StateOpen
	}
	m.items = nil
	m.offset = 0
	m.cursor = 0
	return m.state
}

func (m prListModel) State() forge.StateFilter { return m.state }
func (m prListModel) Offset() int              { return m.offset }
func (m prListModel) NeedsMore() bool          { return m.hasMore && m.cursor >= len(m.items)-3 }

func (m *prListModel) Move(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > len(m.items)-1 {
		m.cursor = len(m.items) - 1
	}
	m.clampScroll()
}

func (m *prListModel) clampScroll() {
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

func (m *prListModel) SetHeight(h int) {
	m.height = h
	m.clampScroll()
}

// Selected returns the PR number under the cursor.
func (m prListModel) Selected() (forge.Summary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return forge.Summary{}, false
	}
	return m.items[m.cursor], true
}

func (m prListModel) View(width int) string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Pull requests (%s) — tab to cycle filter", m.state)))
	b.WriteByte('\n')

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render(m.err.Error()))
		return b.String()
	}
	if m.loading && len(m.items) == 0 {
		b.WriteString(styles.HelpStyle.Render("loading…"))
		return b.String()
	}
	if len(m.items) == 0 {
		b.WriteString(styles.HelpStyle.Render("no pull requests"))
		return b.String()
	}

	end := m.scroll + m.height
	if end > len(m.items) || m.height <= 0 {
		end = len(m.items)
	}
	for i := m.scroll; i < end; i++ {
		pr := m.items[i]
		line := fmt.Sprintf("#%-5d %-48s %s", pr.Number, truncate(pr.Title, 48), pr.Author)
		if pr.IsDraft {
			line += " [draft]"
		}
		if i == m.cursor {
			b.WriteString(styles.ListSelectedStyle.Render(line))
		} else {
			b.WriteString(styles.ListNormalStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
