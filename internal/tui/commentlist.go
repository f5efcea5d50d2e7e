package tui

import (
	"fmt"
	"strings"

	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/review"
)

// commentListModel lists the comments held in the local review store,
// sorted by path then line. Comments already posted on the forge are not
// fetched into it, so in practice it shows the pending ones.
type commentListModel struct {
	comments []review.Comment
	cursor   int
	scroll   int
	height   int
}

func newCommentList() commentListModel {
	return commentListModel{}
}

func (m *commentListModel) SetComments(comments []review.Comment) {
	m.comments = comments
	if m.cursor >= len(comments) {
		m.cursor = len(comments) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *commentListModel) Move(delta int) {
	if len(m.comments) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.comments) {
		m.cursor = len(m.comments) - 1
	}
	m.clampScroll()
}

func (m *commentListModel) SetHeight(h int) {
	m.height = h
	m.clampScroll()
}

func (m *commentListModel) clampScroll() {
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

// Selected returns the comment under the cursor.
func (m commentListModel) Selected() (review.Comment, bool) {
	if m.cursor < 0 || m.cursor >= len(m.comments) {
		return review.Comment{}, false
	}
	return m.comments[m.cursor], true
}

func (m commentListModel) View(width int) string {
	if len(m.comments) == 0 {
		return styles.HelpStyle.Render("(no comments yet)")
	}

	var b strings.Builder
	end := m.scroll + m.height
	if end > len(m.comments) || m.height <= 0 {
		end = len(m.comments)
	}
	for i := m.scroll; i < end; i++ {
		c := m.comments[i]
		status := "posted"
		style := styles.ListNormalStyle
		if c.Pending {
			status = "pending"
			style = styles.DraftStyle
		}
		kind := "comment"
		if c.IsSuggestion() {
			kind = "suggestion"
		} else if c.IsReply() {
			kind = "reply"
		}
		header := fmt.Sprintf("%s:%d [%s/%s]", c.Path, c.Line, status, kind)
		body := firstLine(c.Body)
		row := header + "  " + body
		if i == m.cursor {
			row = styles.ListSelectedStyle.Width(width).Render(row)
		} else {
			row = style.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + "…"
	}
	return s
}
