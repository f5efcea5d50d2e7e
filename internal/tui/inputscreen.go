package tui

import (
	"fmt"
	"os"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"

	"github.com/reviewloop/octoreview/internal/core/config"
	"github.com/reviewloop/octoreview/internal/editor"
	"github.com/reviewloop/octoreview/internal/forge"
)

// inputModel is the composition screen for Comment, Suggestion, and Reply,
// per spec.md §3's Input{kind} screen. Short bodies are typed inline into a
// textarea; 'ctrl+e' suspends the program and hands off to $EDITOR for a
// longer composition, per spec.md §6.
type inputModel struct {
	kind InputKind
	area textarea.Model

	path      string
	side      forge.Side
	line      int
	rangeFrom int
	parentID  string

	editorPath string
}

func newInput() inputModel {
	ta := textarea.New()
	ta.Placeholder = "Write a comment. ctrl+e opens $EDITOR, ctrl+s to submit, esc to cancel."
	ta.ShowLineNumbers = false
	return inputModel{area: ta}
}

// Open resets the composer for a new Comment/Suggestion anchored at
// (path, side, line), or a Reply to parentID.
func (m *inputModel) Open(kind InputKind, path string, side forge.Side, line int, parentID string) {
	m.kind = kind
	m.path = path
	m.side = side
	m.line = line
	m.parentID = parentID
	m.area.SetValue("")
	if kind == InputSuggestion {
		m.area.SetValue("```suggestion\n\n```")
	}
	_ = m.area.Focus()
}

func (m *inputModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return cmd
}

// Body returns the currently composed body text.
func (m inputModel) Body() string {
	return m.area.Value()
}

// OpenEditor suspends the TUI to compose the body in $EDITOR, writing any
// inline draft to a temp file first so the editor starts from it.
func (m *inputModel) OpenEditor(configuredEditor, tmpDir string) tea.Cmd {
	path := fmt.Sprintf("%s/octoreview-comment-%d.md", tmpDir, len(m.path)+m.line)
	m.editorPath = path
	_ = os.WriteFile(path, []byte(m.area.Value()), 0o600)
	return editor.Compose(configuredEditor, path)
}

func (m *inputModel) View(width, height int) string {
	if height < 1 {
		height = 1
	}
	m.area.SetWidth(width)
	m.area.SetHeight(height)
	return m.area.View()
}

// Title describes the composition in progress, for the screen's header.
func (m inputModel) Title() string {
	switch m.kind {
	case InputSuggestion:
		return fmt.Sprintf("Suggest change: %s:%d", m.path, m.line)
	case InputReply:
		return "Reply"
	default:
		return fmt.Sprintf("Comment: %s:%d", m.path, m.line)
	}
}

// pendingForgeComment materializes the composer's current state into a
// forge.PendingComment, for handoff to the review store.
func (m inputModel) pendingForgeComment() forge.PendingComment {
	return forge.PendingComment{
		Path:      m.path,
		Side:      m.side,
		Line:      m.line,
		RangeFrom: m.rangeFrom,
		Body:      m.Body(),
	}
}

// resolveEditor picks the editor binary per spec.md §6's config → $VISUAL →
// $EDITOR → vi order.
func resolveEditor(cfg *config.Config) string {
	return editor.Resolve(cfg.Editor)
}
