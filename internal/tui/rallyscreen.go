package tui

import (
	"fmt"
	"strings"

	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/rally"
)

// rallyModel renders the two-agent rally's live progress, per spec.md
// §3's Rally{substate} screen: iteration, current state, a scrolling log
// of streamed agent events, and — when the orchestrator is blocked on the
// operator — the pending clarification question or permission request.
type rallyModel struct {
	state      rally.State
	iteration  int
	maxIter    int
	log        []string
	lastReviewer *rally.ReviewerOutput
	lastReviewee *rally.RevieweeOutput
	question   string
	permission *rally.PermissionRequest
	result     *rally.Result
	scroll     int
	height     int
}

func newRally() rallyModel {
	return rallyModel{}
}

const rallyLogLimit = 500

// Apply folds one orchestrator Event into the screen's state.
func (m *rallyModel) Apply(ev rally.Event) {
	m.state = ev.State
	m.iteration = ev.Iteration

	switch ev.Kind {
	case rally.EventReviewCompleted:
		m.lastReviewer = ev.Reviewer
		m.appendLog(fmt.Sprintf("[iter %d] reviewer: %s — %s", ev.Iteration, ev.Reviewer.Verdict, ev.Reviewer.Summary))
	case rally.EventFixCompleted:
		m.lastReviewee = ev.Reviewee
		m.appendLog(fmt.Sprintf("[iter %d] reviewee: %s — %s", ev.Iteration, ev.Reviewee.Status, ev.Reviewee.Summary))
	case rally.EventClarificationNeeded:
		m.question = ev.Question
		m.appendLog(fmt.Sprintf("[iter %d] needs clarification: %s", ev.Iteration, ev.Question))
	case rally.EventPermissionNeeded:
		m.permission = ev.Request
		m.appendLog(fmt.Sprintf("[iter %d] needs permission: %s (%s)", ev.Iteration, ev.Request.Action, ev.Request.Reason))
	case rally.EventApproved:
		m.appendLog(fmt.Sprintf("[iter %d] approved", ev.Iteration))
	case rally.EventError:
		m.appendLog(fmt.Sprintf("[iter %d] error: %v", ev.Iteration, ev.Err))
	case rally.EventAgentThinking, rally.EventAgentToolUse, rally.EventAgentToolResult, rally.EventAgentText:
		if ev.Text != "" {
			m.appendLog(fmt.Sprintf("[%s/%s] %s", ev.Phase, eventKindLabel(ev.Kind), ev.Text))
		}
	case rally.EventIterationStarted:
		m.appendLog(fmt.Sprintf("[iter %d] started", ev.Iteration))
	}
}

func eventKindLabel(k rally.EventKind) string {
	switch k {
	case rally.EventAgentThinking:
		return "thinking"
	case rally.EventAgentToolUse:
		return "tool"
	case rally.EventAgentToolResult:
		return "tool-result"
	default:
		return "text"
	}
}

func (m *rallyModel) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > rallyLogLimit {
		m.log = m.log[len(m.log)-rallyLogLimit:]
	}
	m.scroll = len(m.log)
}

// SetResult records the terminal Result, per spec.md §4.5's Completed/Failed outcome.
func (m *rallyModel) SetResult(r rally.Result) {
	m.result = &r
	m.state = r.State
}

// AwaitingInput reports whether the rally is blocked on an operator
// decision, and what kind.
func (m rallyModel) AwaitingInput() (clarification bool, permission bool) {
	return m.question != "", m.permission != nil
}

// ClearClarification marks the pending question as answered.
func (m *rallyModel) ClearClarification() { m.question = "" }

// ClearPermission marks the pending permission request as resolved.
func (m *rallyModel) ClearPermission() { m.permission = nil }

func (m rallyModel) View(width, height int) string {
	var b strings.Builder

	status := fmt.Sprintf("iteration %d/%d — %s", m.iteration, m.maxIter, m.state)
	b.WriteString(styles.HeaderStyle.Render(status))
	b.WriteByte('\n')

	if m.question != "" {
		b.WriteString(styles.ModalStyle.Render("Clarification needed:\n" + m.question))
		b.WriteByte('\n')
	}
	if m.permission != nil {
		b.WriteString(styles.ModalStyle.Render(fmt.Sprintf("Permission needed: %s\n%s", m.permission.Action, m.permission.Reason)))
		b.WriteByte('\n')
	}
	if m.result != nil {
		switch m.result.State {
		case rally.Completed:
			b.WriteString(styles.ApproveStyle.Render("Completed: " + m.result.Summary))
		case rally.Failed:
			b.WriteString(styles.RequestChangesStyle.Render(fmt.Sprintf("Failed: %v", m.result.Err)))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	logHeight := height - 6
	if logHeight < 0 {
		logHeight = 0
	}
	start := len(m.log) - logHeight
	if start < 0 {
		start = 0
	}
	for _, line := range m.log[start:] {
		b.WriteString(styles.HelpStyle.Render(line))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
