// Package rally drives two external agent processes through an iterative
// review-and-fix loop against a pull request, persisting state after every
// transition.
package rally

import (
	"fmt"

	"github.com/reviewloop/octoreview/internal/rally/agent"
	"github.com/reviewloop/octoreview/internal/rally/store"
)

// State tags the orchestrator's current substate. It is the store's State,
// not redefined here, so a persisted session.json and a live Orchestrator
// always agree on what a state value means.
type State = store.State

const (
	Initializing       = store.Initializing
	ReviewerReviewing  = store.ReviewerReviewing
	RevieweeFixing     = store.RevieweeFixing
	NeedsClarification = store.NeedsClarification
	NeedsPermission    = store.NeedsPermission
	Completed          = store.Completed
	Failed             = store.Failed
)

// Phase distinguishes which agent an Event originated from.
type Phase = store.Phase

const (
	PhaseReviewer = store.PhaseReviewer
	PhaseReviewee = store.PhaseReviewee
)

// Re-exported agent-output types, so callers of this package don't need to
// import internal/rally/agent themselves just to read an Event.
type (
	Severity           = agent.Severity
	Verdict            = agent.Verdict
	ReviewComment      = agent.ReviewComment
	ReviewerOutput     = agent.ReviewerOutput
	RevieweeStatus     = agent.RevieweeStatus
	PermissionRequest  = agent.PermissionRequest
	RevieweeOutput     = agent.RevieweeOutput
)

const (
	SeverityCritical   = agent.SeverityCritical
	SeverityMajor      = agent.SeverityMajor
	SeverityMinor      = agent.SeverityMinor
	SeveritySuggestion = agent.SeveritySuggestion

	VerdictApprove        = agent.VerdictApprove
	VerdictRequestChanges = agent.VerdictRequestChanges
	VerdictComment        = agent.VerdictComment

	RevieweeCompleted          = agent.RevieweeCompleted
	RevieweeNeedsClarification = agent.RevieweeNeedsClarification
	RevieweeNeedsPermission    = agent.RevieweeNeedsPermission
	RevieweeErrored            = agent.RevieweeErrored
)

// EventKind tags the payload carried by an Event.
type EventKind string

const (
	EventStateChanged        EventKind = "state_changed"
	EventIterationStarted    EventKind = "iteration_started"
	EventReviewCompleted     EventKind = "review_completed"
	EventFixCompleted        EventKind = "fix_completed"
	EventClarificationNeeded EventKind = "clarification_needed"
	EventPermissionNeeded    EventKind = "permission_needed"
	EventApproved            EventKind = "approved"
	EventError               EventKind = "error"
	EventLog                 EventKind = "log"
	EventAgentThinking       EventKind = "agent_thinking"
	EventAgentToolUse        EventKind = "agent_tool_use"
	EventAgentToolResult     EventKind = "agent_tool_result"
	EventAgentText           EventKind = "agent_text"
)

// streamKindToEventKind maps an agent's low-level stream event to the
// orchestrator-level EventKind fanned out to the view.
func streamKindToEventKind(k agent.StreamKind) EventKind {
	switch k {
	case agent.StreamThinking:
		return EventAgentThinking
	case agent.StreamToolUse:
		return EventAgentToolUse
	case agent.StreamToolResult:
		return EventAgentToolResult
	default:
		return EventAgentText
	}
}

// Event is one (iteration, phase, event) tuple fanned out to the view.
type Event struct {
	Iteration int
	Phase     Phase
	Kind      EventKind
	State     State
	Text      string
	Reviewer  *ReviewerOutput
	Reviewee  *RevieweeOutput
	Question  string
	Request   *PermissionRequest
	Err       error
}

// Result is the outcome returned once the rally reaches a terminal state.
type Result struct {
	State     State
	Iteration int
	Summary   string
	Reason    string
	Err       error
}

func (r Result) String() string {
	switch r.State {
	case Completed:
		return fmt.Sprintf("completed at iteration %d: %s", r.Iteration, r.Summary)
	case Failed:
		return fmt.Sprintf("failed at iteration %d: %v", r.Iteration, r.Err)
	default:
		return fmt.Sprintf("%s at iteration %d", r.State, r.Iteration)
	}
}

// Command is sent back from the view into a running orchestrator.
type Command struct {
	ClarificationResponse string
	PermissionGranted     *bool
	SkipClarification     bool
	Abort                 bool
}
