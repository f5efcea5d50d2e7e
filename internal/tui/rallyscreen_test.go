package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewloop/octoreview/internal/rally"
)

func TestRallyModel_Apply_RecordsClarificationQuestion(t *testing.T) {
	m := newRally()

	m.Apply(rally.Event{
		Iteration: 2,
		State:     rally.NeedsClarification,
		Kind:      rally.EventClarificationNeeded,
		Question:  "Should the retry use exponential backoff?",
	})

	clarify, permission := m.AwaitingInput()
	assert.True(t, clarify)
	assert.False(t, permission)
	assert.Equal(t, 2, m.iteration)
}

func TestRallyModel_ClearClarification_ResolvesPendingQuestion(t *testing.T) {
	m := newRally()
	m.Apply(rally.Event{Kind: rally.EventClarificationNeeded, Question: "q?"})

	m.ClearClarification()

	clarify, _ := m.AwaitingInput()
	assert.False(t, clarify)
}

func TestRallyModel_Apply_RecordsPermissionRequest(t *testing.T) {
	m := newRally()

	m.Apply(rally.Event{
		Kind: rally.EventPermissionNeeded,
		Request: &rally.PermissionRequest{
			Action: "delete migration file",
			Reason: "it conflicts with the new schema",
		},
	})

	_, permission := m.AwaitingInput()
	assert.True(t, permission)
}

func TestRallyModel_SetResult_RecordsTerminalState(t *testing.T) {
	m := newRally()

	m.SetResult(rally.Result{State: rally.Completed, Iteration: 3, Summary: "looks good"})

	assert.Equal(t, rally.Completed, m.state)
	assert.NotNil(t, m.result)
}

func TestRallyModel_AppendLog_CapsAtLimit(t *testing.T) {
	m := newRally()
	for i := 0; i < rallyLogLimit+10; i++ {
		m.appendLog("line")
	}
	assert.Len(t, m.log, rallyLogLimit)
}
