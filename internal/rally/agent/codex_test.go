package agent

import (
	"context"
	"testing"

	"github.com/reviewloop/octoreview/pkg/executil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodexAdapter_RunReviewer_ParsesAgentMessage(t *testing.T) {
	stream := `{"type": "thread.started", "thread_id": "th-1"}
{"type": "item.completed", "item": {"item_type": "agent_message", "text": "{\"action\":\"request_changes\",\"summary\":\"needs work\",\"comments\":[],\"blocking_issues\":[\"nil check\"]}"}}
`
	exec := &executil.RecordingExecutor{Outputs: map[string][]byte{"codex": []byte(stream)}}
	a := NewCodexAdapter(exec)

	out, err := a.RunReviewer(context.Background(), "review this", Context{}, func(StreamEvent) {})
	require.NoError(t, err)
	assert.Equal(t, VerdictRequestChanges, out.Verdict)
	assert.Equal(t, []string{"nil check"}, out.BlockingIssues)

	require.Len(t, exec.Commands, 1)
	assert.NotContains(t, exec.Commands[0].Args, "--full-auto")
}

func TestCodexAdapter_RunReviewee_PassesFullAuto(t *testing.T) {
	stream := `{"type": "thread.started", "thread_id": "th-2"}
{"type": "item.completed", "item": {"item_type": "agent_message", "text": "{\"status\":\"completed\",\"summary\":\"fixed\",\"files_modified\":[]}"}}
`
	exec := &executil.RecordingExecutor{Outputs: map[string][]byte{"codex": []byte(stream)}}
	a := NewCodexAdapter(exec)

	out, err := a.RunReviewee(context.Background(), "fix it", Context{}, nil, func(StreamEvent) {})
	require.NoError(t, err)
	assert.Equal(t, RevieweeCompleted, out.Status)
	assert.Contains(t, exec.Commands[0].Args, "--full-auto")
}

func TestCodexAdapter_TurnFailedPropagatesError(t *testing.T) {
	stream := `{"type": "turn.failed", "error": {"message": "sandbox denied"}}
`
	exec := &executil.RecordingExecutor{Outputs: map[string][]byte{"codex": []byte(stream)}}
	a := NewCodexAdapter(exec)

	_, err := a.RunReviewer(context.Background(), "review", Context{}, func(StreamEvent) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sandbox denied")
}
