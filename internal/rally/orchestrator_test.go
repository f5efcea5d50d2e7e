package rally

import (
	"context"
	"testing"
	"time"

	"github.com/reviewloop/octoreview/internal/rally/agent"
	"github.com/reviewloop/octoreview/internal/rally/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name        string
	reviewerOut []ReviewerOutput
	revieweeOut []RevieweeOutput
	reviewerErr error
	revieweeErr error
	reviewerN   int
	revieweeN   int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) RunReviewer(ctx context.Context, prompt string, pr agent.Context, emit func(agent.StreamEvent)) (ReviewerOutput, error) {
	if f.reviewerErr != nil {
		return ReviewerOutput{}, f.reviewerErr
	}
	out := f.reviewerOut[f.reviewerN]
	if f.reviewerN < len(f.reviewerOut)-1 {
		f.reviewerN++
	}
	emit(agent.StreamEvent{Kind: agent.StreamText, Text: "reviewing"})
	return out, nil
}

func (f *fakeAdapter) RunReviewee(ctx context.Context, prompt string, pr agent.Context, tools []string, emit func(agent.StreamEvent)) (RevieweeOutput, error) {
	if f.revieweeErr != nil {
		return RevieweeOutput{}, f.revieweeErr
	}
	out := f.revieweeOut[f.revieweeN]
	if f.revieweeN < len(f.revieweeOut)-1 {
		f.revieweeN++
	}
	emit(agent.StreamEvent{Kind: agent.StreamText, Text: "fixing"})
	return out, nil
}

func baseConfig(t *testing.T, reviewer, reviewee agent.Adapter) Config {
	s := store.New(t.TempDir())
	dir, err := s.Dir("github", "acme/widgets", 7)
	require.NoError(t, err)
	return Config{
		Reviewer:               reviewer,
		Reviewee:               reviewee,
		Store:                  s,
		Dir:                    dir,
		ReviewerPromptTemplate: "Review {{repo}} #{{pr_number}}",
		RevieweePromptTemplate: "Fix per: {{reviewer_summary}}",
		MaxIterations:          5,
		AgentTimeout:           time.Second,
	}
}

func drainEvents(o *Orchestrator) []Event {
	var out []Event
	for {
		select {
		case ev := <-o.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestOrchestrator_ApprovesOnFirstReview(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerOut: []ReviewerOutput{{Verdict: VerdictApprove, Summary: "lgtm"}}}
	cfg := baseConfig(t, reviewer, reviewer)

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	result := o.Run(context.Background())
	assert.Equal(t, Completed, result.State)
	assert.Equal(t, "lgtm", result.Summary)

	events := drainEvents(o)
	var sawApproved bool
	for _, ev := range events {
		if ev.Kind == EventApproved {
			sawApproved = true
		}
	}
	assert.True(t, sawApproved)
}

func TestOrchestrator_RequestChangesThenApproveCompletesAfterOneFix(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerOut: []ReviewerOutput{
		{Verdict: VerdictRequestChanges, Summary: "needs work"},
		{Verdict: VerdictApprove, Summary: "now lgtm"},
	}}
	reviewee := &fakeAdapter{name: "claude", revieweeOut: []RevieweeOutput{
		{Status: RevieweeCompleted, Summary: "fixed it", FilesModified: []string{"a.go"}},
	}}
	cfg := baseConfig(t, reviewer, reviewee)

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	result := o.Run(context.Background())
	assert.Equal(t, Completed, result.State)
	assert.Equal(t, "now lgtm", result.Summary)
	assert.Equal(t, 1, result.Iteration)
}

func TestOrchestrator_MaxIterationsForcesCompletion(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerOut: []ReviewerOutput{
		{Verdict: VerdictRequestChanges, Summary: "still needs work"},
	}}
	reviewee := &fakeAdapter{name: "claude", revieweeOut: []RevieweeOutput{
		{Status: RevieweeCompleted, Summary: "tried to fix"},
	}}
	cfg := baseConfig(t, reviewer, reviewee)
	cfg.MaxIterations = 2

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	result := o.Run(context.Background())
	assert.Equal(t, Completed, result.State)
	assert.Equal(t, "max iterations reached", result.Summary)
}

func TestOrchestrator_NeedsClarificationBlocksUntilCommand(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerOut: []ReviewerOutput{
		{Verdict: VerdictRequestChanges, Summary: "needs work"},
		{Verdict: VerdictApprove, Summary: "lgtm now"},
	}}
	reviewee := &fakeAdapter{name: "claude", revieweeOut: []RevieweeOutput{
		{Status: RevieweeNeedsClarification, Question: "which approach?"},
		{Status: RevieweeCompleted, Summary: "applied your answer"},
	}}
	cfg := baseConfig(t, reviewer, reviewee)

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	done := make(chan Result, 1)
	go func() { done <- o.Run(context.Background()) }()

	var gotQuestion string
	for gotQuestion == "" {
		ev := <-o.Events()
		if ev.Kind == EventClarificationNeeded {
			gotQuestion = ev.Question
		}
	}
	assert.Equal(t, "which approach?", gotQuestion)
	o.Commands() <- Command{ClarificationResponse: "use approach B"}

	result := <-done
	assert.Equal(t, Completed, result.State)
}

func TestOrchestrator_NeedsPermissionGrantAddsToolThenRetries(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerOut: []ReviewerOutput{
		{Verdict: VerdictRequestChanges, Summary: "needs work"},
		{Verdict: VerdictApprove, Summary: "lgtm"},
	}}
	reviewee := &fakeAdapter{name: "claude", revieweeOut: []RevieweeOutput{
		{Status: RevieweeNeedsPermission, PermissionRequest: &PermissionRequest{Action: "Bash(npm publish:*)", Reason: "need to publish"}},
		{Status: RevieweeCompleted, Summary: "done"},
	}}
	cfg := baseConfig(t, reviewer, reviewee)

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	done := make(chan Result, 1)
	go func() { done <- o.Run(context.Background()) }()

	for {
		ev := <-o.Events()
		if ev.Kind == EventPermissionNeeded {
			break
		}
	}
	granted := true
	o.Commands() <- Command{PermissionGranted: &granted}

	result := <-done
	assert.Equal(t, Completed, result.State)

	sess, err := cfg.Store.LoadSession(cfg.Dir)
	require.NoError(t, err)
	assert.Contains(t, sess.GrantedTools, "Bash(npm publish:*)")
}

func TestOrchestrator_ReviewerErrorFails(t *testing.T) {
	reviewer := &fakeAdapter{name: "claude", reviewerErr: assertErr{}}
	cfg := baseConfig(t, reviewer, reviewer)

	o, err := New(cfg, store.Context{Repo: "acme/widgets", PRNumber: 7})
	require.NoError(t, err)

	result := o.Run(context.Background())
	assert.Equal(t, Failed, result.State)
	require.Error(t, result.Err)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestResume_RejectsTerminalSession(t *testing.T) {
	s := store.New(t.TempDir())
	dir, err := s.Dir("github", "acme/widgets", 9)
	require.NoError(t, err)
	require.NoError(t, s.SaveContext(dir, store.Context{Repo: "acme/widgets"}))
	require.NoError(t, s.SaveSession(dir, store.Session{State: Completed}))

	_, err = Resume(Config{Store: s, Dir: dir})
	require.Error(t, err)
}
