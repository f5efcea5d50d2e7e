package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/reviewloop/octoreview/pkg/executil"
)

// ClaudeAdapter drives the claude CLI in --output-format stream-json mode.
type ClaudeAdapter struct {
	exec executil.Executor

	mu               sync.Mutex
	reviewerSession  string
	revieweeSession  string
	extraAllowedTool []string
}

// NewClaudeAdapter returns an Adapter backed by the claude CLI, run through exec.
func NewClaudeAdapter(exec executil.Executor) *ClaudeAdapter {
	return &ClaudeAdapter{exec: exec}
}

func (a *ClaudeAdapter) Name() string { return "claude" }

// AddRevieweeAllowedTool grants an additional tool pattern for subsequent
// reviewee invocations, used after the user approves a permission request.
func (a *ClaudeAdapter) AddRevieweeAllowedTool(tool string) {
	a.mu.Lock()
	a.extraAllowedTool = append(a.extraAllowedTool, tool)
	a.mu.Unlock()
}

func (a *ClaudeAdapter) RunReviewer(ctx context.Context, prompt string, pr Context, emit func(StreamEvent)) (ReviewerOutput, error) {
	res, err := a.runStreaming(ctx, prompt, reviewerSchema, ReviewerAllowedTools, pr.WorkingDir, "", emit)
	if err != nil {
		return ReviewerOutput{}, err
	}
	a.mu.Lock()
	a.reviewerSession = res.SessionID
	a.mu.Unlock()
	return parseReviewerOutput(res.Payload, a.Name())
}

func (a *ClaudeAdapter) RunReviewee(ctx context.Context, prompt string, pr Context, allowedTools []string, emit func(StreamEvent)) (RevieweeOutput, error) {
	if allowedTools == nil {
		allowedTools = RevieweeAllowedTools
	}
	a.mu.Lock()
	allowedTools = append(append([]string{}, allowedTools...), a.extraAllowedTool...)
	a.mu.Unlock()

	res, err := a.runStreaming(ctx, prompt, revieweeSchema, allowedTools, pr.WorkingDir, "", emit)
	if err != nil {
		return RevieweeOutput{}, err
	}
	a.mu.Lock()
	a.revieweeSession = res.SessionID
	a.mu.Unlock()
	return parseRevieweeOutput(res.Payload, a.Name())
}

func (a *ClaudeAdapter) runStreaming(ctx context.Context, prompt, schema string, allowedTools []string, workingDir, resumeSession string, emit func(StreamEvent)) (finalResult, error) {
	args := []string{"-p", prompt, "--output-format", "stream-json", "--json-schema", schema, "--allowedTools", strings.Join(allowedTools, ",")}
	if resumeSession != "" {
		args = append(args, "--resume", resumeSession)
	}

	pr, pw := io.Pipe()
	var final finalResult
	var scanErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		final, scanErr = scanClaudeStream(pr, func(ev StreamEvent) {
			if emit != nil {
				emit(ev)
			}
		})
	}()

	var runErr error
	if workingDir != "" {
		runErr = a.exec.RunDirStream(ctx, workingDir, pw, io.Discard, "claude", args...)
	} else {
		runErr = a.exec.RunStream(ctx, pw, io.Discard, "claude", args...)
	}
	pw.Close()
	<-done

	if runErr != nil {
		return finalResult{}, fmt.Errorf("claude: %w", runErr)
	}
	if scanErr != nil {
		return finalResult{}, fmt.Errorf("claude: reading stream: %w", scanErr)
	}
	if !final.found {
		return finalResult{}, fmt.Errorf("no result received from claude")
	}
	return final, nil
}
