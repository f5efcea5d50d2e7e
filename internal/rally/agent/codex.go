package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/reviewloop/octoreview/pkg/executil"
)

// CodexAdapter drives the codex CLI's `exec --json` NDJSON stream. Unlike
// ClaudeAdapter it has no --allowedTools flag: the reviewer runs in codex's
// default read-only sandbox, the reviewee runs with --full-auto.
type CodexAdapter struct {
	exec executil.Executor

	mu              sync.Mutex
	reviewerSession string
	revieweeSession string
}

// NewCodexAdapter returns an Adapter backed by the codex CLI, run through exec.
func NewCodexAdapter(exec executil.Executor) *CodexAdapter {
	return &CodexAdapter{exec: exec}
}

func (a *CodexAdapter) Name() string { return "codex" }

func (a *CodexAdapter) RunReviewer(ctx context.Context, prompt string, pr Context, emit func(StreamEvent)) (ReviewerOutput, error) {
	res, err := a.runStreaming(ctx, prompt, reviewerSchema, false, pr.WorkingDir, emit)
	if err != nil {
		return ReviewerOutput{}, err
	}
	a.mu.Lock()
	a.reviewerSession = res.SessionID
	a.mu.Unlock()
	return parseReviewerOutput(res.Payload, a.Name())
}

// RunReviewee ignores allowedTools: codex has no per-tool allowlist, only
// the --full-auto sandbox toggle passed unconditionally here.
func (a *CodexAdapter) RunReviewee(ctx context.Context, prompt string, pr Context, _ []string, emit func(StreamEvent)) (RevieweeOutput, error) {
	res, err := a.runStreaming(ctx, prompt, revieweeSchema, true, pr.WorkingDir, emit)
	if err != nil {
		return RevieweeOutput{}, err
	}
	a.mu.Lock()
	a.revieweeSession = res.SessionID
	a.mu.Unlock()
	return parseRevieweeOutput(res.Payload, a.Name())
}

func (a *CodexAdapter) runStreaming(ctx context.Context, prompt, schema string, fullAuto bool, workingDir string, emit func(StreamEvent)) (finalResult, error) {
	schemaFile, err := os.CreateTemp("", "octoreview-codex-schema-*.json")
	if err != nil {
		return finalResult{}, fmt.Errorf("codex: create schema file: %w", err)
	}
	defer os.Remove(schemaFile.Name())
	if _, err := schemaFile.WriteString(schema); err != nil {
		schemaFile.Close()
		return finalResult{}, fmt.Errorf("codex: write schema file: %w", err)
	}
	schemaFile.Close()

	promptFile, err := os.CreateTemp("", "octoreview-codex-prompt-*.txt")
	if err != nil {
		return finalResult{}, fmt.Errorf("codex: create prompt file: %w", err)
	}
	defer os.Remove(promptFile.Name())
	if _, err := promptFile.WriteString(prompt); err != nil {
		promptFile.Close()
		return finalResult{}, fmt.Errorf("codex: write prompt file: %w", err)
	}
	promptFile.Close()

	args := []string{"exec", promptFile.Name(), "--json", "--output-schema", schemaFile.Name()}
	if fullAuto {
		args = append(args, "--full-auto")
	}

	pr, pw := io.Pipe()
	var final finalResult
	var scanErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		final, scanErr = scanCodexStream(pr, func(ev StreamEvent) {
			if emit != nil {
				emit(ev)
			}
		})
	}()

	var runErr error
	if workingDir != "" {
		args = append(args, "--cd", workingDir)
		runErr = a.exec.RunDirStream(ctx, workingDir, pw, io.Discard, "codex", args...)
	} else {
		runErr = a.exec.RunStream(ctx, pw, io.Discard, "codex", args...)
	}
	pw.Close()
	<-done

	if runErr != nil {
		if strings.Contains(strings.ToLower(runErr.Error()), "auth") {
			return finalResult{}, fmt.Errorf("codex: not authenticated: %w", runErr)
		}
		return finalResult{}, fmt.Errorf("codex: %w", runErr)
	}
	if scanErr != nil {
		return finalResult{}, fmt.Errorf("codex: reading stream: %w", scanErr)
	}
	if !final.found {
		return finalResult{}, fmt.Errorf("no result received from codex")
	}
	return final, nil
}
