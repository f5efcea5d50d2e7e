// Package agent defines the contract between the rally orchestrator and the
// external AI CLIs (claude, codex) that play the reviewer/reviewee roles,
// and implements adapters for each. It is a leaf package: it has no
// dependency on the orchestrator it serves, so the orchestrator and its
// session store can both depend on the output types defined here.
package agent

import (
	"context"
	"fmt"
	"strings"
)

// Context is the PR information handed to an agent invocation.
type Context struct {
	Repo             string
	PRNumber         int
	PRTitle          string
	PRBody           string
	Diff             string
	WorkingDir       string
	HeadSHA          string
	BaseBranch       string
	ExternalComments []ExternalComment
	LocalMode        bool
}

// ExternalComment is a comment left by a third-party bot (Copilot, CodeRabbit, ...).
type ExternalComment struct {
	Source string
	Path   string
	Line   int
	Body   string
}

// Severity classifies a reviewer-raised issue.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityMinor      Severity = "minor"
	SeveritySuggestion Severity = "suggestion"
)

// Verdict is the reviewer agent's disposition for the current iteration.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request_changes"
	VerdictComment        Verdict = "comment"
)

// ReviewComment is one issue raised by the reviewer agent.
type ReviewComment struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Body     string   `json:"body"`
	Severity Severity `json:"severity"`
}

// ReviewerOutput is the structured result of a reviewer agent invocation.
type ReviewerOutput struct {
	Verdict        Verdict         `json:"verdict"`
	Summary        string          `json:"summary"`
	Comments       []ReviewComment `json:"comments"`
	BlockingIssues []string        `json:"blocking_issues"`
}

// RevieweeStatus is the reviewee agent's disposition after attempting fixes.
type RevieweeStatus string

const (
	RevieweeCompleted          RevieweeStatus = "completed"
	RevieweeNeedsClarification RevieweeStatus = "needs_clarification"
	RevieweeNeedsPermission    RevieweeStatus = "needs_permission"
	RevieweeErrored            RevieweeStatus = "error"
)

// PermissionRequest is raised when the reviewee wants to use a tool outside
// its granted set.
type PermissionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// RevieweeOutput is the structured result of a reviewee agent invocation.
type RevieweeOutput struct {
	Status            RevieweeStatus      `json:"status"`
	Summary           string              `json:"summary"`
	FilesModified     []string            `json:"files_modified"`
	Question          string              `json:"question,omitempty"`
	PermissionRequest *PermissionRequest  `json:"permission_request,omitempty"`
	ErrorDetails      string              `json:"error_details,omitempty"`
}

// StreamKind tags the kind of progress an agent invocation is reporting
// mid-run, before its final structured result is available.
type StreamKind string

const (
	StreamThinking   StreamKind = "thinking"
	StreamText       StreamKind = "text"
	StreamToolUse    StreamKind = "tool_use"
	StreamToolResult StreamKind = "tool_result"
)

// StreamEvent is one line of progress emitted while an agent runs.
type StreamEvent struct {
	Kind StreamKind
	Text string
}

// Adapter runs a single external agent CLI as reviewer or reviewee.
// emit is called zero or more times per invocation with streaming progress;
// implementations must not block indefinitely on a slow emit.
type Adapter interface {
	Name() string
	RunReviewer(ctx context.Context, prompt string, pr Context, emit func(StreamEvent)) (ReviewerOutput, error)
	RunReviewee(ctx context.Context, prompt string, pr Context, allowedTools []string, emit func(StreamEvent)) (RevieweeOutput, error)
}

// Supported names an agent CLI this package can drive.
type Supported string

const (
	Claude Supported = "claude"
	Codex  Supported = "codex"
)

// ParseSupported normalizes a configured agent name, returning an error for
// anything this package cannot drive.
func ParseSupported(name string) (Supported, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "claude":
		return Claude, nil
	case "codex":
		return Codex, nil
	default:
		return "", fmt.Errorf("unsupported agent %q", name)
	}
}

// ReviewerAllowedTools is the fixed read-only tool grant for the reviewer
// role: it may read files and inspect the PR, never mutate anything.
var ReviewerAllowedTools = []string{
	"Read", "Glob", "Grep",
	"Bash(gh pr view:*)", "Bash(gh pr diff:*)", "Bash(gh pr checks:*)",
	"Bash(gh api --method GET:*)", "Bash(gh api -X GET:*)",
}

// RevieweeAllowedTools is the default reviewee grant: read, edit, and commit,
// but never push, force, reset, or checkout a remote by default. Push is
// withheld entirely rather than relying on prompt instruction, since the
// CLI's permission system can't distinguish --force from a plain invocation.
var RevieweeAllowedTools = []string{
	"Read", "Edit", "Write", "Glob", "Grep",
	"Bash(git status:*)", "Bash(git diff:*)", "Bash(git add:*)", "Bash(git commit:*)",
	"Bash(git log:*)", "Bash(git show:*)", "Bash(git branch:*)", "Bash(git switch:*)",
	"Bash(git stash:*)",
	"Bash(gh pr view:*)", "Bash(gh pr diff:*)", "Bash(gh pr checks:*)",
	"Bash(gh api --method GET:*)", "Bash(gh api -X GET:*)",
}
