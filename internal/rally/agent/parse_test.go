package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewerOutput_RequestChanges(t *testing.T) {
	payload := json.RawMessage(`{
		"action": "request_changes",
		"summary": "Found some issues",
		"comments": [{"path": "src/lib.go", "line": 42, "body": "use a constant", "severity": "suggestion"}],
		"blocking_issues": ["missing error handling"]
	}`)

	out, err := parseReviewerOutput(payload, "test")
	require.NoError(t, err)
	assert.Equal(t, VerdictRequestChanges, out.Verdict)
	assert.Len(t, out.Comments, 1)
	assert.Equal(t, SeveritySuggestion, out.Comments[0].Severity)
	assert.Equal(t, []string{"missing error handling"}, out.BlockingIssues)
}

func TestParseReviewerOutput_UnknownAction(t *testing.T) {
	payload := json.RawMessage(`{"action": "reject", "summary": "bad", "comments": [], "blocking_issues": []}`)
	_, err := parseReviewerOutput(payload, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reject")
}

func TestParseReviewerOutput_NoPayload(t *testing.T) {
	_, err := parseReviewerOutput(nil, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test")
}

func TestParseReviewerOutput_UnknownSeverityFallsBackToMinor(t *testing.T) {
	payload := json.RawMessage(`{
		"action": "comment", "summary": "review",
		"comments": [{"path": "a.go", "line": 1, "body": "x", "severity": "weird"}],
		"blocking_issues": []
	}`)
	out, err := parseReviewerOutput(payload, "test")
	require.NoError(t, err)
	assert.Equal(t, SeverityMinor, out.Comments[0].Severity)
}

func TestParseRevieweeOutput_NeedsPermission(t *testing.T) {
	payload := json.RawMessage(`{
		"status": "needs_permission",
		"summary": "need to run a command",
		"files_modified": [],
		"permission_request": {"action": "run npm install", "reason": "new dependency"}
	}`)
	out, err := parseRevieweeOutput(payload, "test")
	require.NoError(t, err)
	assert.Equal(t, RevieweeNeedsPermission, out.Status)
	require.NotNil(t, out.PermissionRequest)
	assert.Equal(t, "run npm install", out.PermissionRequest.Action)
}

func TestParseRevieweeOutput_UnknownStatus(t *testing.T) {
	payload := json.RawMessage(`{"status": "pending", "summary": "waiting", "files_modified": []}`)
	_, err := parseRevieweeOutput(payload, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending")
}

func TestParseSupported(t *testing.T) {
	got, err := ParseSupported("Claude")
	require.NoError(t, err)
	assert.Equal(t, Claude, got)

	_, err = ParseSupported("gemini")
	require.Error(t, err)
}
