package agent

import (
	"encoding/json"
	"fmt"
)

type rawReviewComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Body     string `json:"body"`
	Severity string `json:"severity"`
}

type rawReviewerOutput struct {
	Action         string              `json:"action"`
	Summary        string              `json:"summary"`
	Comments       []rawReviewComment  `json:"comments"`
	BlockingIssues []string            `json:"blocking_issues"`
}

type rawPermissionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type rawRevieweeOutput struct {
	Status            string                 `json:"status"`
	Summary           string                 `json:"summary"`
	FilesModified     []string               `json:"files_modified"`
	Question          string                 `json:"question"`
	PermissionRequest *rawPermissionRequest  `json:"permission_request"`
	ErrorDetails      string                 `json:"error_details"`
}

// parseReviewerOutput decodes a reviewer agent's structured JSON payload,
// used by every adapter since the schema is agent-agnostic.
func parseReviewerOutput(payload json.RawMessage, agentName string) (ReviewerOutput, error) {
	if len(payload) == 0 {
		return ReviewerOutput{}, fmt.Errorf("no result in %s response", agentName)
	}
	var raw rawReviewerOutput
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ReviewerOutput{}, fmt.Errorf("parse reviewer output: %w", err)
	}

	var verdict Verdict
	switch raw.Action {
	case "approve":
		verdict = VerdictApprove
	case "request_changes":
		verdict = VerdictRequestChanges
	case "comment":
		verdict = VerdictComment
	default:
		return ReviewerOutput{}, fmt.Errorf("unknown review action: %s", raw.Action)
	}

	comments := make([]ReviewComment, 0, len(raw.Comments))
	for _, c := range raw.Comments {
		comments = append(comments, ReviewComment{
			Path:     c.Path,
			Line:     c.Line,
			Body:     c.Body,
			Severity: severityFrom(c.Severity),
		})
	}

	return ReviewerOutput{
		Verdict:        verdict,
		Summary:        raw.Summary,
		Comments:       comments,
		BlockingIssues: raw.BlockingIssues,
	}, nil
}

func severityFrom(s string) Severity {
	switch s {
	case "critical":
		return SeverityCritical
	case "major":
		return SeverityMajor
	case "suggestion":
		return SeveritySuggestion
	default:
		return SeverityMinor
	}
}

// parseRevieweeOutput decodes a reviewee agent's structured JSON payload.
func parseRevieweeOutput(payload json.RawMessage, agentName string) (RevieweeOutput, error) {
	if len(payload) == 0 {
		return RevieweeOutput{}, fmt.Errorf("no result in %s response", agentName)
	}
	var raw rawRevieweeOutput
	if err := json.Unmarshal(payload, &raw); err != nil {
		return RevieweeOutput{}, fmt.Errorf("parse reviewee output: %w", err)
	}

	var status RevieweeStatus
	switch raw.Status {
	case "completed":
		status = RevieweeCompleted
	case "needs_clarification":
		status = RevieweeNeedsClarification
	case "needs_permission":
		status = RevieweeNeedsPermission
	case "error":
		status = RevieweeErrored
	default:
		return RevieweeOutput{}, fmt.Errorf("unknown reviewee status: %s", raw.Status)
	}

	var permReq *PermissionRequest
	if raw.PermissionRequest != nil {
		permReq = &PermissionRequest{
			Action: raw.PermissionRequest.Action,
			Reason: raw.PermissionRequest.Reason,
		}
	}

	return RevieweeOutput{
		Status:            status,
		Summary:           raw.Summary,
		FilesModified:     raw.FilesModified,
		Question:          raw.Question,
		PermissionRequest: permReq,
		ErrorDetails:      raw.ErrorDetails,
	}, nil
}
