package agent

// reviewerSchema constrains a reviewer agent's structured output to the
// shape parseReviewerOutput expects.
const reviewerSchema = `{
  "type": "object",
  "required": ["action", "summary", "comments", "blocking_issues"],
  "properties": {
    "action": {"type": "string", "enum": ["approve", "request_changes", "comment"]},
    "summary": {"type": "string"},
    "comments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "line", "body", "severity"],
        "properties": {
          "path": {"type": "string"},
          "line": {"type": "integer"},
          "body": {"type": "string"},
          "severity": {"type": "string", "enum": ["critical", "major", "minor", "suggestion"]}
        }
      }
    },
    "blocking_issues": {"type": "array", "items": {"type": "string"}}
  }
}`

// revieweeSchema constrains a reviewee agent's structured output to the
// shape parseRevieweeOutput expects.
const revieweeSchema = `{
  "type": "object",
  "required": ["status", "summary", "files_modified"],
  "properties": {
    "status": {"type": "string", "enum": ["completed", "needs_clarification", "needs_permission", "error"]},
    "summary": {"type": "string"},
    "files_modified": {"type": "array", "items": {"type": "string"}},
    "question": {"type": "string"},
    "permission_request": {
      "type": "object",
      "properties": {
        "action": {"type": "string"},
        "reason": {"type": "string"}
      }
    },
    "error_details": {"type": "string"}
  }
}`
