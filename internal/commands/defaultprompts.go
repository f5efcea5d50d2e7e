package commands

// defaultReviewerPrompt and defaultRevieweePrompt are written to
// <prompt_dir>/reviewer.tmpl and reviewee.tmpl by `octoreview init`. They
// use the literal {{var}} substitution implemented by internal/rally/prompt,
// not text/template.
const defaultReviewerPrompt = `You are reviewing pull request #{{pr_number}} in {{repo}}: "{{pr_title}}".

This is iteration {{iteration}} of {{max_iterations}}.

Pull request description:
{{pr_body}}

Diff against {{base_branch}}:
{{diff}}

Review the change for correctness, security, and maintainability. Reply with
a verdict of approve, request_changes, or comment, a short summary, and any
line-anchored comments you have. Be specific about what must change before
you would approve.
`

const defaultRevieweePrompt = `You are addressing reviewer feedback on pull request #{{pr_number}} in {{repo}}.

Reviewer summary:
{{reviewer_summary}}

Reviewer comments:
{{reviewer_comments}}

Blocking issues:
{{blocking_issues}}

Clarification answer (if any): {{clarification_answer}}

Make the changes needed to resolve the blocking issues, then report what you
changed. If you are missing information needed to proceed, ask a
clarifying question instead of guessing. If you need a tool outside your
granted set, request permission and explain why.
`
