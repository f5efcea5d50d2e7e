// Package forge talks to the remote code-forge by shelling out to an
// installed CLI client (the `gh` command) and parsing its JSON output. It
// never speaks HTTP directly.
package forge

import "time"

// ChangeKind is how a file differs between the PR's base and head.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
	Renamed  ChangeKind = "renamed"
)

// Side is which version of a file a review comment is anchored to.
type Side string

const (
	Left  Side = "LEFT"
	Right Side = "RIGHT"
)

// ChangedFile is one entry of a pull request's file list.
type ChangedFile struct {
	Path      string
	Kind      ChangeKind
	OldBlob   string
	NewBlob   string
	Additions int
	Deletions int
	Patch     string
}

// PullRequest is the snapshot of a PR fetched from the forge, identified by
// (Owner, Repo, Number).
type PullRequest struct {
	Owner         string
	Repo          string
	Number        int
	Title         string
	Body          string
	State         string
	Author        string
	HeadRef       string
	HeadSHA       string
	BaseRef       string
	Mergeable     bool
	IsDraft       bool
	Labels        []string
	UpdatedAt     time.Time
	ChangedFiles  []ChangedFile
}

// Summary is the lightweight row used by a PR list screen.
type Summary struct {
	Number    int
	Title     string
	State     string
	Author    string
	IsDraft   bool
	Labels    []string
	UpdatedAt time.Time
}

// ListPage is one page of a paginated PR list fetch.
type ListPage struct {
	Items   []Summary
	HasMore bool
}

// StateFilter narrows a PR list fetch.
type StateFilter string

const (
	StateOpen   StateFilter = "open"
	StateClosed StateFilter = "closed"
	StateMerged StateFilter = "merged"
	StateAll    StateFilter = "all"
)

// ReviewComment is an inline comment already posted to the forge.
type ReviewComment struct {
	ID        string
	ParentID  string
	Path      string
	Side      Side
	Line      int
	RangeFrom int // 0 if not a range comment
	Body      string
	Author    string
	CreatedAt time.Time
}

// DiscussionComment is a top-level (non-inline) PR comment.
type DiscussionComment struct {
	ID        string
	Body      string
	Author    string
	CreatedAt time.Time
}

// Review is a submitted verdict (approve / request changes / comment).
type Review struct {
	ID          string
	State       string
	Body        string
	Author      string
	SubmittedAt time.Time
}

// Verdict is what the reviewer decided when submitting a review.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request_changes"
	VerdictComment        Verdict = "comment"
)

// PendingComment is a locally authored inline comment not yet submitted.
type PendingComment struct {
	Path      string
	Side      Side
	Line      int
	RangeFrom int
	Body      string
}
