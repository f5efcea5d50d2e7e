package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reviewloop/octoreview/pkg/executil"
)

// ErrNotFound is returned when the forge CLI exits non-zero with a
// recognizable "not found" signature (e.g. "Could not resolve to a...").
var ErrNotFound = errors.New("forge: not found")

// ErrNotAuthenticated is returned when the forge CLI reports it has no
// valid credentials.
var ErrNotAuthenticated = errors.New("forge: not authenticated")

// Client shells out to the `gh` CLI for every forge operation. It never
// speaks HTTP directly.
type Client struct {
	exec executil.Executor
	bin  string
}

// NewClient returns a Client that invokes bin (normally "gh") via exec.
func NewClient(exec executil.Executor, bin string) *Client {
	if bin == "" {
		bin = "gh"
	}
	return &Client{exec: exec, bin: bin}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := c.exec.Run(ctx, c.bin, args...)
	if err != nil {
		msg := strings.ToLower(string(out))
		switch {
		case strings.Contains(msg, "could not resolve to a") || strings.Contains(msg, "not found"):
			return out, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(string(out)))
		case strings.Contains(msg, "auth") && (strings.Contains(msg, "login") || strings.Contains(msg, "required")):
			return out, fmt.Errorf("%w: %s", ErrNotAuthenticated, strings.TrimSpace(string(out)))
		default:
			return out, fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
		}
	}
	return out, nil
}

// CheckAuth verifies the forge CLI is installed and authenticated, so a
// caller can fail fast before opening the TUI rather than surfacing an
// opaque subprocess error mid-session.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.run(ctx, "auth", "status")
	return err
}

// DetectRepo shells out to `gh repo view` to find the owner/repo of the
// repository rooted at the current working directory.
func (c *Client) DetectRepo(ctx context.Context) (owner, repo string, err error) {
	out, err := c.run(ctx, "repo", "view", "--json", "nameWithOwner", "-q", ".nameWithOwner")
	if err != nil {
		return "", "", err
	}
	full := strings.TrimSpace(string(out))
	parts := strings.SplitN(full, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("forge: unexpected repo format %q", full)
	}
	return parts[0], parts[1], nil
}

type prJSON struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	State       string `json:"state"`
	Mergeable   string `json:"mergeable"`
	IsDraft     bool   `json:"isDraft"`
	HeadRefName string `json:"headRefName"`
	HeadRefOid  string `json:"headRefOid"`
	BaseRefName string `json:"baseRefName"`
	UpdatedAt   string `json:"updatedAt"`
	Author      struct {
		Login string `json:"login"`
	} `json:"author"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

var prFields = "number,title,body,state,mergeable,isDraft,headRefName,headRefOid,baseRefName,updatedAt,author,labels"

// FetchPR retrieves a single pull request's metadata (without its changed
// files, fetched separately by FetchChangedFiles).
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	out, err := c.run(ctx, "pr", "view", strconv.Itoa(number), "-R", owner+"/"+repo, "--json", prFields)
	if err != nil {
		return PullRequest{}, err
	}

	var raw prJSON
	if err := json.Unmarshal(out, &raw); err != nil {
		return PullRequest{}, fmt.Errorf("forge: parse pr view: %w", err)
	}

	labels := make([]string, 0, len(raw.Labels))
	for _, l := range raw.Labels {
		labels = append(labels, l.Name)
	}

	return PullRequest{
		Owner:     owner,
		Repo:      repo,
		Number:    raw.Number,
		Title:     raw.Title,
		Body:      raw.Body,
		State:     raw.State,
		Author:    raw.Author.Login,
		HeadRef:   raw.HeadRefName,
		HeadSHA:   raw.HeadRefOid,
		BaseRef:   raw.BaseRefName,
		Mergeable: strings.EqualFold(raw.Mergeable, "MERGEABLE"),
		IsDraft:   raw.IsDraft,
		Labels:    labels,
	}, nil
}

type changedFileJSON struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
	BlobURL   string `json:"blob_url"`
	SHA       string `json:"sha"`
}

// FetchChangedFiles retrieves every file changed by the PR via the paginated
// REST API (`gh api --paginate --slurp`), so a long file list never gets
// silently truncated to one page.
func (c *Client) FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/files", owner, repo, number)
	out, err := c.run(ctx, "api", endpoint, "--paginate", "--slurp")
	if err != nil {
		return nil, err
	}

	var pages [][]changedFileJSON
	if err := json.Unmarshal(out, &pages); err != nil {
		return nil, fmt.Errorf("forge: parse pr files: %w", err)
	}

	var files []ChangedFile
	for _, page := range pages {
		for _, f := range page {
			files = append(files, ChangedFile{
				Path:      f.Filename,
				Kind:      changeKindFromStatus(f.Status),
				NewBlob:   f.SHA,
				Additions: f.Additions,
				Deletions: f.Deletions,
				Patch:     f.Patch,
			})
		}
	}
	return files, nil
}

// FetchSnapshot joins FetchPR and FetchChangedFiles into one PullRequest
// with ChangedFiles populated, shaped for use as a data.FetchFunc[PullRequest].
func (c *Client) FetchSnapshot(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	pr, err := c.FetchPR(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, err
	}
	files, err := c.FetchChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, err
	}
	pr.ChangedFiles = files
	return pr, nil
}

func changeKindFromStatus(status string) ChangeKind {
	switch status {
	case "added":
		return Added
	case "removed":
		return Deleted
	case "renamed":
		return Renamed
	default:
		return Modified
	}
}

// FetchDiff retrieves the PR's unified diff as a single string via
// `gh pr diff`.
func (c *Client) FetchDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	out, err := c.run(ctx, "pr", "diff", strconv.Itoa(number), "-R", owner+"/"+repo)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FetchList retrieves a page of pull request summaries.
func (c *Client) FetchList(ctx context.Context, owner, repo string, state StateFilter, limit, offset int) (ListPage, error) {
	args := []string{"pr", "list", "-R", owner + "/" + repo,
		"--json", "number,title,state,author,isDraft,labels,updatedAt",
		"--limit", strconv.Itoa(limit + offset)}
	if state != "" && state != StateAll {
		args = append(args, "--state", string(state))
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return ListPage{}, err
	}

	var raw []prJSON
	if err := json.Unmarshal(out, &raw); err != nil {
		return ListPage{}, fmt.Errorf("forge: parse pr list: %w", err)
	}

	if offset > len(raw) {
		offset = len(raw)
	}
	window := raw[offset:]
	hasMore := len(window) > limit
	if hasMore {
		window = window[:limit]
	}

	items := make([]Summary, 0, len(window))
	for _, r := range window {
		labels := make([]string, 0, len(r.Labels))
		for _, l := range r.Labels {
			labels = append(labels, l.Name)
		}
		items = append(items, Summary{
			Number:  r.Number,
			Title:   r.Title,
			State:   r.State,
			Author:  r.Author.Login,
			IsDraft: r.IsDraft,
			Labels:  labels,
		})
	}

	return ListPage{Items: items, HasMore: hasMore}, nil
}

type reviewCommentJSON struct {
	ID        int64  `json:"id"`
	InReplyTo int64  `json:"in_reply_to_id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	StartLine int    `json:"start_line"`
	Side      string `json:"side"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

// FetchReviewComments retrieves every inline review comment on the PR.
func (c *Client) FetchReviewComments(ctx context.Context, owner, repo string, number int) ([]ReviewComment, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/comments", owner, repo, number)
	out, err := c.run(ctx, "api", endpoint, "--paginate", "--slurp")
	if err != nil {
		return nil, err
	}

	var pages [][]reviewCommentJSON
	if err := json.Unmarshal(out, &pages); err != nil {
		return nil, fmt.Errorf("forge: parse review comments: %w", err)
	}

	var comments []ReviewComment
	for _, page := range pages {
		for _, rc := range page {
			side := Right
			if rc.Side == "LEFT" {
				side = Left
			}
			comments = append(comments, ReviewComment{
				ID:        strconv.FormatInt(rc.ID, 10),
				ParentID:  nonZeroID(rc.InReplyTo),
				Path:      rc.Path,
				Side:      side,
				Line:      rc.Line,
				RangeFrom: rc.StartLine,
				Body:      rc.Body,
				Author:    rc.User.Login,
			})
		}
	}
	return comments, nil
}

func nonZeroID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// SubmitReview posts a review verdict and body via `gh pr review`. Inline
// comments are not part of this call; each one is posted separately with
// CreateReviewComment.
func (c *Client) SubmitReview(ctx context.Context, owner, repo string, number int, verdict Verdict, body string) error {
	args := []string{"pr", "review", strconv.Itoa(number), "-R", owner + "/" + repo, "-b", body}
	switch verdict {
	case VerdictApprove:
		args = append(args, "--approve")
	case VerdictRequestChanges:
		args = append(args, "--request-changes")
	default:
		args = append(args, "--comment")
	}
	_, err := c.run(ctx, args...)
	return err
}

// CreateReviewComment posts a single inline review comment anchored to a
// commit SHA, path, and line.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, pc PendingComment, commitSHA string) error {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/comments", owner, repo, number)
	args := []string{"api", endpoint, "--method", "POST",
		"-f", "body=" + pc.Body,
		"-f", "commit_id=" + commitSHA,
		"-f", "path=" + pc.Path,
		"-F", "line=" + strconv.Itoa(pc.Line),
		"-f", "side=" + string(pc.Side),
	}
	_, err := c.run(ctx, args...)
	return err
}

// CreateReplyComment posts a threaded reply to an existing review comment.
func (c *Client) CreateReplyComment(ctx context.Context, owner, repo string, number int, parentID, body string) error {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/comments/%s/replies", owner, repo, number, parentID)
	args := []string{"api", endpoint, "--method", "POST", "-f", "body=" + body}
	_, err := c.run(ctx, args...)
	return err
}
