// Package store persists rally sessions to disk: one directory per PR,
// holding the current session state, the immutable context it started
// from, an append-only history of each iteration, and raw agent logs.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/reviewloop/octoreview/internal/rally/agent"
)

// State is a rally session's place in the reviewer/reviewee state machine.
type State string

const (
	Initializing       State = "initializing"
	ReviewerReviewing  State = "reviewer_reviewing"
	RevieweeFixing     State = "reviewee_fixing"
	NeedsClarification State = "needs_clarification"
	NeedsPermission    State = "needs_permission"
	Completed          State = "completed"
	Failed             State = "failed"
)

// IsActive reports whether the state machine should keep running without
// external input.
func (s State) IsActive() bool {
	switch s {
	case Completed, Failed, NeedsClarification, NeedsPermission:
		return false
	default:
		return true
	}
}

func (s State) String() string { return string(s) }

// Phase identifies which agent role a log or prompt belongs to.
type Phase string

const (
	PhaseReviewer Phase = "reviewer"
	PhaseReviewee Phase = "reviewee"
)

// Session is the orchestrator's persisted state, rewritten atomically after
// every transition.
type Session struct {
	State             State                 `json:"state"`
	Iteration         int                   `json:"iteration"`
	MaxIterations     int                   `json:"max_iterations"`
	UpdatedAt         time.Time             `json:"updated_at"`
	LastReviewer      *agent.ReviewerOutput `json:"last_reviewer,omitempty"`
	LastReviewee      *agent.RevieweeOutput `json:"last_reviewee,omitempty"`
	PendingQuestion   string                `json:"pending_question,omitempty"`
	PendingPermission *agent.PermissionRequest `json:"pending_permission,omitempty"`
	FailureReason     string                `json:"failure_reason,omitempty"`
	GrantedTools      []string              `json:"granted_tools,omitempty"`
}

// Context is the immutable PR snapshot a rally started from. It is written
// once at Initializing and never rewritten, even across resumes.
type Context struct {
	Forge      string    `json:"forge"`
	Repo       string    `json:"repo"`
	PRNumber   int       `json:"pr_number"`
	PRTitle    string    `json:"pr_title"`
	PRBody     string    `json:"pr_body"`
	HeadSHA    string    `json:"head_sha"`
	BaseBranch string    `json:"base_branch"`
	WorkingDir string    `json:"working_dir"`
	LocalMode  bool      `json:"local_mode"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry is one recorded review or fix attempt.
type HistoryEntry struct {
	Iteration int             `json:"iteration"`
	Kind      string          `json:"kind"` // "review" or "fix"
	Recorded  time.Time       `json:"recorded_at"`
	Reviewer  *agent.ReviewerOutput `json:"reviewer,omitempty"`
	Reviewee  *agent.RevieweeOutput `json:"reviewee,omitempty"`
}

// Store roots every rally session under root/rally/.
type Store struct {
	root string
}

// New returns a Store rooted at root (typically the user's cache/state dir).
func New(root string) *Store {
	return &Store{root: root}
}

// Dir returns the directory for one PR's rally session, creating it if
// necessary: rally/{forge}+{repo}_{number}/.
func (s *Store) Dir(forge, repo string, number int) (string, error) {
	key := fmt.Sprintf("%s+%s_%d", sanitize(forge), sanitize(repo), number)
	dir := filepath.Join(s.root, "rally", key)
	if err := os.MkdirAll(filepath.Join(dir, "history"), 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}

// SaveSession atomically rewrites session.json.
func (s *Store) SaveSession(dir string, sess Session) error {
	sess.UpdatedAt = sess.UpdatedAt.UTC()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(dir, "session.json"), bytes.NewReader(data))
}

// LoadSession reads session.json, for resuming a previously started rally.
func (s *Store) LoadSession(dir string) (Session, error) {
	var sess Session
	data, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("parse session.json: %w", err)
	}
	return sess, nil
}

// SaveContext writes context.json exactly once; a second call on an
// existing file is a no-op, since the context is meant to be immutable for
// the life of the rally.
func (s *Store) SaveContext(dir string, ctx Context) error {
	path := filepath.Join(dir, "context.json")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	ctx.CreatedAt = ctx.CreatedAt.UTC()
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// LoadContext reads the immutable context.json.
func (s *Store) LoadContext(dir string) (Context, error) {
	var ctx Context
	data, err := os.ReadFile(filepath.Join(dir, "context.json"))
	if err != nil {
		return ctx, err
	}
	if err := json.Unmarshal(data, &ctx); err != nil {
		return ctx, fmt.Errorf("parse context.json: %w", err)
	}
	return ctx, nil
}

// AppendHistory writes history/{NNN}_{kind}.json, zero-padded to 3 digits.
func (s *Store) AppendHistory(dir string, entry HistoryEntry) error {
	entry.Recorded = entry.Recorded.UTC()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%03d_%s.json", entry.Iteration, entry.Kind)
	return atomic.WriteFile(filepath.Join(dir, "history", name), bytes.NewReader(data))
}

// History returns every recorded history entry, ordered by iteration then
// kind ("fix" after "review" within the same iteration).
func (s *Store) History(dir string) ([]HistoryEntry, error) {
	entries, err := os.ReadDir(filepath.Join(dir, "history"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]HistoryEntry, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, "history", name))
		if err != nil {
			return nil, err
		}
		var h HistoryEntry
		if err := json.Unmarshal(data, &h); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Iteration != out[j].Iteration {
			return out[i].Iteration < out[j].Iteration
		}
		return out[i].Kind == "review" && out[j].Kind != "review"
	})
	return out, nil
}

// LogPath returns the path agent stdout/stderr for one iteration+phase
// should be appended to: logs/{NNN}_{phase}.log.
func (s *Store) LogPath(dir string, iteration int, phase Phase) string {
	return filepath.Join(dir, "logs", fmt.Sprintf("%03d_%s.log", iteration, phase))
}

// AppendLog appends a line to the log file at path, creating it if absent.
func (s *Store) AppendLog(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// Exists reports whether a session directory already has a session.json,
// i.e. whether Resume should re-enter rather than Initializing start fresh.
func (s *Store) Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "session.json"))
	return err == nil
}
