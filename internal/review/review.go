// Package review holds locally authored review comments before (and after)
// they are submitted to the forge.
package review

import (
	"strings"
	"time"

	"github.com/reviewloop/octoreview/internal/forge"
)

// Comment is a review comment anchored to (path, side, line), either a
// pending (locally authored, not yet submitted) comment or a mirror of one
// already posted to the forge.
type Comment struct {
	ID        string
	ParentID  string
	Path      string
	Side      forge.Side
	Line      int
	RangeFrom int
	Body      string
	Author    string
	CreatedAt time.Time
	Pending   bool
}

// IsReply reports whether this comment is a threaded reply to another.
func (c Comment) IsReply() bool { return c.ParentID != "" }

// IsSuggestion reports whether the comment body is a multiline suggestion
// block (fenced as ```suggestion ... ```).
func (c Comment) IsSuggestion() bool {
	return strings.Contains(c.Body, "```suggestion")
}
