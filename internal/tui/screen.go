// Package tui implements the view state machine: the screens a reviewer
// moves through, their focus/cursor/scroll state, and the glue that wires
// the async data layer, the diff render cache, and the rally orchestrator
// into a single Bubble Tea program.
package tui

// Screen tags which top-level view is active.
type Screen int

const (
	ScreenFileList Screen = iota
	ScreenSplit
	ScreenDiffFull
	ScreenCommentList
	ScreenInput
	ScreenHelp
	ScreenRally
	ScreenPRList
)

func (s Screen) String() string {
	switch s {
	case ScreenFileList:
		return "file-list"
	case ScreenSplit:
		return "split"
	case ScreenDiffFull:
		return "diff-full"
	case ScreenCommentList:
		return "comment-list"
	case ScreenInput:
		return "input"
	case ScreenHelp:
		return "help"
	case ScreenRally:
		return "rally"
	case ScreenPRList:
		return "pr-list"
	default:
		return "unknown"
	}
}

// SplitFocus is which panel has keyboard focus while ScreenSplit is active.
type SplitFocus int

const (
	FocusList SplitFocus = iota
	FocusDiff
)

// InputKind distinguishes what an ScreenInput session is composing.
type InputKind int

const (
	InputComment InputKind = iota
	InputSuggestion
	InputReply
)

func (k InputKind) String() string {
	switch k {
	case InputSuggestion:
		return "suggestion"
	case InputReply:
		return "reply"
	default:
		return "comment"
	}
}

// cursorState is the persisted cursor position and scroll offset for one
// screen. Screens keep their own slot so switching back and forth (e.g.
// FileList -> CommentList -> FileList) restores exactly where the reviewer
// left off, per spec.md §3's "Per-screen cursor positions, scroll offsets...
// persisted across transitions."
type cursorState struct {
	Cursor int
	Scroll int
}

// jumpTarget is one entry of the jump-history stack: enough to return to a
// previous screen at the exact cursor it was left at.
type jumpTarget struct {
	Screen Screen
	Focus  SplitFocus
	File   cursorState
	Diff   cursorState
}

// viewState holds every screen's persisted cursor/scroll plus the
// navigation stack used by "back" style moves (e.g. opening CommentList
// from the split view pushes the split view, and selecting a comment there
// moves the file list to that comment's file and pops back to it).
type viewState struct {
	screen Screen
	focus  SplitFocus

	fileList    cursorState
	diffPane    cursorState
	commentList cursorState

	history []jumpTarget
}

// goTo switches to screen, pushing the current position onto the jump
// history stack so Back can return to it.
func (v *viewState) goTo(screen Screen) {
	v.history = append(v.history, jumpTarget{
		Screen: v.screen,
		Focus:  v.focus,
		File:   v.fileList,
		Diff:   v.diffPane,
	})
	v.screen = screen
}

// back pops the jump history stack and restores the prior screen and
// cursor state. Reports false if the stack was empty (caller stays put).
func (v *viewState) back() bool {
	if len(v.history) == 0 {
		return false
	}
	last := v.history[len(v.history)-1]
	v.history = v.history[:len(v.history)-1]
	v.screen = last.Screen
	v.focus = last.Focus
	v.fileList = last.File
	v.diffPane = last.Diff
	return true
}
