package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/reviewloop/octoreview/internal/data"
	"github.com/reviewloop/octoreview/internal/forge"
	"github.com/reviewloop/octoreview/internal/localdiff"
	"github.com/reviewloop/octoreview/internal/rally"
	"github.com/reviewloop/octoreview/internal/review"
)

// prStateMsg carries a new data.State[forge.PullRequest] from the PR
// loader's subscription channel into the Bubble Tea event loop.
type prStateMsg struct {
	state data.State[forge.PullRequest]
}

// commentsLoadedMsg carries the review store's current comment list,
// requested after any mutation (add/update/delete/submit).
type commentsLoadedMsg struct {
	comments []review.Comment
	err      error
}

// prListPageMsg carries one page of forge.Summary rows for the PR picker.
type prListPageMsg struct {
	page  forge.ListPage
	reset bool
	err   error
}

// localChangedMsg wraps a localdiff.Changed debounced filesystem event.
type localChangedMsg struct {
	changed localdiff.Changed
}

// localSnapshotMsg carries a freshly rebuilt local-diff snapshot.
type localSnapshotMsg struct {
	snapshot localdiff.Snapshot
	err      error
}

// rallyEventMsg wraps one rally.Event fanned out by a running Orchestrator.
type rallyEventMsg struct {
	event rally.Event
}

// rallyResultMsg wraps the terminal rally.Result.
type rallyResultMsg struct {
	result rally.Result
}

// submitResultMsg reports the outcome of submitting a verdict + pending
// comments to the forge.
type submitResultMsg struct {
	err error
}

// errMsg wraps a generic background error for the status line.
type errMsg struct {
	err error
}

// waitForPRState returns a tea.Cmd that blocks on ch and wraps the next
// state as a prStateMsg — the Bubble Tea idiom for bridging a plain Go
// channel into the Update loop, one receive per Cmd invocation so the
// command is re-issued after each message to keep listening.
func waitForPRState(ch <-chan data.State[forge.PullRequest]) tea.Cmd {
	return func() tea.Msg {
		return prStateMsg{state: <-ch}
	}
}

func waitForLocalChanged(ch <-chan localdiff.Changed) tea.Cmd {
	return func() tea.Msg {
		return localChangedMsg{changed: <-ch}
	}
}

func waitForRallyEvent(ch <-chan rally.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return rallyEventMsg{event: ev}
	}
}
