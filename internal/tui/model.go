package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/reviewloop/octoreview/internal/core/config"
	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/internal/data"
	"github.com/reviewloop/octoreview/internal/editor"
	"github.com/reviewloop/octoreview/internal/forge"
	"github.com/reviewloop/octoreview/internal/highlight"
	"github.com/reviewloop/octoreview/internal/localdiff"
	"github.com/reviewloop/octoreview/internal/rally"
	"github.com/reviewloop/octoreview/internal/review"
	"github.com/reviewloop/octoreview/pkg/executil"
)

// Deps are the dependencies the TUI needs but does not construct itself —
// assembled by internal/commands' default action, the way colonyops-hive's
// cmd_tui.go assembles a tui.Deps from its own *hive.App before calling
// tui.New.
type Deps struct {
	Config *config.Config

	Forge    *forge.Client
	Loader   *data.Loader[forge.PullRequest]
	Comments review.Store

	Watcher      *localdiff.Watcher
	LocalChanged chan localdiff.Changed
	Exec         executil.Executor
	WorkingDir   string

	Rally *rally.Orchestrator
}

// Opts are the run's invocation-specific parameters.
type Opts struct {
	Owner, Repo string
	Number      int
	Local       bool
	AutoFocus   bool
}

// Model is the top-level Bubble Tea model composing every screen.
type Model struct {
	deps Deps
	opts Opts

	width, height int

	view     viewState
	resolver resolver

	fileList    fileListModel
	diffPane    diffPaneModel
	commentList commentListModel
	input       inputModel
	help        helpModel
	rallyScreen rallyModel
	prList      prListModel

	pr       forge.PullRequest
	prLoaded bool
	loadErr  error

	pendingConfirm string
	pendingConfirmAction string

	status string

	quitting bool
}

// New builds the initial Model. It mirrors colonyops-hive's tui.New(deps,
// opts) entry point, wiring every sub-screen from cfg before the program
// starts.
func New(deps Deps, opts Opts) Model {
	cfg := deps.Config
	var hl highlight.Highlighter = highlight.Null{}
	if cfg.Diff.Highlighter == "chroma" {
		hl = highlight.NewChroma(highlight.DefaultPalette())
	}

	m := Model{
		deps:        deps,
		opts:        opts,
		resolver:    newResolver(cfg.Keybindings),
		fileList:    newFileList(),
		diffPane:    newDiffPane(hl, cfg.Diff.Theme),
		commentList: newCommentList(),
		input:       newInput(),
		prList:      newPRList(),
	}
	m.help = newHelp(m.resolver)
	m.view.screen = ScreenSplit
	return m
}

// Init starts the PR loader, the review-comment load, and — if configured —
// the local-diff watcher and rally orchestrator event pumps.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadComments(m.deps.Comments),
	}
	if m.deps.Loader != nil {
		cmds = append(cmds, waitForPRState(m.deps.Loader.Subscribe()))
		m.deps.Loader.Load(context.Background(), false)
	}
	if m.deps.Watcher != nil && m.deps.LocalChanged != nil {
		cmds = append(cmds, waitForLocalChanged(m.deps.LocalChanged))
	}
	if m.deps.Rally != nil {
		cmds = append(cmds, waitForRallyEvent(m.deps.Rally.Events()))
	}
	return tea.Batch(cmds...)
}

func loadComments(store review.Store) tea.Cmd {
	return func() tea.Msg {
		comments, err := store.List(context.Background())
		return commentsLoadedMsg{comments: comments, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case prStateMsg:
		return m.handlePRState(msg)
	case commentsLoadedMsg:
		return m.handleCommentsLoaded(msg)
	case prListPageMsg:
		return m.handlePRListPage(msg)
	case localChangedMsg:
		return m.handleLocalChanged(msg)
	case localSnapshotMsg:
		return m.handleLocalSnapshot(msg)
	case rallyEventMsg:
		return m.handleRallyEvent(msg)
	case rallyResultMsg:
		m.rallyScreen.SetResult(msg.result)
		return m, nil
	case submitResultMsg:
		if msg.err != nil {
			m.status = "submit failed: " + msg.err.Error()
		} else {
			m.status = "submitted"
		}
		return m, nil
	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	case editor.FinishedMsg:
		return m.handleEditorFinished(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	contentHeight := m.height - 4
	if contentHeight < 0 {
		contentHeight = 0
	}
	m.fileList.SetHeight(contentHeight)
	m.diffPane.SetHeight(contentHeight)
	m.commentList.SetHeight(contentHeight)
	m.prList.SetHeight(contentHeight)
	return m, nil
}

func (m Model) handlePRState(msg prStateMsg) (tea.Model, tea.Cmd) {
	var next tea.Cmd
	if m.deps.Loader != nil {
		next = waitForPRState(m.deps.Loader.Subscribe())
	}
	switch msg.state.Status {
	case data.Loaded:
		m.pr = msg.state.Snapshot
		m.prLoaded = true
		m.loadErr = nil
		m.fileList.SetFiles(m.pr.ChangedFiles)
		if m.opts.AutoFocus {
			m.syncSelectedDiff()
		} else if _, ok := m.fileList.Selected(); ok {
			m.syncSelectedDiff()
		}
	case data.Errored:
		m.loadErr = msg.state.Err
	}
	return m, next
}

func (m Model) handleCommentsLoaded(msg commentsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = msg.err.Error()
		return m, nil
	}
	m.commentList.SetComments(msg.comments)
	counts := map[string]int{}
	for _, c := range msg.comments {
		counts[c.Path]++
	}
	m.fileList.SetCommentCounts(counts)
	return m, nil
}

func (m Model) handlePRListPage(msg prListPageMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.prList.SetErr(msg.err)
		return m, nil
	}
	m.prList.SetPage(msg.page, msg.reset)
	return m, nil
}

func (m Model) handleLocalChanged(msg localChangedMsg) (tea.Model, tea.Cmd) {
	return m, tea.Batch(
		waitForLocalChanged(m.deps.LocalChanged),
		rebuildLocalSnapshot(m.deps.Exec, m.deps.WorkingDir),
	)
}

func (m Model) handleLocalSnapshot(msg localSnapshotMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = msg.err.Error()
		return m, nil
	}
	m.pr.ChangedFiles = msg.snapshot.Files
	m.fileList.SetFiles(m.pr.ChangedFiles)
	paths := make([]string, len(msg.snapshot.Files))
	for i, f := range msg.snapshot.Files {
		paths[i] = f.Path
	}
	m.fileList.AutoFocus(paths)
	m.syncSelectedDiff()
	return m, nil
}

func (m Model) handleRallyEvent(msg rallyEventMsg) (tea.Model, tea.Cmd) {
	m.rallyScreen.Apply(msg.event)
	return m, waitForRallyEvent(m.deps.Rally.Events())
}

// syncSelectedDiff rebuilds the diff pane for the currently selected file.
func (m *Model) syncSelectedDiff() {
	f, ok := m.fileList.Selected()
	if !ok {
		return
	}
	idx := -1
	for i, cf := range m.pr.ChangedFiles {
		if cf.Path == f.Path {
			idx = i
			break
		}
	}
	commentedOld, commentedNew := m.commentsForPath(f.Path)
	m.diffPane.SetFile(idx, f.Path, f.Patch, commentedOld, commentedNew)
}

func (m Model) commentsForPath(path string) (old, new map[int]bool) {
	old, new = map[int]bool{}, map[int]bool{}
	comments, _ := m.deps.Comments.List(context.Background())
	for _, c := range comments {
		if c.Path != path {
			continue
		}
		if c.Side == forge.Left {
			old[c.Line] = true
		} else {
			new[c.Line] = true
		}
	}
	return old, new
}

func rebuildLocalSnapshot(exec executil.Executor, dir string) tea.Cmd {
	return func() tea.Msg {
		snap, err := localdiff.BuildSnapshot(context.Background(), exec, dir)
		return localSnapshotMsg{snapshot: snap, err: err}
	}
}

func (m Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	header := m.renderHeader()
	var body string
	switch m.view.screen {
	case ScreenHelp:
		body = m.help.View(m.width)
	case ScreenCommentList:
		body = m.commentList.View(m.width)
	case ScreenInput:
		body = m.input.View(m.width, m.height-4)
	case ScreenRally:
		body = m.rallyScreen.View(m.width, m.height-4)
	case ScreenPRList:
		body = m.prList.View(m.width)
	case ScreenDiffFull:
		body = m.diffPane.View(m.width)
	default:
		body = m.renderSplit()
	}

	footer := styles.HelpStyle.Render(m.status)
	content := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return tea.NewView(content)
}

func (m Model) renderHeader() string {
	if !m.prLoaded {
		if m.loadErr != nil {
			return styles.ErrorStyle.Render("load failed: " + m.loadErr.Error())
		}
		return styles.HelpStyle.Render("loading…")
	}
	return styles.HeaderStyle.Render(fmt.Sprintf("#%d %s (%s → %s)", m.pr.Number, m.pr.Title, m.pr.HeadRef, m.pr.BaseRef))
}

func (m Model) renderSplit() string {
	listWidth := m.width / 3
	if listWidth < 20 {
		listWidth = 20
	}
	left := m.fileList.View(listWidth, m.view.focus == FocusList)
	right := m.diffPane.View(m.width - listWidth - 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.pendingConfirm != "" {
		return m.handleConfirmKey(key)
	}

	if m.view.screen == ScreenInput {
		return m.handleInputKey(msg, key)
	}

	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if !m.view.back() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case "?":
		m.view.goTo(ScreenHelp)
		return m, nil
	case "C":
		m.view.goTo(ScreenCommentList)
		return m, nil
	case "R":
		if m.deps.Rally != nil {
			m.view.goTo(ScreenRally)
		}
		return m, nil
	case "P":
		m.view.goTo(ScreenPRList)
		return m, tea.Batch(fetchPRPage(m.deps.Forge, m.opts, m.prList.State(), 0, true))
	case "f":
		if m.view.screen == ScreenDiffFull {
			m.view.back()
		} else {
			m.view.goTo(ScreenDiffFull)
		}
		return m, nil
	case "r":
		if m.deps.Loader != nil {
			m.deps.Loader.Refresh(context.Background())
		}
		return m, nil
	case "tab":
		if m.view.screen == ScreenSplit {
			if m.view.focus == FocusList {
				m.view.focus = FocusDiff
			} else {
				m.view.focus = FocusList
			}
			return m, nil
		}
	}

	switch m.view.screen {
	case ScreenCommentList:
		return m.handleCommentListKey(key)
	case ScreenRally:
		return m.handleRallyKey(key)
	case ScreenPRList:
		return m.handlePRListKey(key)
	default:
		return m.handleSplitKey(key)
	}
}

func (m Model) handlePRListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.prList.Move(1)
		if m.prList.NeedsMore() {
			return m, fetchPRPage(m.deps.Forge, m.opts, m.prList.State(), m.prList.Offset(), false)
		}
	case "k", "up":
		m.prList.Move(-1)
	case "tab":
		state := m.prList.CycleState()
		return m, fetchPRPage(m.deps.Forge, m.opts, state, 0, true)
	case "enter":
		pr, ok := m.prList.Selected()
		if !ok {
			return m, nil
		}
		m.opts.Number = pr.Number
		m.view.back()
		return m, fetchSnapshot(m.deps.Forge, m.opts)
	}
	return m, nil
}

func fetchPRPage(client *forge.Client, opts Opts, state forge.StateFilter, offset int, reset bool) tea.Cmd {
	return func() tea.Msg {
		page, err := client.FetchList(context.Background(), opts.Owner, opts.Repo, state, 20, offset)
		return prListPageMsg{page: page, reset: reset, err: err}
	}
}

func fetchSnapshot(client *forge.Client, opts Opts) tea.Cmd {
	return func() tea.Msg {
		pr, err := client.FetchSnapshot(context.Background(), opts.Owner, opts.Repo, opts.Number)
		if err != nil {
			return prStateMsg{state: data.State[forge.PullRequest]{Status: data.Errored, Err: err}}
		}
		return prStateMsg{state: data.State[forge.PullRequest]{Status: data.Loaded, Snapshot: pr}}
	}
}

func (m Model) handleSplitKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if m.view.focus == FocusList {
			m.fileList.Move(1)
			m.syncSelectedDiff()
		} else {
			m.diffPane.Move(1)
		}
		return m, nil
	case "k", "up":
		if m.view.focus == FocusList {
			m.fileList.Move(-1)
			m.syncSelectedDiff()
		} else {
			m.diffPane.Move(-1)
		}
		return m, nil
	case "g":
		if m.view.focus == FocusDiff {
			m.diffPane.Move(-m.diffPane.rowCount())
		} else {
			m.fileList.MoveTo(0)
			m.syncSelectedDiff()
		}
		return m, nil
	case "G":
		if m.view.focus == FocusDiff {
			m.diffPane.Move(m.diffPane.rowCount())
		} else {
			m.fileList.MoveTo(len(m.fileList.files) - 1)
			m.syncSelectedDiff()
		}
		return m, nil
	case "enter":
		if m.view.focus == FocusList {
			m.view.focus = FocusDiff
		}
		return m, nil
	case "c":
		return m.openCommentInput(InputComment)
	case "s":
		return m.openCommentInput(InputSuggestion)
	}

	if action, confirm := m.resolver.lookup(key); action != "" {
		return m.dispatchAction(action, confirm)
	}
	return m, nil
}

// ErrLocalModeUnsupported is returned when a comment or verdict-submission
// command is attempted while reviewing a local working-tree diff, which has
// no forge pull request to attach the comment or review to.
var ErrLocalModeUnsupported = errors.New("unsupported in local mode")

func (m Model) openCommentInput(kind InputKind) (tea.Model, tea.Cmd) {
	if m.opts.Local {
		m.status = ErrLocalModeUnsupported.Error()
		return m, nil
	}
	f, ok := m.fileList.Selected()
	if !ok {
		return m, nil
	}
	_, newLine, ok := m.diffPane.CurrentLine()
	if !ok {
		return m, nil
	}
	m.input.Open(kind, f.Path, forge.Right, newLine, "")
	m.view.goTo(ScreenInput)
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.view.back()
		return m, nil
	case "ctrl+e":
		cmd := m.input.OpenEditor(resolveEditor(m.deps.Config), os.TempDir())
		return m, cmd
	case "ctrl+s", "enter":
		if key == "enter" {
			break
		}
		return m.submitInput()
	}
	cmd := m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEditorFinished(msg editor.FinishedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = msg.Err.Error()
		return m, nil
	}
	body, err := editor.ReadBody(msg.Path)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.input.area.SetValue(body)
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	if m.opts.Local {
		m.view.back()
		return m, func() tea.Msg { return commentsLoadedMsg{err: ErrLocalModeUnsupported} }
	}
	pc := m.input.pendingForgeComment()
	store := m.deps.Comments
	m.view.back()
	return m, func() tea.Msg {
		_, err := store.Add(context.Background(), review.Comment{
			Path:      pc.Path,
			Side:      pc.Side,
			Line:      pc.Line,
			RangeFrom: pc.RangeFrom,
			Body:      pc.Body,
			Pending:   true,
		})
		comments, _ := store.List(context.Background())
		return commentsLoadedMsg{comments: comments, err: err}
	}
}

func (m Model) handleCommentListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		m.commentList.Move(1)
	case "k", "up":
		m.commentList.Move(-1)
	case "enter":
		if c, ok := m.commentList.Selected(); ok {
			m.fileList.MoveTo(indexOfPath(m.fileList.files, c.Path))
			m.syncSelectedDiff()
			m.view.back()
		}
	}
	return m, nil
}

func (m Model) handleRallyKey(key string) (tea.Model, tea.Cmd) {
	clarify, permission := m.rallyScreen.AwaitingInput()
	switch key {
	case "y":
		if permission {
			granted := true
			m.deps.Rally.Commands() <- rally.Command{PermissionGranted: &granted}
			m.rallyScreen.ClearPermission()
		}
	case "n":
		if permission {
			denied := false
			m.deps.Rally.Commands() <- rally.Command{PermissionGranted: &denied}
			m.rallyScreen.ClearPermission()
		}
	case "enter":
		if clarify {
			m.deps.Rally.Commands() <- rally.Command{ClarificationResponse: m.input.Body()}
			m.rallyScreen.ClearClarification()
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "enter":
		action := m.pendingConfirmAction
		m.pendingConfirm = ""
		m.pendingConfirmAction = ""
		return m.runAction(action)
	default:
		m.pendingConfirm = ""
		m.pendingConfirmAction = ""
		return m, nil
	}
}

func (m Model) dispatchAction(action, confirm string) (tea.Model, tea.Cmd) {
	if confirm != "" {
		m.pendingConfirm = confirm
		m.pendingConfirmAction = action
		return m, nil
	}
	return m.runAction(action)
}

func (m Model) runAction(action string) (tea.Model, tea.Cmd) {
	switch action {
	case config.ActionApprove:
		return m, m.submitVerdict(forge.VerdictApprove)
	case config.ActionRequestChange:
		return m, m.submitVerdict(forge.VerdictRequestChanges)
	case config.ActionComment:
		return m.openCommentInput(InputComment)
	case config.ActionNextFile:
		m.fileList.Move(1)
		m.syncSelectedDiff()
		return m, nil
	case config.ActionPrevFile:
		m.fileList.Move(-1)
		m.syncSelectedDiff()
		return m, nil
	}
	return m, nil
}

func (m Model) submitVerdict(v forge.Verdict) tea.Cmd {
	if m.opts.Local {
		return func() tea.Msg { return submitResultMsg{err: ErrLocalModeUnsupported} }
	}
	owner, repo, number := m.pr.Owner, m.pr.Repo, m.pr.Number
	client := m.deps.Forge
	store := m.deps.Comments
	return func() tea.Msg {
		ctx := context.Background()
		comments, err := store.List(ctx)
		if err != nil {
			return submitResultMsg{err: err}
		}
		for _, c := range comments {
			if !c.Pending {
				continue
			}
			var postErr error
			if c.IsReply() {
				postErr = client.CreateReplyComment(ctx, owner, repo, number, c.ParentID, c.Body)
			} else {
				postErr = client.CreateReviewComment(ctx, owner, repo, number, forge.PendingComment{
					Path: c.Path, Side: c.Side, Line: c.Line, RangeFrom: c.RangeFrom, Body: c.Body,
				}, m.pr.HeadSHA)
			}
			if postErr != nil {
				return submitResultMsg{err: postErr}
			}
		}
		if err := client.SubmitReview(ctx, owner, repo, number, v, ""); err != nil {
			return submitResultMsg{err: err}
		}
		if err := store.Clear(ctx); err != nil {
			return submitResultMsg{err: err}
		}
		return submitResultMsg{err: nil}
	}
}

func indexOfPath(files []forge.ChangedFile, path string) int {
	for i, f := range files {
		if f.Path == path {
			return i
		}
	}
	return 0
}
