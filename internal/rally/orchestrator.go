package rally

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewloop/octoreview/internal/rally/agent"
	"github.com/reviewloop/octoreview/internal/rally/prompt"
	"github.com/reviewloop/octoreview/internal/rally/store"
)

// guaranteedKinds are never dropped from the event channel even when it is
// full: these are the events a caller must not silently miss, since each
// one either ends the rally or blocks it on human input.
var guaranteedKinds = map[EventKind]bool{
	EventClarificationNeeded: true,
	EventPermissionNeeded:    true,
	EventError:               true,
	EventApproved:            true,
}

// ContextRefresher supplies a fresh diff (and HEAD SHA, for local mode)
// between iterations, so the reviewer sees the reviewee's latest changes.
type ContextRefresher interface {
	RefreshDiff(ctx context.Context) (diff, headSHA string, err error)
}

// Config wires an Orchestrator to its two agents, its persistence, and the
// prompt templates rendered for each role.
type Config struct {
	Reviewer agent.Adapter
	Reviewee agent.Adapter

	Store     *store.Store
	Dir       string
	Refresher ContextRefresher

	ReviewerPromptTemplate string
	RevieweePromptTemplate string

	MaxIterations  int
	AgentTimeout   time.Duration
}

// Orchestrator drives one PR's rally to completion, persisting its state
// after every transition and fanning out progress events.
type Orchestrator struct {
	cfg Config
	ctx store.Context

	session store.Session
	events  chan Event
	cmds    chan Command

	liveDiff                   string
	pendingClarificationAnswer string
}

// New starts a fresh rally for prCtx, saving its immutable context.json.
func New(cfg Config, prCtx store.Context) (*Orchestrator, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 600 * time.Second
	}
	if err := cfg.Store.SaveContext(cfg.Dir, prCtx); err != nil {
		return nil, fmt.Errorf("rally: save context: %w", err)
	}
	o := &Orchestrator{
		cfg:     cfg,
		ctx:     prCtx,
		session: store.Session{State: Initializing, MaxIterations: cfg.MaxIterations},
		events:  make(chan Event, 256),
		cmds:    make(chan Command, 1),
	}
	return o, nil
}

// Resume re-enters a previously started rally. Per the session-store
// contract, resume always re-enters from the beginning of the persisted
// substate rather than any partial progress within it: an interrupted
// ReviewerReviewing or RevieweeFixing call is simply re-run from scratch.
func Resume(cfg Config) (*Orchestrator, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 600 * time.Second
	}
	prCtx, err := cfg.Store.LoadContext(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("rally: load context: %w", err)
	}
	sess, err := cfg.Store.LoadSession(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("rally: load session: %w", err)
	}
	// A resumed run that was mid-wait on the user re-enters that same wait;
	// anything else re-enters the substate fresh rather than completed work.
	if sess.State == Completed || sess.State == Failed {
		return nil, fmt.Errorf("rally: session already terminal (%s)", sess.State)
	}
	o := &Orchestrator{
		cfg:     cfg,
		ctx:     prCtx,
		session: sess,
		events:  make(chan Event, 256),
		cmds:    make(chan Command, 1),
	}
	return o, nil
}

// Events returns the channel progress and terminal events are fanned out
// on. Ordinary progress events are dropped if the consumer falls behind;
// guaranteedKinds are always delivered, blocking the orchestrator briefly
// if necessary.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Commands returns the channel the caller uses to answer a clarification
// question or grant/deny a permission request.
func (o *Orchestrator) Commands() chan<- Command { return o.cmds }

func (o *Orchestrator) emit(ev Event) {
	ev.State = o.session.State
	ev.Iteration = o.session.Iteration
	if guaranteedKinds[ev.Kind] {
		o.events <- ev
		return
	}
	select {
	case o.events <- ev:
	default:
	}
}

func (o *Orchestrator) save() error {
	return o.cfg.Store.SaveSession(o.cfg.Dir, o.session)
}

// Run executes the state machine to completion (Completed or Failed),
// saving session.json after every transition. It blocks on o.cmds whenever
// the rally reaches NeedsClarification or NeedsPermission.
func (o *Orchestrator) Run(ctx context.Context) Result {
	for o.session.State != Completed && o.session.State != Failed {
		var err error
		switch o.session.State {
		case Initializing:
			err = o.stepInitializing()
		case ReviewerReviewing:
			err = o.stepReviewerReviewing(ctx)
		case RevieweeFixing:
			err = o.stepRevieweeFixing(ctx)
		case NeedsClarification:
			err = o.stepNeedsClarification(ctx)
		case NeedsPermission:
			err = o.stepNeedsPermission(ctx)
		}
		if err != nil {
			o.fail(err)
		}
		if saveErr := o.save(); saveErr != nil {
			o.fail(fmt.Errorf("persist session: %w", saveErr))
			break
		}
	}
	return o.result()
}

func (o *Orchestrator) result() Result {
	r := Result{State: o.session.State, Iteration: o.session.Iteration}
	switch o.session.State {
	case Completed:
		if o.session.LastReviewer != nil {
			r.Summary = o.session.LastReviewer.Summary
		}
		r.Reason = o.session.FailureReason
	case Failed:
		r.Err = errors.New(o.session.FailureReason)
	}
	return r
}

func (o *Orchestrator) fail(err error) {
	o.session.State = Failed
	o.session.FailureReason = err.Error()
	o.emit(Event{Kind: EventError, Err: err})
}

func (o *Orchestrator) transition(to State) {
	o.session.State = to
	o.emit(Event{Kind: EventStateChanged})
}

func (o *Orchestrator) stepInitializing() error {
	o.transition(ReviewerReviewing)
	o.emit(Event{Kind: EventIterationStarted})
	return nil
}

func (o *Orchestrator) stepReviewerReviewing(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, o.cfg.AgentTimeout)
	defer cancel()

	vars := o.promptVars(nil)
	renderedPrompt := prompt.Render(o.cfg.ReviewerPromptTemplate, vars)

	out, err := o.cfg.Reviewer.RunReviewer(ctx, renderedPrompt, o.agentContext(), o.streamEmitter(PhaseReviewer))
	if err != nil {
		return fmt.Errorf("reviewer: %w", err)
	}
	o.session.LastReviewer = &out
	_ = o.cfg.Store.AppendHistory(o.cfg.Dir, store.HistoryEntry{
		Iteration: o.session.Iteration, Kind: "review", Recorded: time.Now().UTC(), Reviewer: &out,
	})
	o.emit(Event{Kind: EventReviewCompleted, Reviewer: &out})

	switch out.Verdict {
	case VerdictApprove:
		o.emit(Event{Kind: EventApproved})
		o.transition(Completed)
	case VerdictRequestChanges, VerdictComment:
		o.transition(RevieweeFixing)
	default:
		return fmt.Errorf("reviewer: unexpected verdict %q", out.Verdict)
	}
	return nil
}

func (o *Orchestrator) stepRevieweeFixing(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, o.cfg.AgentTimeout)
	defer cancel()

	vars := o.promptVars(o.session.LastReviewer)
	renderedPrompt := prompt.Render(o.cfg.RevieweePromptTemplate, vars)

	out, err := o.cfg.Reviewee.RunReviewee(ctx, renderedPrompt, o.agentContext(), o.session.GrantedTools, o.streamEmitter(PhaseReviewee))
	if err != nil {
		return fmt.Errorf("reviewee: %w", err)
	}
	o.session.LastReviewee = &out
	_ = o.cfg.Store.AppendHistory(o.cfg.Dir, store.HistoryEntry{
		Iteration: o.session.Iteration, Kind: "fix", Recorded: time.Now().UTC(), Reviewee: &out,
	})
	o.emit(Event{Kind: EventFixCompleted, Reviewee: &out})

	switch out.Status {
	case RevieweeCompleted:
		return o.advanceIteration(parent)
	case RevieweeNeedsClarification:
		o.session.PendingQuestion = out.Question
		o.emit(Event{Kind: EventClarificationNeeded, Question: out.Question})
		o.transition(NeedsClarification)
	case RevieweeNeedsPermission:
		o.session.PendingPermission = out.PermissionRequest
		o.emit(Event{Kind: EventPermissionNeeded, Request: out.PermissionRequest})
		o.transition(NeedsPermission)
	case RevieweeErrored:
		return fmt.Errorf("reviewee: %s", out.ErrorDetails)
	default:
		return fmt.Errorf("reviewee: unexpected status %q", out.Status)
	}
	return nil
}

// advanceIteration bumps the iteration counter, enforces max_iterations,
// and refreshes the working diff before returning to the reviewer.
func (o *Orchestrator) advanceIteration(ctx context.Context) error {
	o.session.Iteration++
	if o.session.Iteration >= o.session.MaxIterations {
		o.session.LastReviewer = &ReviewerOutput{Verdict: VerdictComment, Summary: "max iterations reached"}
		o.transition(Completed)
		return nil
	}
	if o.cfg.Refresher != nil {
		diff, headSHA, err := o.cfg.Refresher.RefreshDiff(ctx)
		if err != nil {
			return fmt.Errorf("refresh context: %w", err)
		}
		o.ctx.HeadSHA = headSHA
		_ = diff // folded into the next reviewer prompt via promptVars' live Diff field
		o.liveDiff = diff
	}
	o.emit(Event{Kind: EventIterationStarted})
	o.transition(ReviewerReviewing)
	return nil
}

func (o *Orchestrator) stepNeedsClarification(ctx context.Context) error {
	cmd, ok := o.awaitCommand(ctx)
	if !ok {
		return ctx.Err()
	}
	if cmd.Abort {
		return fmt.Errorf("aborted while awaiting clarification")
	}
	o.session.PendingQuestion = ""
	o.transition(RevieweeFixing)
	o.pendingClarificationAnswer = cmd.ClarificationResponse
	return nil
}

func (o *Orchestrator) stepNeedsPermission(ctx context.Context) error {
	cmd, ok := o.awaitCommand(ctx)
	if !ok {
		return ctx.Err()
	}
	if cmd.Abort {
		return fmt.Errorf("aborted while awaiting permission decision")
	}
	granted := cmd.PermissionGranted != nil && *cmd.PermissionGranted
	if granted && o.session.PendingPermission != nil {
		o.session.GrantedTools = append(o.session.GrantedTools, o.session.PendingPermission.Action)
	}
	o.session.PendingPermission = nil
	o.transition(RevieweeFixing)
	return nil
}

func (o *Orchestrator) awaitCommand(ctx context.Context) (Command, bool) {
	select {
	case cmd := <-o.cmds:
		return cmd, true
	case <-ctx.Done():
		return Command{}, false
	}
}

// agentContext projects the orchestrator's PR context plus any
// post-iteration diff refresh into the shape agent.Adapter expects.
func (o *Orchestrator) agentContext() agent.Context {
	return agent.Context{
		Repo:       o.ctx.Repo,
		PRNumber:   o.ctx.PRNumber,
		PRTitle:    o.ctx.PRTitle,
		PRBody:     o.ctx.PRBody,
		Diff:       o.currentDiff(),
		WorkingDir: o.ctx.WorkingDir,
		HeadSHA:    o.ctx.HeadSHA,
		BaseBranch: o.ctx.BaseBranch,
		LocalMode:  o.ctx.LocalMode,
	}
}

func (o *Orchestrator) currentDiff() string {
	if o.liveDiff != "" {
		return o.liveDiff
	}
	return ""
}

// promptVars renders the substitution set shared by both role templates;
// reviewerOut is nil on the first iteration, non-nil when rendering the
// reviewee's fix prompt from the reviewer's latest findings.
func (o *Orchestrator) promptVars(reviewerOut *ReviewerOutput) map[string]string {
	vars := map[string]string{
		"repo":          o.ctx.Repo,
		"pr_number":     fmt.Sprintf("%d", o.ctx.PRNumber),
		"pr_title":      o.ctx.PRTitle,
		"pr_body":       o.ctx.PRBody,
		"diff":          o.currentDiff(),
		"base_branch":   o.ctx.BaseBranch,
		"iteration":     fmt.Sprintf("%d", o.session.Iteration),
		"max_iterations": fmt.Sprintf("%d", o.session.MaxIterations),
	}
	if reviewerOut != nil {
		vars["reviewer_summary"] = reviewerOut.Summary
		vars["reviewer_comments"] = formatComments(reviewerOut.Comments)
		vars["blocking_issues"] = formatLines(reviewerOut.BlockingIssues)
	}
	if o.pendingClarificationAnswer != "" {
		vars["clarification_answer"] = o.pendingClarificationAnswer
		o.pendingClarificationAnswer = ""
	}
	return vars
}

func formatComments(comments []ReviewComment) string {
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, fmt.Sprintf("- [%s] %s:%d %s", c.Severity, c.Path, c.Line, c.Body))
	}
	return formatLines(lines)
}

func formatLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// streamEmitter adapts an agent.StreamEvent callback into an Event on this
// orchestrator's fan-out channel, tagging it with the originating phase.
func (o *Orchestrator) streamEmitter(phase Phase) func(agent.StreamEvent) {
	return func(ev agent.StreamEvent) {
		o.emit(Event{Phase: phase, Kind: streamKindToEventKind(ev.Kind), Text: ev.Text})
	}
}
