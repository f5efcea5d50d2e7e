package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/reviewloop/octoreview/internal/data"
	"github.com/reviewloop/octoreview/internal/forge"
	"github.com/reviewloop/octoreview/internal/localdiff"
	"github.com/reviewloop/octoreview/internal/localindex"
	"github.com/reviewloop/octoreview/internal/rally"
	"github.com/reviewloop/octoreview/internal/rally/agent"
	rallystore "github.com/reviewloop/octoreview/internal/rally/store"
	"github.com/reviewloop/octoreview/internal/review"
	"github.com/reviewloop/octoreview/internal/tui"
	"github.com/reviewloop/octoreview/pkg/executil"
)

// RunCmd opens the review TUI. It is also registered as the root command's
// default action, the way colonyops-hive's TuiCmd doubles as `hive`'s
// no-subcommand action.
type RunCmd struct {
	flags *Flags

	repo      string
	number    int
	refresh   bool
	cacheTTL  int // seconds
	aiRally   bool
	workDir   string
	local     bool
	autoFocus bool
}

func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags, autoFocus: true}
}

// Flags returns the run-specific flags for registration on the root command.
func (cmd *RunCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "owner/repo (defaults to the current directory's remote)",
			Destination: &cmd.repo,
		},
		&cli.IntFlag{
			Name:        "pr",
			Usage:       "pull request number (required unless --local)",
			Destination: &cmd.number,
		},
		&cli.BoolFlag{
			Name:        "refresh",
			Usage:       "bypass the on-disk cache and refetch immediately",
			Destination: &cmd.refresh,
		},
		&cli.IntFlag{
			Name:        "cache-ttl",
			Usage:       "override the configured cache freshness window, in seconds",
			Destination: &cmd.cacheTTL,
		},
		&cli.BoolFlag{
			Name:        "ai-rally",
			Usage:       "drive a reviewer/reviewee agent rally against this PR",
			Destination: &cmd.aiRally,
		},
		&cli.StringFlag{
			Name:        "working-dir",
			Usage:       "repository working directory (defaults to the current directory)",
			Value:       ".",
			Destination: &cmd.workDir,
		},
		&cli.BoolFlag{
			Name:        "local",
			Usage:       "review uncommitted local changes instead of a remote pull request",
			Destination: &cmd.local,
		},
		&cli.BoolFlag{
			Name:        "auto-focus",
			Usage:       "jump the file list to the nearest changed file on load",
			Value:       true,
			Destination: &cmd.autoFocus,
		},
	}
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Open the review TUI",
		UsageText: "octoreview run [options]",
		Description: `Opens the interactive review terminal against a pull request (or, with
--local, uncommitted changes in the working tree).

Run 'octoreview' with no arguments for the same behavior.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Run executes the TUI. Exported for use as the root command's default action.
func (cmd *RunCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	exec := &executil.RealExecutor{}
	forgeClient := forge.NewClient(exec, cfg.ForgeBin)

	workDir := cmd.workDir
	if workDir == "" {
		workDir = "."
	}
	if abs, err := filepath.Abs(workDir); err == nil {
		workDir = abs
	}

	if !cmd.local && cmd.number == 0 {
		return fmt.Errorf("%w: --pr is required unless --local is set", ErrInvalidArgs)
	}

	if !cmd.local {
		if err := forgeClient.CheckAuth(ctx); err != nil {
			return fmt.Errorf("forge CLI not ready: %w", err)
		}
	}

	owner, repoName, err := cmd.resolveRepo(ctx, forgeClient)
	if err != nil && !cmd.local {
		return fmt.Errorf("resolve repository: %w", err)
	}

	ttl := cfg.Cache.TTL
	if cmd.cacheTTL > 0 {
		ttl = time.Duration(cmd.cacheTTL) * time.Second
	}

	key := reviewKey(owner, repoName, cmd.number)

	var loader *data.Loader[forge.PullRequest]
	if !cmd.local {
		cachePath := filepath.Join(cfg.DataDir, "cache", key+".json")
		loader = data.New(cachePath, ttl, func(ctx context.Context) (forge.PullRequest, error) {
			return forgeClient.FetchSnapshot(ctx, owner, repoName, cmd.number)
		})
	}

	commentsPath := filepath.Join(cfg.DataDir, "comments", key+".json")
	commentsStore := review.NewFileStore(commentsPath)

	var watcher *localdiff.Watcher
	var localChanged chan localdiff.Changed
	if cmd.local {
		watcher = localdiff.New(workDir, log.Logger)
		if watcher != nil {
			localChanged = make(chan localdiff.Changed, 1)
			go watcher.Run(ctx, localChanged)
		}
	}

	var orchestrator *rally.Orchestrator
	if cmd.aiRally {
		orchestrator, err = cmd.newOrchestrator(ctx, forgeClient, exec, owner, repoName, workDir)
		if err != nil {
			return fmt.Errorf("start rally: %w", err)
		}
		go orchestrator.Run(ctx)
	}

	cmd.recordHistory(ctx, forgeClient, owner, repoName)

	deps := tui.Deps{
		Config:       cfg,
		Forge:        forgeClient,
		Loader:       loader,
		Comments:     commentsStore,
		Watcher:      watcher,
		LocalChanged: localChanged,
		Exec:         exec,
		WorkingDir:   workDir,
		Rally:        orchestrator,
	}
	opts := tui.Opts{
		Owner:     owner,
		Repo:      repoName,
		Number:    cmd.number,
		Local:     cmd.local,
		AutoFocus: cmd.autoFocus && cfg.Diff.AutoFocus,
	}

	if cmd.refresh && loader != nil {
		loader.Refresh(ctx)
	}

	m := tui.New(deps, opts)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (cmd *RunCmd) resolveRepo(ctx context.Context, client *forge.Client) (owner, repo string, err error) {
	if cmd.repo != "" {
		parts := strings.SplitN(cmd.repo, "/", 2)
		if len(parts) != 2 {
			return "", "", fmt.Errorf("%w: --repo must be owner/repo, got %q", ErrInvalidArgs, cmd.repo)
		}
		return parts[0], parts[1], nil
	}
	return client.DetectRepo(ctx)
}

func reviewKey(owner, repo string, number int) string {
	return fmt.Sprintf("%s-%s-%d", owner, repo, number)
}

func (cmd *RunCmd) recordHistory(ctx context.Context, client *forge.Client, owner, repoName string) {
	if cmd.local {
		return
	}
	store, err := localindex.Open(filepath.Join(cmd.flags.DataDir, "history.db"))
	if err != nil {
		log.Warn().Err(err).Msg("history: failed to open store")
		return
	}
	defer store.Close()

	title := ""
	if pr, err := client.FetchPR(ctx, owner, repoName, cmd.number); err == nil {
		title = pr.Title
	}

	entry := localindex.Entry{
		Forge:      "github",
		Repo:       owner + "/" + repoName,
		PRNumber:   cmd.number,
		PRTitle:    title,
		ReviewedAt: time.Now(),
	}
	if err := store.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("history: failed to record entry")
	}
}

// newOrchestrator builds the rally Orchestrator for this run: picking the
// configured agent adapters, loading the PR context a fresh session starts
// from, and wiring a ContextRefresher appropriate to --local vs remote mode.
func (cmd *RunCmd) newOrchestrator(ctx context.Context, client *forge.Client, exec executil.Executor, owner, repoName, workDir string) (*rally.Orchestrator, error) {
	cfg := cmd.flags.Config

	reviewer, err := newAgentAdapter(cfg.AI.Reviewer, exec)
	if err != nil {
		return nil, fmt.Errorf("reviewer agent: %w", err)
	}
	reviewee, err := newAgentAdapter(cfg.AI.Reviewee, exec)
	if err != nil {
		return nil, fmt.Errorf("reviewee agent: %w", err)
	}

	store := rallystore.New(cfg.DataDir)
	dir, err := store.Dir("github", owner+"/"+repoName, cmd.number)
	if err != nil {
		return nil, fmt.Errorf("rally dir: %w", err)
	}

	prCtx := rallystore.Context{
		Forge:      "github",
		Repo:       owner + "/" + repoName,
		PRNumber:   cmd.number,
		WorkingDir: workDir,
		LocalMode:  cmd.local,
		CreatedAt:  time.Now(),
	}

	var refresher rally.ContextRefresher
	if cmd.local {
		refresher = localRefresher{exec: exec, dir: workDir}
		sha, diff, err := refresher.(localRefresher).refresh(ctx)
		if err == nil {
			prCtx.HeadSHA = sha
			_ = diff
		}
	} else {
		pr, err := client.FetchPR(ctx, owner, repoName, cmd.number)
		if err != nil {
			return nil, fmt.Errorf("fetch pr: %w", err)
		}
		prCtx.PRTitle = pr.Title
		prCtx.PRBody = pr.Body
		prCtx.HeadSHA = pr.HeadSHA
		prCtx.BaseBranch = pr.BaseRef
		refresher = forgeRefresher{client: client, owner: owner, repo: repoName, number: cmd.number}
	}

	reviewerTmpl := cmd.loadPromptTemplate("reviewer.tmpl", defaultReviewerPrompt)
	revieweeTmpl := cmd.loadPromptTemplate("reviewee.tmpl", defaultRevieweePrompt)

	return rally.New(rally.Config{
		Reviewer:               reviewer,
		Reviewee:               reviewee,
		Store:                  store,
		Dir:                    dir,
		Refresher:               refresher,
		ReviewerPromptTemplate: reviewerTmpl,
		RevieweePromptTemplate: revieweeTmpl,
		MaxIterations:          cfg.AI.MaxIterations,
		AgentTimeout:           time.Duration(cfg.AI.TimeoutSecs) * time.Second,
	}, prCtx)
}

func (cmd *RunCmd) loadPromptTemplate(name, fallback string) string {
	dir := cmd.flags.Config.AI.PromptDir
	if dir == "" {
		return fallback
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fallback
	}
	return string(data)
}

func newAgentAdapter(name string, exec executil.Executor) (agent.Adapter, error) {
	supported, err := agent.ParseSupported(name)
	if err != nil {
		return nil, err
	}
	switch supported {
	case agent.Claude:
		return agent.NewClaudeAdapter(exec), nil
	case agent.Codex:
		return agent.NewCodexAdapter(exec), nil
	default:
		return nil, fmt.Errorf("unsupported agent %q", name)
	}
}

// forgeRefresher refreshes rally context from the remote forge between
// iterations: a fresh diff plus the PR's current head SHA, in case the
// reviewee pushed new commits directly rather than editing the checkout
// octoreview is watching.
type forgeRefresher struct {
	client                *forge.Client
	owner, repo           string
	number                int
}

func (r forgeRefresher) RefreshDiff(ctx context.Context) (diff, headSHA string, err error) {
	pr, err := r.client.FetchPR(ctx, r.owner, r.repo, r.number)
	if err != nil {
		return "", "", err
	}
	diff, err = r.client.FetchDiff(ctx, r.owner, r.repo, r.number)
	if err != nil {
		return "", "", err
	}
	return diff, pr.HeadSHA, nil
}

// localRefresher refreshes rally context from the working tree in --local
// mode, where there is no remote PR to re-fetch.
type localRefresher struct {
	exec executil.Executor
	dir  string
}

func (r localRefresher) RefreshDiff(ctx context.Context) (diff, headSHA string, err error) {
	headSHA, diff, err = r.refresh(ctx)
	return diff, headSHA, err
}

func (r localRefresher) refresh(ctx context.Context) (headSHA, diff string, err error) {
	shaOut, err := r.exec.RunDir(ctx, r.dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", "", err
	}
	diffOut, err := r.exec.RunDir(ctx, r.dir, "git", "diff", "HEAD", "--no-color")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(string(shaOut)), string(diffOut), nil
}
