package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/reviewloop/octoreview/internal/localindex"
)

type HistoryCmd struct {
	flags *Flags
}

func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List pull requests this tool has reviewed",
		UsageText: "octoreview history",
		Description: `Lists every pull request octoreview has opened a review session
against, most recently reviewed first, along with the last verdict (if
an ai-rally run concluded one).`,
		Action: cmd.run,
	})
	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	store, err := localindex.Open(filepath.Join(cmd.flags.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.Root().Writer, "no review history")
		return nil
	}

	out := c.Root().Writer
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PR\tTITLE\tVERDICT\tREVIEWED")

	for _, e := range entries {
		title := e.PRTitle
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		verdict := e.LastVerdict
		if verdict == "" {
			verdict = "-"
		}
		_, _ = fmt.Fprintf(w, "%s/%s#%d\t%s\t%s\t%s\n",
			e.Forge, e.Repo, e.PRNumber, title, verdict,
			e.ReviewedAt.Local().Format("2006-01-02 15:04"))
	}

	return w.Flush()
}
