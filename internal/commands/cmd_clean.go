package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

type CleanCmd struct {
	flags *Flags
}

func NewCleanCmd(flags *Flags) *CleanCmd {
	return &CleanCmd{flags: flags}
}

func (cmd *CleanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "clean",
		Usage:     "Remove all stored rally sessions",
		UsageText: "octoreview clean",
		Description: `Deletes every rally session directory under the data directory's
rally/ tree, including session state, context, history, and agent logs.

Cached PR snapshots and pending review comments are not affected.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *CleanCmd) run(ctx context.Context, c *cli.Command) error {
	dir := filepath.Join(cmd.flags.DataDir, "rally")

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintln(c.Root().Writer, "no rally sessions to remove")
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove rally sessions: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "removed %s\n", dir)
	return nil
}
