package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/reviewloop/octoreview/internal/commands"
	"github.com/reviewloop/octoreview/internal/core/config"
	"github.com/reviewloop/octoreview/internal/core/styles"
	"github.com/reviewloop/octoreview/pkg/logutils"
)

// Build information. Populated at build-time via -ldflags flag. When
// installed via `go install module@version`, init() populates these from
// runtime/debug.BuildInfo instead.
var (
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "octoreview",
		Usage:     "Review pull requests from the terminal",
		UsageText: "octoreview [global options] command [command options]",
		Description: `octoreview is an interactive terminal client for reviewing pull
requests: an async, cache-first diff viewer with an optional two-agent
rally that drives a reviewer and a reviewee agent to convergence.

Run 'octoreview' with no arguments to open the review TUI against the
current directory's repository.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("OCTOREVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/octoreview.log)",
				Sources:     cli.EnvVars("OCTOREVIEW_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("OCTOREVIEW_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("OCTOREVIEW_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "octoreview.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			palette, ok := styles.GetPalette(cfg.Diff.Theme)
			if !ok {
				palette, _ = styles.GetPalette(styles.DefaultTheme)
			}
			styles.SetTheme(palette)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	runCmd := commands.NewRunCmd(flags)

	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewCleanCmd(flags).Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = runCmd.Register(app)

	// Register run's flags on the root command too, so `octoreview --pr 42`
	// works the same as `octoreview run --pr 42`.
	app.Flags = append(app.Flags, runCmd.Flags()...)

	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("%w: unknown command %q. Run 'octoreview --help' for usage", commands.ErrInvalidArgs, c.Args().First())
		}
		return runCmd.Run(ctx, c)
	}

	exitCode := 0
	if runErr := app.Run(ctx, os.Args); runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
		if errors.Is(runErr, commands.ErrInvalidArgs) {
			exitCode = 2
		}
	}

	os.Exit(exitCode)
}
