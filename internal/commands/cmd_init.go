package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/reviewloop/octoreview/internal/core/config"
)

type InitCmd struct {
	flags *Flags
	force bool
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write a default configuration and prompt templates",
		UsageText: "octoreview init [options]",
		Description: `Writes a default config.yaml and a reviewer/reviewee prompt template
pair, so an ai-rally run has templates to edit instead of starting from
nothing.

Use --force to overwrite an existing config.yaml.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite an existing configuration",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	configPath := cmd.flags.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !cmd.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	def := config.DefaultConfig()
	promptDir := filepath.Join(filepath.Dir(configPath), "prompts")
	def.AI.PromptDir = promptDir

	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := writePromptTemplates(promptDir, cmd.force); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "wrote %s\nwrote %s\n", configPath, promptDir)
	return nil
}

func writePromptTemplates(dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompt dir: %w", err)
	}

	templates := map[string]string{
		"reviewer.tmpl": defaultReviewerPrompt,
		"reviewee.tmpl": defaultRevieweePrompt,
	}
	for name, body := range templates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
