// Package config handles configuration loading and validation for octoreview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in action names for keybindings.
const (
	ActionApprove       = "approve"
	ActionRequestChange = "request_changes"
	ActionComment       = "comment"
	ActionNextFile      = "next_file"
	ActionPrevFile      = "prev_file"
)

var defaultKeybindings = map[string]Keybinding{
	"a": {Action: ActionApprove, Help: "approve", Confirm: "Approve this pull request?"},
	"x": {Action: ActionRequestChange, Help: "request changes"},
	"c": {Action: ActionComment, Help: "add comment"},
	"tab": {Action: ActionNextFile, Help: "next file"},
}

// Config holds the application configuration.
type Config struct {
	Editor      string                 `yaml:"editor"`
	Diff        DiffConfig             `yaml:"diff"`
	Cache       CacheConfig            `yaml:"cache"`
	ForgeBin    string                 `yaml:"forge_bin"`
	AI          AIConfig               `yaml:"ai"`
	Keybindings map[string]Keybinding  `yaml:"keybindings"`
	DataDir     string                 `yaml:"-"` // set by caller, not from config file
}

// DiffConfig controls the diff viewer.
type DiffConfig struct {
	Theme       string `yaml:"theme"`
	Highlighter string `yaml:"highlighter"` // "chroma" or "null"
	AutoFocus   bool   `yaml:"auto_focus"`
}

// CacheConfig controls the on-disk artifact cache's freshness window.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AIConfig controls the two-agent rally orchestrator.
type AIConfig struct {
	Reviewer                string   `yaml:"reviewer"`
	Reviewee                string   `yaml:"reviewee"`
	MaxIterations           int      `yaml:"max_iterations"`
	TimeoutSecs             int      `yaml:"timeout_secs"`
	PromptDir               string   `yaml:"prompt_dir"`
	ReviewerAdditionalTools []string `yaml:"reviewer_additional_tools"`
	RevieweeAdditionalTools []string `yaml:"reviewee_additional_tools"`
}

// Keybinding defines a TUI keybinding action.
type Keybinding struct {
	Action  string `yaml:"action"`
	Help    string `yaml:"help"`
	Confirm string `yaml:"confirm"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Editor:   "", // resolved from $VISUAL/$EDITOR at use time if empty
		ForgeBin: "gh",
		Diff: DiffConfig{
			Theme:       "default",
			Highlighter: "chroma",
			AutoFocus:   true,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		AI: AIConfig{
			Reviewer:      "claude",
			Reviewee:      "claude",
			MaxIterations: 10,
			TimeoutSecs:   600,
		},
		Keybindings: map[string]Keybinding{},
	}
}

// Load reads configuration from configPath and sets the data directory. If
// configPath is empty or doesn't exist, returns defaults with dataDir set.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			cfg.DataDir = dataDir
		}
	}

	cfg.Keybindings = mergeKeybindings(defaultKeybindings, cfg.Keybindings)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.ForgeBin == "" {
		c.ForgeBin = defaults.ForgeBin
	}
	if c.Diff.Theme == "" {
		c.Diff.Theme = defaults.Diff.Theme
	}
	if c.Diff.Highlighter == "" {
		c.Diff.Highlighter = defaults.Diff.Highlighter
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaults.Cache.TTL
	}
	if c.AI.Reviewer == "" {
		c.AI.Reviewer = defaults.AI.Reviewer
	}
	if c.AI.Reviewee == "" {
		c.AI.Reviewee = defaults.AI.Reviewee
	}
	if c.AI.MaxIterations == 0 {
		c.AI.MaxIterations = defaults.AI.MaxIterations
	}
	if c.AI.TimeoutSecs == 0 {
		c.AI.TimeoutSecs = defaults.AI.TimeoutSecs
	}
}

func mergeKeybindings(defaults, user map[string]Keybinding) map[string]Keybinding {
	result := make(map[string]Keybinding, len(defaults)+len(user))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range user {
		result[k] = v
	}
	return result
}

// Validate checks that the configuration is well-formed. It does not
// validate a non-empty field value for a one-line non-empty check such as a
// session name — that kind of check belongs at the call site, wrapped
// directly in fmt.Errorf.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.ForgeBin == "" {
		return fmt.Errorf("forge_bin cannot be empty")
	}
	if c.AI.MaxIterations < 1 {
		return fmt.Errorf("ai.max_iterations must be at least 1")
	}
	if c.AI.TimeoutSecs < 1 {
		return fmt.Errorf("ai.timeout_secs must be at least 1")
	}
	if !isValidHighlighter(c.Diff.Highlighter) {
		return fmt.Errorf("diff.highlighter %q is not one of chroma, null", c.Diff.Highlighter)
	}

	for key, kb := range c.Keybindings {
		if kb.Action == "" {
			return fmt.Errorf("keybinding %q must have an action", key)
		}
		if !isValidAction(kb.Action) {
			return fmt.Errorf("keybinding %q has invalid action %q", key, kb.Action)
		}
	}

	return nil
}

func isValidHighlighter(h string) bool {
	switch h {
	case "chroma", "null":
		return true
	default:
		return false
	}
}

func isValidAction(action string) bool {
	switch action {
	case ActionApprove, ActionRequestChange, ActionComment, ActionNextFile, ActionPrevFile:
		return true
	default:
		return false
	}
}

// RallySessionsDir returns the directory under which rally session state is
// persisted, keyed per (forge+repo, number) by the caller.
func (c *Config) RallySessionsDir() string {
	return filepath.Join(c.DataDir, "rally")
}

// LocalIndexFile returns the path to the supplementary local PR-history
// sqlite database.
func (c *Config) LocalIndexFile() string {
	return filepath.Join(c.DataDir, "history.db")
}
