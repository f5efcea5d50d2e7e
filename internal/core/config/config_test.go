package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "gh", cfg.ForgeBin)
	assert.Equal(t, 10, cfg.AI.MaxIterations)
	assert.True(t, cfg.Diff.AutoFocus)
}

func TestLoad_UserKeybindingsMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keybindings:\n  a:\n    action: comment\n    help: custom approve key\n"), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "comment", cfg.Keybindings["a"].Action)
	assert.Equal(t, "next_file", cfg.Keybindings["tab"].Action, "unrelated defaults survive the merge")
}

func TestValidate_RejectsInvalidHighlighter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp"
	cfg.Diff.Highlighter = "tree-sitter"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "highlighter")
}

func TestValidate_RejectsZeroMaxIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp"
	cfg.AI.MaxIterations = 0

	err := cfg.Validate()
	require.Error(t, err)
}

func TestRallySessionsDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	assert.Equal(t, filepath.Join("/data", "rally"), cfg.RallySessionsDir())
}
