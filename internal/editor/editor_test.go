package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PrecedenceOrder(t *testing.T) {
	t.Setenv("VISUAL", "visual-editor")
	t.Setenv("EDITOR", "editor-editor")
	assert.Equal(t, "configured-editor", Resolve("configured-editor"))
	assert.Equal(t, "visual-editor", Resolve(""))

	t.Setenv("VISUAL", "")
	assert.Equal(t, "editor-editor", Resolve(""))

	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", Resolve(""))
}

func TestReadBody_TrimsTrailingNewlineAndRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comment.md")
	require.NoError(t, os.WriteFile(path, []byte("looks good\n\n"), 0o644))

	body, err := ReadBody(path)
	require.NoError(t, err)
	assert.Equal(t, "looks good", body)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "ReadBody should remove the temp file")
}
