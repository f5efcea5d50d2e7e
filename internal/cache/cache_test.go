package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestFile_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "entry.json")
	f := NewFile[payload](path)

	require.NoError(t, f.Save(payload{Name: "pr-42"}))

	got, err := f.Load(0)
	require.NoError(t, err)
	assert.Equal(t, "pr-42", got.Name)
}

func TestFile_LoadMissingFile(t *testing.T) {
	f := NewFile[payload](filepath.Join(t.TempDir(), "missing.json"))
	_, err := f.Load(0)
	assert.Error(t, err)
}

func TestFile_LoadStaleReturnsValueAndErrStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.json")
	f := NewFile[payload](path)
	require.NoError(t, f.Save(payload{Name: "old"}))

	time.Sleep(time.Millisecond)
	got, err := f.Load(time.Nanosecond)

	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "old", got.Name)
}

func TestFile_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.json")
	f := NewFile[payload](path)
	require.NoError(t, f.Save(payload{Name: "x"}))

	require.NoError(t, f.Clear())

	_, err := f.Load(0)
	assert.Error(t, err)

	assert.NoError(t, f.Clear(), "clearing an already-missing file is a no-op")
}
