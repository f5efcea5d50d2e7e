package review

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/octoreview/internal/forge"
)

func TestFileStore_AddListDelete(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "comments.json"))

	c1, err := s.Add(ctx, Comment{Path: "b.go", Line: 10, Side: forge.Right, Body: "nit", Pending: true})
	require.NoError(t, err)
	require.NotEmpty(t, c1.ID)

	_, err = s.Add(ctx, Comment{Path: "a.go", Line: 5, Side: forge.Right, Body: "first", Pending: true})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.go", list[0].Path, "results sorted by path then line")

	require.NoError(t, s.Delete(ctx, c1.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrCommentNotFound)
}

func TestFileStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "comments.json"))

	c, err := s.Add(ctx, Comment{Path: "a.go", Line: 1, Body: "draft"})
	require.NoError(t, err)

	c.Body = "final"
	require.NoError(t, s.Update(ctx, c))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Body)
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "comments.json"))
	_, err := s.Add(ctx, Comment{Path: "a.go"})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
