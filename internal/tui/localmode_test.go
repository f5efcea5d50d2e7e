package tui

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/octoreview/internal/core/config"
	"github.com/reviewloop/octoreview/internal/forge"
	"github.com/reviewloop/octoreview/internal/review"
)

func newLocalModeTestModel(t *testing.T) (Model, review.Store) {
	cfg := config.DefaultConfig()
	store := review.NewFileStore(filepath.Join(t.TempDir(), "comments.json"))
	m := New(Deps{Config: &cfg, Comments: store}, Opts{Local: true})
	m.fileList = newFileList()
	m.fileList.SetFiles([]forge.ChangedFile{{Path: "main.go"}})
	return m, store
}

func TestOpenCommentInput_LocalMode_RefusesAndSetsStatus(t *testing.T) {
	m, _ := newLocalModeTestModel(t)

	updated, cmd := m.openCommentInput(InputComment)
	next := updated.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, ErrLocalModeUnsupported.Error(), next.status)
	assert.Equal(t, ScreenSplit, next.view.screen)
}

func TestSubmitInput_LocalMode_ReturnsTypedErrorWithoutMutatingStore(t *testing.T) {
	m, store := newLocalModeTestModel(t)

	_, cmd := m.submitInput()
	require.NotNil(t, cmd)

	msg, ok := cmd().(commentsLoadedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, msg.err, ErrLocalModeUnsupported)

	comments, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSubmitVerdict_LocalMode_ReturnsTypedError(t *testing.T) {
	m, _ := newLocalModeTestModel(t)

	cmd := m.submitVerdict(forge.VerdictApprove)
	require.NotNil(t, cmd)

	msg, ok := cmd().(submitResultMsg)
	require.True(t, ok)
	assert.ErrorIs(t, msg.err, ErrLocalModeUnsupported)
}
