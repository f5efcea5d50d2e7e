package forge

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/octoreview/pkg/executil"
)

func TestDetectRepo(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh": []byte("octocat/hello-world\n")},
	}
	c := NewClient(exec, "")

	owner, repo, err := c.DetectRepo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello-world", repo)
}

func TestRun_ClassifiesNotFound(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh": []byte("GraphQL: Could not resolve to a Repository")},
		Errors:  map[string]error{"gh": assertErr},
	}
	c := NewClient(exec, "")

	_, _, err := c.DetectRepo(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchList_RespectsLimitAndOffset(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"gh": []byte(`[
			{"number":1,"title":"a","state":"OPEN","author":{"login":"u"},"isDraft":false,"labels":[]},
			{"number":2,"title":"b","state":"OPEN","author":{"login":"u"},"isDraft":false,"labels":[]},
			{"number":3,"title":"c","state":"OPEN","author":{"login":"u"},"isDraft":false,"labels":[]}
		]`)},
	}
	c := NewClient(exec, "")

	page, err := c.FetchList(context.Background(), "o", "r", StateOpen, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Items[0].Number)
	assert.True(t, page.HasMore)
}

func TestFetchSnapshot_JoinsMetadataAndFiles(t *testing.T) {
	exec := &argRoutedExecutor{byFirstArg: map[string][]byte{
		"pr": []byte(`{"number":7,"title":"t","body":"b","state":"OPEN","mergeable":"MERGEABLE","isDraft":false,"headRefName":"h","headRefOid":"sha","baseRefName":"main","updatedAt":"2026-01-01T00:00:00Z","author":{"login":"u"},"labels":[]}`),
		"api": []byte(`[[{"filename":"a.go","status":"modified","additions":1,"deletions":0,"patch":"@@ -1 +1 @@"}]]`),
	}}
	c := NewClient(exec, "")

	pr, err := c.FetchSnapshot(context.Background(), "o", "r", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.True(t, pr.Mergeable)
	require.Len(t, pr.ChangedFiles, 1)
	assert.Equal(t, "a.go", pr.ChangedFiles[0].Path)
}

// argRoutedExecutor is a minimal executil.Executor fake that routes output
// by the subcommand's first argument, which RecordingExecutor can't do
// since it keys only on the command name ("gh" for both "pr view" and "api").
type argRoutedExecutor struct {
	byFirstArg map[string][]byte
}

func (e *argRoutedExecutor) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return e.byFirstArg[args[0]], nil
}

func (e *argRoutedExecutor) RunDir(ctx context.Context, _ string, cmd string, args ...string) ([]byte, error) {
	return e.Run(ctx, cmd, args...)
}

func (e *argRoutedExecutor) RunStream(_ context.Context, _, _ io.Writer, _ string, _ ...string) error {
	return nil
}

func (e *argRoutedExecutor) RunDirStream(_ context.Context, _ string, _, _ io.Writer, _ string, _ ...string) error {
	return nil
}

var assertErr = &recordingError{}

type recordingError struct{}

func (*recordingError) Error() string { return "gh exit 1" }
