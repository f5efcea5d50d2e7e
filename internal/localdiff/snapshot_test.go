package localdiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/octoreview/pkg/executil"
)

const twoFileDiff = `diff --git a/b.go b/b.go
index 111..222 100644
--- a/b.go
+++ b/b.go
@@ -1,1 +1,1 @@
-old
+new
diff --git a/a.go b/a.go
index 333..444 100644
--- a/a.go
+++ b/a.go
@@ -1,1 +1,1 @@
-x
+y
`

func TestBuildSnapshot_OrdersFilesByPath(t *testing.T) {
	exec := &executil.RecordingExecutor{
		Outputs: map[string][]byte{"git": []byte(twoFileDiff)},
	}

	snap, err := BuildSnapshot(context.Background(), exec, "/repo")
	require.NoError(t, err)
	require.Len(t, snap.Files, 2)
	assert.Equal(t, "a.go", snap.Files[0].Path)
	assert.Equal(t, "b.go", snap.Files[1].Path)
}

func TestSplitPatches_EachFileKeepsItsOwnHunks(t *testing.T) {
	files := splitPatches(twoFileDiff)
	require.Len(t, files, 2)
	assert.Contains(t, files[0].Patch, "-old\n+new")
	assert.Contains(t, files[1].Patch, "-x\n+y")
}

func TestShouldIgnore_VCSAndTempFiles(t *testing.T) {
	w := &Watcher{}
	assert.True(t, w.shouldIgnore("/repo/.git/HEAD"))
	assert.True(t, w.shouldIgnore("/repo/foo.go.swp"))
	assert.True(t, w.shouldIgnore("/repo/.hidden"))
	assert.False(t, w.shouldIgnore("/repo/main.go"))
}
