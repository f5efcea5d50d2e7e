package diffparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"header", "diff --git a/f b/f", Header},
		{"hunk meta", "@@ -1,2 +1,3 @@ func foo()", HunkMeta},
		{"meta plus", "+++ b/f", MetaPlus},
		{"meta minus", "--- a/f", MetaMinus},
		{"added", "+new line", Added},
		{"removed", "-old line", Removed},
		{"context space", " unchanged", Context},
		{"context empty", "", Context},
		{"other", "index 1234567..89abcde 100644", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLine(tt.raw))
		})
	}
}

func TestAnnotatePatch_MinimalPatch(t *testing.T) {
	patch := "diff --git a/f b/f\n@@ -1,1 +1,2 @@\n-old\n+new1\n+new2\n"

	lines := AnnotatePatch(patch)

	// The trailing newline ends the last line; it does not add a sixth.
	require.Len(t, lines, 5)

	wantKinds := []Kind{Header, HunkMeta, Removed, Added, Added}
	for i, want := range wantKinds {
		assert.Equalf(t, want, lines[i].Kind, "line %d", i)
	}

	assert.Equal(t, 1, lines[2].OldLine, "removed old line")
	assert.Equal(t, 1, lines[3].NewLine, "first added new line")
	assert.Equal(t, 2, lines[4].NewLine, "second added new line")
}

func TestAnnotatePatch_CounterResetsOnEachHunk(t *testing.T) {
	patch := "@@ -10,1 +20,1 @@\n-a\n+b\n@@ -1,1 +1,1 @@\n-c\n+d\n"

	lines := AnnotatePatch(patch)

	require.Len(t, lines, 6)
	assert.Equal(t, 10, lines[1].OldLine)
	assert.Equal(t, 20, lines[2].NewLine)
	assert.Equal(t, 1, lines[4].OldLine)
	assert.Equal(t, 1, lines[5].NewLine)
}

func TestAnnotatePatch_ContextAdvancesBothCounters(t *testing.T) {
	patch := "@@ -5,3 +5,3 @@\n context1\n-removed\n+added\n context2\n"

	lines := AnnotatePatch(patch)

	require.Len(t, lines, 5)
	assert.Equal(t, 5, lines[1].OldLine)
	assert.Equal(t, 5, lines[1].NewLine)
	assert.Equal(t, 6, lines[2].OldLine)
	assert.Equal(t, 6, lines[3].NewLine)
	assert.Equal(t, 7, lines[4].OldLine)
	assert.Equal(t, 7, lines[4].NewLine)
}

func TestLineInfo_OutOfBounds(t *testing.T) {
	lines := AnnotatePatch("@@ -1,1 +1,1 @@\n-a\n+b\n")

	old, new := LineInfo(lines, -1)
	assert.Equal(t, 0, old)
	assert.Equal(t, 0, new)

	old, new = LineInfo(lines, 999)
	assert.Equal(t, 0, old)
	assert.Equal(t, 0, new)
}
