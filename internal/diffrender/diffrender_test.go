package diffrender

import (
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/octoreview/internal/highlight"
)

func testStyles() BaseStyles {
	return BaseStyles{
		Added:   lipgloss.NewStyle().Foreground(lipgloss.Color("green")),
		Removed: lipgloss.NewStyle().Foreground(lipgloss.Color("red")),
		Meta:    lipgloss.NewStyle().Faint(true),
		Default: lipgloss.NewStyle(),
	}
}

func TestCache_BuildAndVisible(t *testing.T) {
	patch := "diff --git a/f b/f\n@@ -1,1 +1,2 @@\n-old\n+new1\n+new2\n"
	c := NewCache()

	key := Key{FileIndex: 0, PatchFingerprint: PatchFingerprint(patch), ThemeID: "default", HighlighterID: "null"}
	entry := c.Build(key, patch, ".go", highlight.Null{}, testStyles(), nil, nil)

	require.NotNil(t, entry)
	rows := entry.Rows()
	require.Len(t, rows, 5)

	visible := Visible(entry, 0, 2)
	assert.Len(t, visible, 2)
}

func TestCache_GetHitsOnMatchingKey(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-a\n+b\n"
	c := NewCache()
	key := Key{PatchFingerprint: PatchFingerprint(patch)}
	built := c.Build(key, patch, "", highlight.Null{}, testStyles(), nil, nil)

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Same(t, built, got)

	_, ok = c.Get(Key{PatchFingerprint: "different"})
	assert.False(t, ok)
}

func TestVisible_ClampsToAvailableRows(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-a\n+b\n"
	c := NewCache()
	entry := c.Build(Key{}, patch, "", highlight.Null{}, testStyles(), nil, nil)

	visible := Visible(entry, 100, 10)
	assert.Empty(t, visible)

	visible = Visible(entry, 1, 10)
	assert.Len(t, visible, len(entry.Rows())-1)
}

func TestBuild_MarksCommentedLines(t *testing.T) {
	patch := "@@ -1,1 +1,1 @@\n-a\n+b\n"
	c := NewCache()
	entry := c.Build(Key{}, patch, "", highlight.Null{}, testStyles(), nil, map[int]bool{1: true})

	var found bool
	for _, r := range entry.Rows() {
		if r.NewLine == 1 {
			found = true
			assert.True(t, r.Commented)
		}
	}
	assert.True(t, found)
}
