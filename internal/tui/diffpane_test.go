package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewloop/octoreview/internal/highlight"
)

const testPatch = `@@ -1,3 +1,3 @@
 context line
-removed line
+added line
`

func TestDiffPaneModel_SetFile_RebuildsOnPatchChange(t *testing.T) {
	m := newDiffPane(highlight.Null{}, "default")
	m.SetHeight(10)

	m.SetFile(0, "a.go", testPatch, nil, nil)
	firstEntry := m.entry

	m.SetFile(0, "a.go", testPatch, nil, nil)
	assert.Same(t, firstEntry, m.entry, "identical key should reuse the cached entry")

	m.SetFile(0, "a.go", testPatch+"\n", nil, nil)
	assert.NotSame(t, firstEntry, m.entry, "a changed patch should force a rebuild")
}

func TestDiffPaneModel_ClampScroll_TruncatesWhenFileSwitchShrinksRowCount(t *testing.T) {
	m := newDiffPane(highlight.Null{}, "default")
	m.SetHeight(2)
	m.SetFile(0, "a.go", testPatch, nil, nil)
	m.Move(100) // push cursor/scroll to the bottom of a 4-row diff

	m.SetFile(1, "b.go", "@@ -1,1 +1,1 @@\n context\n", nil, nil)

	assert.LessOrEqual(t, m.cursor, m.rowCount()-1)
	assert.GreaterOrEqual(t, m.cursor, 0)
	assert.GreaterOrEqual(t, m.scroll, 0)
}

func TestDiffPaneModel_CurrentLine_ReportsOldAndNewLineNumbers(t *testing.T) {
	m := newDiffPane(highlight.Null{}, "default")
	m.SetHeight(10)
	m.SetFile(0, "a.go", testPatch, nil, nil)

	m.cursor = 0
	_, _, ok := m.CurrentLine()
	assert.True(t, ok)
}

func TestDiffPaneModel_CurrentLine_FalseWhenNoEntry(t *testing.T) {
	m := newDiffPane(highlight.Null{}, "default")

	_, _, ok := m.CurrentLine()
	assert.False(t, ok)
}
