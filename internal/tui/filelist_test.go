package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewloop/octoreview/internal/forge"
)

func filesNamed(paths ...string) []forge.ChangedFile {
	files := make([]forge.ChangedFile, len(paths))
	for i, p := range paths {
		files[i] = forge.ChangedFile{Path: p}
	}
	return files
}

func TestFileListModel_AutoFocus_SelectsFirstChangedWhenNothingSelectedYet(t *testing.T) {
	m := newFileList()
	m.SetFiles(filesNamed("a.go", "b.go", "c.go"))

	m.AutoFocus([]string{"c.go"})

	sel, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, "c.go", sel.Path)
}

func TestFileListModel_AutoFocus_PicksNearestChangedToCursor(t *testing.T) {
	m := newFileList()
	m.SetFiles(filesNamed("a.go", "b.go", "c.go", "d.go", "e.go"))
	m.MoveTo(2) // cursor on c.go
	m.hasAny = true

	m.AutoFocus([]string{"a.go", "e.go"})

	sel, ok := m.Selected()
	assert.True(t, ok)
	// a.go is 2 away, e.go is 2 away: tie broken toward the lower index.
	assert.Equal(t, "a.go", sel.Path)
}

func TestFileListModel_AutoFocus_NoopWhenNoFilesChanged(t *testing.T) {
	m := newFileList()
	m.SetFiles(filesNamed("a.go", "b.go"))
	m.MoveTo(1)
	m.hasAny = true

	m.AutoFocus([]string{"unrelated.go"})

	sel, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, "b.go", sel.Path)
}

func TestFileListModel_AutoFocus_NoopOnEmptyFileList(t *testing.T) {
	m := newFileList()
	m.AutoFocus([]string{"a.go"})

	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestFileListModel_Move_ClampsToBounds(t *testing.T) {
	m := newFileList()
	m.SetFiles(filesNamed("a.go", "b.go"))

	m.Move(-5)
	sel, _ := m.Selected()
	assert.Equal(t, "a.go", sel.Path)

	m.Move(5)
	sel, _ = m.Selected()
	assert.Equal(t, "b.go", sel.Path)
}

func TestFileListModel_SetFiles_ClampsCursorWhenListShrinks(t *testing.T) {
	m := newFileList()
	m.SetFiles(filesNamed("a.go", "b.go", "c.go"))
	m.MoveTo(2)

	m.SetFiles(filesNamed("a.go"))

	sel, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, "a.go", sel.Path)
}
