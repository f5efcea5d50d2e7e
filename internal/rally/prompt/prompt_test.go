package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesKnownVars(t *testing.T) {
	got := Render("Review PR #{{number}} in {{repo}}.", map[string]string{
		"number": "42",
		"repo":   "acme/widgets",
	})
	assert.Equal(t, "Review PR #42 in acme/widgets.", got)
}

func TestRender_UndefinedVarBecomesEmpty(t *testing.T) {
	got := Render("Hello {{name}}!", map[string]string{})
	assert.Equal(t, "Hello !", got)
}

func TestRender_UnterminatedBraceLeftAsIs(t *testing.T) {
	got := Render("broken {{ open", map[string]string{"open": "x"})
	assert.Equal(t, "broken {{ open", got)
}

func TestRender_TrimsWhitespaceInsideBraces(t *testing.T) {
	got := Render("{{ diff }}", map[string]string{"diff": "+++"})
	assert.Equal(t, "+++", got)
}

func TestRender_NoVariablesPassesThrough(t *testing.T) {
	got := Render("plain text", nil)
	assert.Equal(t, "plain text", got)
}
