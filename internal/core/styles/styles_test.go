package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPalette_KnownTheme(t *testing.T) {
	p, ok := GetPalette("gruvbox")
	assert.True(t, ok)
	assert.NotEmpty(t, p.Primary)
}

func TestGetPalette_UnknownTheme(t *testing.T) {
	_, ok := GetPalette("not-a-theme")
	assert.False(t, ok)
}

func TestThemeNames_Sorted(t *testing.T) {
	names := ThemeNames()
	assert.Equal(t, []string{"gruvbox", "tokyo-night"}, names)
}

func TestSetTheme_RebuildsStyles(t *testing.T) {
	SetTheme(themes["gruvbox"])
	assert.Equal(t, themes["gruvbox"].Primary, CurrentPalette.Primary)
	SetTheme(themes[DefaultTheme])
}
