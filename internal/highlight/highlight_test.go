package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNull_ReturnsNoSpans(t *testing.T) {
	var h Highlighter = Null{}
	assert.Nil(t, h.Highlight("func main() {}", ".go"))
	assert.Equal(t, "null", h.Name())
}

func TestChroma_HighlightsKeyword(t *testing.T) {
	h := NewChroma(nil)
	spans := h.Highlight("func main() {}", ".go")
	assert.NotEmpty(t, spans, "expected at least one styled span for a go keyword")
}

func TestChroma_UnknownExtensionFallsBackToPlainText(t *testing.T) {
	h := NewChroma(nil)
	assert.NotPanics(t, func() {
		h.Highlight("some plain text", ".unknownext")
	})
}
