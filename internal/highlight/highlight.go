// Package highlight provides pluggable syntax highlighting for diff render
// rows. Implementations are selected by file extension; the diff render
// cache consumes only a stream of (byte range, style) events and does not
// know which variant produced them.
package highlight

import "charm.land/lipgloss/v2"

// Span is a styled byte range within a line's payload. Start and End are
// byte offsets into the line, [Start, End).
type Span struct {
	Start int
	End   int
	Style lipgloss.Style
}

// Highlighter lexes a single line of source for a given file extension and
// returns the styled spans covering it. Implementations must not retain the
// line slice beyond the call.
type Highlighter interface {
	// Name identifies the highlighter for logging/config ("chroma", "null").
	Name() string
	// Highlight returns styled spans for line, using ext (e.g. ".go", ".rs")
	// to select a lexer/grammar. An empty or unrecognized ext falls back to
	// plain text.
	Highlight(line string, ext string) []Span
}

// Null is the identity highlighter: it returns no spans, so callers apply
// only the classification-dependent base color. Used when highlighting is
// disabled or no grammar fits.
type Null struct{}

func (Null) Name() string { return "null" }

func (Null) Highlight(_ string, _ string) []Span { return nil }
