package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"charm.land/lipgloss/v2"
)

// Chroma lexes source lines with alecthomas/chroma/v2, selecting a lexer by
// file extension and coalescing adjacent same-type tokens before mapping
// them to styles. It serves as both the "fast" and "regex fallback" role
// described by the highlighter abstraction: chroma's lexers are themselves
// regex/state-machine based, and no tree-sitter grammar is wired in.
type Chroma struct {
	palette map[chroma.TokenType]lipgloss.Style
}

// NewChroma builds a Chroma highlighter using the given token-type palette.
// A nil palette falls back to DefaultPalette().
func NewChroma(palette map[chroma.TokenType]lipgloss.Style) *Chroma {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Chroma{palette: palette}
}

func (c *Chroma) Name() string { return "chroma" }

func (c *Chroma) Highlight(line string, ext string) []Span {
	lexer := lexers.Match("file" + ext)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iter, err := lexer.Tokenise(nil, line)
	if err != nil {
		return nil
	}

	var spans []Span
	offset := 0
	for _, tok := range iter.Tokens() {
		n := len(tok.Value)
		if n == 0 {
			continue
		}
		if style, ok := c.styleFor(tok.Type); ok {
			spans = append(spans, Span{Start: offset, End: offset + n, Style: style})
		}
		offset += n
	}
	return spans
}

func (c *Chroma) styleFor(tt chroma.TokenType) (lipgloss.Style, bool) {
	for t := tt; t != chroma.NoneType; t = t.Parent() {
		if style, ok := c.palette[t]; ok {
			return style, true
		}
		if t == chroma.Text {
			break
		}
	}
	return lipgloss.Style{}, false
}

// DefaultPalette maps chroma's top-level token categories to a terminal
// palette in the same spirit as the diff cache's own red/green/dim
// classification colors.
func DefaultPalette() map[chroma.TokenType]lipgloss.Style {
	return map[chroma.TokenType]lipgloss.Style{
		chroma.Keyword:        lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		chroma.NameFunction:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		chroma.NameClass:      lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		chroma.LiteralString:  lipgloss.NewStyle().Foreground(lipgloss.Color("150")),
		chroma.LiteralNumber:  lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		chroma.Comment:        lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		chroma.Operator:       lipgloss.NewStyle().Foreground(lipgloss.Color("209")),
		chroma.NameBuiltin:    lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	}
}
