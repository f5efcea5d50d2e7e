// Package prompt renders rally prompt templates with literal {{var}}
// substitution. text/template is deliberately not used here: its
// missingkey=error behavior aborts the whole render on one absent
// variable, while a prompt template should degrade an undefined
// placeholder to an empty string and keep going.
package prompt

import "strings"

// Render replaces every {{name}} occurrence in tpl with vars[name]. An
// undefined variable is replaced with the empty string; there is no escape
// syntax for a literal "{{".
func Render(tpl string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(tpl))

	rest := tpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+2 : end])
		b.WriteString(vars[name])
		rest = rest[end+2:]
	}
	return b.String()
}
