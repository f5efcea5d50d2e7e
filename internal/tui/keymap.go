package tui

import "github.com/reviewloop/octoreview/internal/core/config"

// resolver maps a raw key string to a configured Action. It knows only the
// configured bindings; the fixed navigation keys (arrows, tab, enter, esc,
// q) are handled by Model.handleKey before the resolver is consulted.
type resolver struct {
	bindings map[string]config.Keybinding
}

func newResolver(bindings map[string]config.Keybinding) resolver {
	return resolver{bindings: bindings}
}

// lookup resolves key to a configured action name, or "" if key is
// unbound. Confirm is the confirmation prompt text, if the binding
// requires one.
func (r resolver) lookup(key string) (action, confirm string) {
	kb, ok := r.bindings[key]
	if !ok {
		return "", ""
	}
	return kb.Action, kb.Confirm
}

// helpEntries returns every bound key and its help text, for the Help
// screen, in a stable order.
func (r resolver) helpEntries() []helpEntry {
	order := []string{"a", "x", "c", "tab"}
	seen := make(map[string]bool, len(order))
	entries := make([]helpEntry, 0, len(r.bindings))
	for _, k := range order {
		if kb, ok := r.bindings[k]; ok {
			entries = append(entries, helpEntry{Key: k, Help: kb.Help})
			seen[k] = true
		}
	}
	for k, kb := range r.bindings {
		if !seen[k] {
			entries = append(entries, helpEntry{Key: k, Help: kb.Help})
		}
	}
	return entries
}

type helpEntry struct {
	Key  string
	Help string
}
