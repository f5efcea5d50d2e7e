// Package diffrender turns a patch into terminal-ready rows and caches the
// result behind a single slot, keyed on everything that can invalidate it.
// Rows borrow their text from the retained patch buffer via Go string
// slicing (which shares the underlying byte array rather than copying), so
// building a cache entry allocates once per patch, not once per row.
package diffrender

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/reviewloop/octoreview/internal/diffparse"
	"github.com/reviewloop/octoreview/internal/highlight"
)

// Key identifies a cache entry. Any field change forces a rebuild.
type Key struct {
	FileIndex          int
	PatchFingerprint   string
	CommentFingerprint string
	ThemeID            string
	HighlighterID      string
}

// Span is a styled, borrowed slice of a Row's source line.
type Span struct {
	Text  string // sub-slice of the retained patch buffer
	Style lipgloss.Style
}

// Row is one terminal-ready line of a rendered diff.
type Row struct {
	Spans     []Span
	Base      lipgloss.Style
	Commented bool
	Kind      diffparse.Kind
	OldLine   int
	NewLine   int
}

// Entry is the single cache slot: a pinned patch buffer plus the rows built
// from it. Rows do not outlive the Entry that produced them.
type Entry struct {
	Key  Key
	rows []Row
}

// Rows returns the built rows. Callers must not mutate the returned slice.
func (e *Entry) Rows() []Row { return e.rows }

// Cache holds at most one Entry. Switching files, patches, comment sets, or
// theme/highlighter reconstructs it from scratch.
type Cache struct {
	entry *Entry
}

// NewCache returns an empty render cache.
func NewCache() *Cache { return &Cache{} }

// Get returns the current entry if its key matches want, or (nil, false)
// otherwise.
func (c *Cache) Get(want Key) (*Entry, bool) {
	if c.entry != nil && c.entry.Key == want {
		return c.entry, true
	}
	return nil, false
}

// BaseStyles supplies the classification-dependent base colors applied
// before highlighter spans are laid over them.
type BaseStyles struct {
	Added    lipgloss.Style
	Removed  lipgloss.Style
	Meta     lipgloss.Style
	Default  lipgloss.Style
}

// Build classifies and annotates patch, runs h over each payload line using
// ext to pick a grammar, and installs the result as the cache's single
// entry. commentedNewLines is the set of new-side line numbers that carry a
// review comment; commentedOldLines is the same for the old side.
func (c *Cache) Build(key Key, patch string, ext string, h highlight.Highlighter, styles BaseStyles, commentedOldLines, commentedNewLines map[int]bool) *Entry {
	lines := diffparse.AnnotatePatch(patch)
	rows := make([]Row, 0, len(lines))

	for _, l := range lines {
		payload := l.Raw
		switch l.Kind {
		case diffparse.Added, diffparse.Removed, diffparse.Context:
			if len(payload) > 0 {
				payload = payload[1:]
			}
		}

		base := styles.Default
		switch l.Kind {
		case diffparse.Added:
			base = styles.Added
		case diffparse.Removed:
			base = styles.Removed
		case diffparse.Header, diffparse.HunkMeta, diffparse.MetaPlus, diffparse.MetaMinus:
			base = styles.Meta
		}

		var spans []Span
		if h != nil {
			for _, s := range h.Highlight(payload, ext) {
				if s.Start < 0 || s.End > len(payload) || s.Start >= s.End {
					continue
				}
				spans = append(spans, Span{Text: payload[s.Start:s.End], Style: s.Style})
			}
		}
		if len(spans) == 0 {
			spans = []Span{{Text: payload, Style: base}}
		}

		commented := commentedNewLines[l.NewLine] || commentedOldLines[l.OldLine]

		rows = append(rows, Row{
			Spans:     spans,
			Base:      base,
			Commented: commented,
			Kind:      l.Kind,
			OldLine:   l.OldLine,
			NewLine:   l.NewLine,
		})
	}

	entry := &Entry{Key: key, rows: rows}
	c.entry = entry
	return entry
}

// Visible returns the rows for a viewport starting at top with the given
// height, clamped to the available row count. It performs O(height) work
// and allocates nothing beyond the returned slice header.
func Visible(entry *Entry, top, height int) []Row {
	if entry == nil || height <= 0 {
		return nil
	}
	rows := entry.rows
	if top < 0 {
		top = 0
	}
	if top > len(rows) {
		top = len(rows)
	}
	end := top + height
	if end > len(rows) {
		end = len(rows)
	}
	return rows[top:end]
}

// PatchFingerprint returns a short content fingerprint for patch, suitable
// for use as Key.PatchFingerprint.
func PatchFingerprint(patch string) string {
	sum := sha256.Sum256([]byte(patch))
	return hex.EncodeToString(sum[:8])
}

// CommentFingerprint returns a fingerprint over the set of line numbers that
// carry comments, order-independent, suitable for Key.CommentFingerprint.
func CommentFingerprint(newLines map[int]bool) string {
	nums := make([]int, 0, len(newLines))
	for n := range newLines {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(',')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
