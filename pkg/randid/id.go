// Package randid generates short random identifiers for contexts that don't
// need the uniqueness guarantees (or the verbosity) of a UUID, such as
// synthetic IDs for local-mode review sessions.
package randid

import (
	"math/rand"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random lowercase alphanumeric string of the given length.
func Generate(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
