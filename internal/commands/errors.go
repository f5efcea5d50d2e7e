package commands

import "errors"

// ErrInvalidArgs marks an error that should exit 2 (invalid arguments), per
// the CLI's exit-code contract — 1 is reserved for initialization failures
// (missing forge CLI, unauthenticated) that aren't the user's fault in the
// same way a bad flag is.
var ErrInvalidArgs = errors.New("invalid arguments")
