// Package editor launches the user's preferred editor in a suspended
// terminal session to compose a comment body, then reads the result back.
package editor

import (
	"os"
	"os/exec"
	"strings"

	tea "charm.land/bubbletea/v2"
)

// FinishedMsg is delivered after the suspended editor process exits.
type FinishedMsg struct {
	Path string
	Err  error
}

// Resolve picks the editor binary in the order config → $VISUAL → $EDITOR →
// "vi".
func Resolve(configured string) string {
	if configured != "" {
		return configured
	}
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// Compose returns a tea.Cmd that suspends the TUI, opens path (expected to
// already hold any draft text) in the resolved editor, and resumes with a
// FinishedMsg once the editor exits.
func Compose(configured, path string) tea.Cmd {
	c := exec.Command(Resolve(configured), path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return FinishedMsg{Path: path, Err: err}
	})
}

// ReadBody reads back the composed comment body after the editor exits and
// removes the temp file. Trailing newline is stripped; an all-whitespace
// result is reported as empty so callers can treat it as "comment aborted".
func ReadBody(path string) (string, error) {
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	body := trimTrailingNewline(string(data))
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	return body, nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
