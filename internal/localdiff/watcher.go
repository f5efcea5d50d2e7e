// Package localdiff serves local-diff mode: it watches a working directory
// for uncommitted changes and synthesises a pull-request-shaped snapshot
// from `git diff HEAD`.
package localdiff

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DebounceWindow is the coalescing window for filesystem events, per §4.4.
const DebounceWindow = 150 * time.Millisecond

// vcsDirs are metadata directories whose events are always ignored.
var vcsDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
}

// Changed carries the union of paths that changed within one debounce
// window.
type Changed struct {
	Paths []string
}

// Watcher watches dir (and its subdirectories) for changes that would alter
// `git diff HEAD`, coalescing bursts into a single Changed event.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	debounce time.Duration
	log     zerolog.Logger
}

// New creates a Watcher rooted at dir. Returns nil (not an error) if the
// directory tree cannot be watched — callers should fall back to manual
// refresh in that case, not abort local-diff mode entirely.
func New(dir string, log zerolog.Logger) *Watcher {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("localdiff: fsnotify unavailable")
		return nil
	}

	w := &Watcher{watcher: fw, dir: dir, debounce: DebounceWindow, log: log}
	if err := w.addRecursive(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("localdiff: failed to watch directory")
		_ = fw.Close()
		return nil
	}
	return w
}

// Run blocks, sending a Changed event on out whenever one or more tracked
// files are modified, until ctx is canceled. out should be buffered or
// drained promptly; Run never blocks trying to send — a slow consumer loses
// the coalesced batch, which the next emission supersedes anyway.
func (w *Watcher) Run(ctx context.Context, out chan<- Changed) {
	defer w.watcher.Close()

	changed := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	emit := func() {
		if len(changed) == 0 {
			return
		}
		paths := make([]string, 0, len(changed))
		for p := range changed {
			paths = append(paths, p)
		}
		select {
		case out <- Changed{Paths: paths}:
		default:
		}
		changed = make(map[string]bool)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue // access-only event
			}
			changed[ev.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			emit()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if base != "." && strings.HasPrefix(base, ".") {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if vcsDirs[part] {
			return true
		}
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	switch {
	case strings.HasSuffix(base, ".tmp"),
		strings.HasSuffix(base, ".lock"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, "~"):
		return true
	}
	return false
}
