// Package cache stores JSON-serializable artifacts on disk with a
// time-to-live, writing them atomically via a temp-file-then-rename so a
// crash mid-write never corrupts an existing cache entry.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// ErrStale is returned by Load when the cached entry exists but is older
// than the requested TTL.
var ErrStale = errors.New("cache: entry is stale")

// envelope wraps a cached value with the time it was fetched, so Load can
// judge freshness without relying on filesystem mtimes (which atomic
// rename can perturb on some platforms).
type envelope[T any] struct {
	FetchedAtUnixSeconds int64 `json:"fetched_at_unix_seconds"`
	Payload              T    `json:"payload"`
}

// File is a single JSON artifact cached at path.
type File[T any] struct {
	path string
}

// NewFile returns a cache backed by the file at path.
func NewFile[T any](path string) *File[T] {
	return &File[T]{path: path}
}

// Load reads the cached value. If it is older than ttl, the value is still
// returned but err is ErrStale so the caller can decide whether to serve it
// anyway while a refresh is in flight. A ttl of 0 disables the staleness
// check.
func (f *File[T]) Load(ttl time.Duration) (T, error) {
	var zero T

	data, err := os.ReadFile(f.path)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, fmt.Errorf("cache: parse %s: %w", f.path, err)
	}

	fetchedAt := time.Unix(env.FetchedAtUnixSeconds, 0)
	if ttl > 0 && time.Since(fetchedAt) > ttl {
		return env.Payload, ErrStale
	}
	return env.Payload, nil
}

// Save writes value to the cache, stamped with the current fetch time,
// atomically.
func (f *File[T]) Save(value T) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}

	env := envelope[T]{FetchedAtUnixSeconds: time.Now().Unix(), Payload: value}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	return atomic.WriteFile(f.path, bytes.NewReader(data))
}

// Clear removes the cached file, if present.
func (f *File[T]) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
