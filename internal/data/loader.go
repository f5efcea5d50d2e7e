// Package data implements the async data layer: a cache-backed loader that
// serves a cached snapshot immediately and revalidates it in the
// background, pushing updates to subscribers through a coalescing channel.
package data

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/reviewloop/octoreview/internal/cache"
)

// Status tags a DataState.
type Status int

const (
	Loading Status = iota
	Loaded
	Errored
)

// State is what a subscriber receives: a tagged union of Loading, Loaded,
// or Errored.
type State[T any] struct {
	Status   Status
	Snapshot T
	Err      error
}

// FetchFunc fetches a fresh snapshot, normally by shelling out to the forge
// CLI.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader serves cached snapshots of type T and revalidates them in the
// background. One Loader exists per (repo, number)-shaped cache key.
type Loader[T any] struct {
	cache *cache.File[T]
	ttl   time.Duration
	fetch FetchFunc[T]

	mu      sync.Mutex
	subs    []chan State[T]
	current T
	hasData bool
}

// New returns a Loader backed by the JSON artifact at cachePath, using fetch
// to populate or revalidate it.
func New[T any](cachePath string, ttl time.Duration, fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{
		cache: cache.NewFile[T](cachePath),
		ttl:   ttl,
		fetch: fetch,
	}
}

// Subscribe returns a buffered channel that receives this Loader's state.
// Sends never block: once the buffer is full, the oldest queued state is
// dropped and replaced with the latest, so a slow consumer only ever loses
// superseded updates, never falls behind indefinitely.
func (l *Loader[T]) Subscribe() <-chan State[T] {
	ch := make(chan State[T], 64)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch
}

func (l *Loader[T]) broadcast(s State[T]) {
	l.mu.Lock()
	subs := l.subs
	l.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// Slot full: drain the stale value and replace it so the
			// consumer's next drain sees the latest state, not a backlog.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Load serves the cached snapshot if present (emitting Loaded immediately)
// and always launches a background fetch to revalidate it. force skips the
// cache-hit short circuit, going straight to Loading + fetch.
func (l *Loader[T]) Load(ctx context.Context, force bool) {
	if !force {
		if snapshot, err := l.cache.Load(0); err == nil {
			l.setCurrent(snapshot)
			l.broadcast(State[T]{Status: Loaded, Snapshot: snapshot})
			go l.revalidate(ctx, snapshot)
			return
		}
	}

	l.broadcast(State[T]{Status: Loading})
	go l.fetchAndPublish(ctx, false)
}

// Refresh forces a fresh fetch, as if Load(ctx, true) were called.
func (l *Loader[T]) Refresh(ctx context.Context) {
	l.Load(ctx, true)
}

func (l *Loader[T]) revalidate(ctx context.Context, cached T) {
	fresh, err := l.fetch(ctx)
	if err != nil {
		l.broadcast(State[T]{Status: Errored, Err: err})
		return
	}
	if reflect.DeepEqual(cached, fresh) {
		return // no-change: stay silent
	}
	_ = l.cache.Save(fresh)
	l.setCurrent(fresh)
	l.broadcast(State[T]{Status: Loaded, Snapshot: fresh})
}

func (l *Loader[T]) fetchAndPublish(ctx context.Context, _ bool) {
	fresh, err := l.fetch(ctx)
	if err != nil {
		l.broadcast(State[T]{Status: Errored, Err: err})
		return
	}
	_ = l.cache.Save(fresh)
	l.setCurrent(fresh)
	l.broadcast(State[T]{Status: Loaded, Snapshot: fresh})
}

func (l *Loader[T]) setCurrent(v T) {
	l.mu.Lock()
	l.current = v
	l.hasData = true
	l.mu.Unlock()
}

// Current returns the most recently published snapshot, if any.
func (l *Loader[T]) Current() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.hasData
}
