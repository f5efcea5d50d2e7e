package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/reviewloop/octoreview/internal/cache"
)

// ErrCommentNotFound is returned when a comment ID has no match.
var ErrCommentNotFound = errors.New("review: comment not found")

// Store persists pending comments for a single (repo, PR) review in
// progress, across process restarts.
type Store interface {
	// List returns every comment, sorted by path then line.
	List(ctx context.Context) ([]Comment, error)
	// Add appends a new pending comment, assigning it an ID.
	Add(ctx context.Context, c Comment) (Comment, error)
	// Update replaces the comment with the given ID.
	Update(ctx context.Context, c Comment) error
	// Delete removes a comment by ID. Returns ErrCommentNotFound if absent.
	Delete(ctx context.Context, id string) error
	// Clear removes every comment (used after a successful submit).
	Clear(ctx context.Context) error
}

type fileEntry struct {
	Comments []Comment `json:"comments"`
}

// FileStore is a JSON-file backed Store, one file per (repo, PR) review.
type FileStore struct {
	mu   sync.Mutex
	file *cache.File[fileEntry]
}

// NewFileStore returns a Store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{file: cache.NewFile[fileEntry](path)}
}

func (s *FileStore) load() fileEntry {
	entry, err := s.file.Load(0)
	if err != nil {
		return fileEntry{}
	}
	return entry
}

func (s *FileStore) save(entry fileEntry) error {
	return s.file.Save(entry)
}

func (s *FileStore) List(ctx context.Context) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.load()
	out := make([]Comment, len(entry.Comments))
	copy(out, entry.Comments)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Line < out[j].Line
	})
	return out, nil
}

func (s *FileStore) Add(ctx context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	entry := s.load()
	entry.Comments = append(entry.Comments, c)
	if err := s.save(entry); err != nil {
		return Comment{}, fmt.Errorf("review: save comment: %w", err)
	}
	return c, nil
}

func (s *FileStore) Update(ctx context.Context, c Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.load()
	for i, existing := range entry.Comments {
		if existing.ID == c.ID {
			entry.Comments[i] = c
			return s.save(entry)
		}
	}
	return ErrCommentNotFound
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.load()
	for i, existing := range entry.Comments {
		if existing.ID == id {
			entry.Comments = append(entry.Comments[:i], entry.Comments[i+1:]...)
			return s.save(entry)
		}
	}
	return ErrCommentNotFound
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(fileEntry{})
}
