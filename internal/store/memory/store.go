// Package memory keeps bookmarks in process memory. Nothing survives a
// restart; it backs local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/store"
)

var _ store.BookmarkStore = (*Store)(nil)

// Store indexes bookmarks by ID and by owner. Records are copied on the way
// in and out so callers never share them.
type Store struct {
	mu        sync.RWMutex
	bookmarks map[string]*domain.Bookmark // ID -> Bookmark
	owners    map[string][]string         // owner -> IDs, newest first
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		bookmarks: make(map[string]*domain.Bookmark),
		owners:    make(map[string][]string),
	}
}

// Insert adds or replaces a single bookmark
func (s *Store) Insert(_ context.Context, b *domain.Bookmark) error {
	c := clone(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.bookmarks[c.ID]; ok {
		s.unindexLocked(old)
	}
	s.bookmarks[c.ID] = c

	ids := append(s.owners[c.OwnerID], c.ID)
	slices.SortStableFunc(ids, func(a, b string) int {
		x, y := s.bookmarks[a], s.bookmarks[b]
		if n := y.CreatedAt.Compare(x.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(y.ID, x.ID)
	})
	s.owners[c.OwnerID] = ids
	return nil
}

// Get retrieves one of the owner's bookmarks by ID
func (s *Store) Get(_ context.Context, ownerID, id string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[id]
	if !ok || b.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return clone(b), nil
}

// List returns all of the owner's bookmarks, newest first
func (s *Store) List(_ context.Context, ownerID string) ([]*domain.Bookmark, error) {
	return s.newest(ownerID, 0), nil
}

// Summaries returns the owner's newest summaries, all of them when limit <= 0
func (s *Store) Summaries(_ context.Context, ownerID string, limit int) ([]domain.Summary, error) {
	return store.Summarize(s.newest(ownerID, limit)), nil
}

// Delete removes one of the owner's bookmarks
func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok || b.OwnerID != ownerID {
		return store.ErrNotFound
	}
	s.unindexLocked(b)
	delete(s.bookmarks, id)
	return nil
}

// Count returns the number of bookmarks across all owners
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookmarks)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) newest(ownerID string, limit int) []*domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.owners[ownerID]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.bookmarks[id]))
	}
	return out
}

func (s *Store) unindexLocked(b *domain.Bookmark) {
	ids := slices.DeleteFunc(s.owners[b.OwnerID], func(id string) bool { return id == b.ID })
	if len(ids) == 0 {
		delete(s.owners, b.OwnerID)
		return
	}
	s.owners[b.OwnerID] = ids
}

func clone(b *domain.Bookmark) *domain.Bookmark {
	c := *b
	c.Tags = slices.Clone(b.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}
