// Package storetest is a conformance suite shared by the store backends.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/store"
)

// Bookmark returns a populated bookmark created at the given offset from a
// fixed base time.
func Bookmark(owner, id string, offset time.Duration) *domain.Bookmark {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Add(offset)
	url := fmt.Sprintf("https://example.com/%s", id)
	return &domain.Bookmark{
		ID:         id,
		OwnerID:    owner,
		URL:        url,
		Title:      "Title " + id,
		Summary:    "Summary " + id,
		Category:   domain.CategoryTools,
		Tags:       []string{"go", id},
		FaviconURL: domain.FaviconURL(url),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

// Run exercises a BookmarkStore built by newStore. Each subtest gets a fresh
// store.
func Run(t *testing.T, newStore func(t *testing.T) store.BookmarkStore) {
	t.Run("InsertGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := Bookmark("alice", "b1", 0)

		if err := s.Insert(ctx, want); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
		got, err := s.Get(ctx, "alice", "b1")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
		got.CreatedAt, got.UpdatedAt = want.CreatedAt, want.UpdatedAt
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}

		if _, err := s.Get(ctx, "bob", "b1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() for another owner error = %v, want ErrNotFound", err)
		}
		if _, err := s.Get(ctx, "alice", "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListNewestFirstPerOwner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, b := range []*domain.Bookmark{
			Bookmark("alice", "old", 0),
			Bookmark("alice", "new", 2*time.Hour),
			Bookmark("alice", "mid", time.Hour),
			Bookmark("bob", "other", 3*time.Hour),
		} {
			if err := s.Insert(ctx, b); err != nil {
				t.Fatalf("Insert(%s) error: %v", b.ID, err)
			}
		}

		list, err := s.List(ctx, "alice")
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if got := ids(list); !reflect.DeepEqual(got, []string{"new", "mid", "old"}) {
			t.Errorf("List() ids = %v, want [new mid old]", got)
		}

		empty, err := s.List(ctx, "nobody")
		if err != nil || empty == nil || len(empty) != 0 {
			t.Errorf("List(nobody) = %v, %v, want empty non-nil slice", empty, err)
		}

		sums, err := s.Summaries(ctx, "alice", 2)
		if err != nil {
			t.Fatalf("Summaries() error: %v", err)
		}
		want := []domain.Summary{
			{ID: "new", URL: "https://example.com/new", Title: "Title new"},
			{ID: "mid", URL: "https://example.com/mid", Title: "Title mid"},
		}
		if !reflect.DeepEqual(sums, want) {
			t.Errorf("Summaries(limit=2) = %+v, want %+v", sums, want)
		}

		all, err := s.Summaries(ctx, "alice", 0)
		if err != nil || len(all) != 3 {
			t.Errorf("Summaries(limit=0) = %d entries, %v, want 3", len(all), err)
		}
	})

	t.Run("DeleteOwnerScoped", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Insert(ctx, Bookmark("alice", "b1", 0)); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}

		if err := s.Delete(ctx, "bob", "b1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Delete() by another owner error = %v, want ErrNotFound", err)
		}
		if _, err := s.Get(ctx, "alice", "b1"); err != nil {
			t.Fatalf("bookmark should survive a foreign delete: %v", err)
		}

		if err := s.Delete(ctx, "alice", "b1"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := s.Get(ctx, "alice", "b1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "alice", "b1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
		list, _ := s.List(ctx, "alice")
		if len(list) != 0 {
			t.Errorf("List() after delete = %v", ids(list))
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error: %v", err)
		}
	})
}

func ids(bs []*domain.Bookmark) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}
