package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/store"
	"github.com/MrSnakeDoc/smartmark/internal/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.BookmarkStore {
		return NewStore()
	})
}

func TestReturnedBookmarksAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	b := storetest.Bookmark("alice", "b1", 0)
	if err := s.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.Title = "changed by caller"

	got, err := s.Get(ctx, "alice", "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Title b1" {
		t.Errorf("stored title = %q, caller mutation leaked in", got.Title)
	}
	got.Tags[0] = "mutated"

	again, _ := s.Get(ctx, "alice", "b1")
	if again.Tags[0] != "go" {
		t.Errorf("tags = %v, caller mutation leaked in", again.Tags)
	}
}

func TestInsertReplacesSameID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.Insert(ctx, storetest.Bookmark("alice", "b1", 0))
	_ = s.Insert(ctx, storetest.Bookmark("alice", "b1", time.Hour))

	list, _ := s.List(ctx, "alice")
	if len(list) != 1 || s.Count() != 1 {
		t.Errorf("List() = %d entries, Count() = %d, want 1", len(list), s.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Insert(ctx, storetest.Bookmark("alice", fmt.Sprintf("b%d", i), time.Duration(i)*time.Second))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.List(ctx, "alice")
		}()
	}
	wg.Wait()

	if s.Count() != 50 {
		t.Errorf("Count() = %d, want 50", s.Count())
	}
}
