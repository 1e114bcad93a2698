package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu        sync.Mutex
	rows      []*domain.Bookmark
	listErr   error
	deleteErr error
	lists     int
}

func (f *fakeSource) List(context.Context) ([]*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Bookmark, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSource) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, b := range f.rows {
		if b.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func bm(id string, minutes int) *domain.Bookmark {
	return &domain.Bookmark{
		ID:        id,
		OwnerID:   "alice",
		URL:       "https://example.com/" + id,
		Title:     "Bookmark " + id,
		Category:  domain.CategoryTools,
		Tags:      []string{id},
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(list []*domain.Bookmark) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func loaded(t *testing.T, src *fakeSource) *Collection {
	t.Helper()
	c := NewCollection(src, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	return c
}

func TestApplyIsIdempotent(t *testing.T) {
	c := loaded(t, &fakeSource{rows: []*domain.Bookmark{bm("b", 2), bm("a", 1)}})

	renamed := bm("a", 1)
	renamed.Title = "Renamed"

	steps := []struct {
		name        string
		event       realtime.Event
		wantChanged bool
		want        []string
	}{
		{"insert new", realtime.Inserted(bm("c", 3)), true, []string{"c", "b", "a"}},
		{"insert echo", realtime.Inserted(bm("c", 3)), false, []string{"c", "b", "a"}},
		{"update known", realtime.Updated(renamed), true, []string{"c", "b", "a"}},
		{"update unknown", realtime.Updated(bm("zz", 9)), false, []string{"c", "b", "a"}},
		{"delete known", realtime.Deleted("alice", "b"), true, []string{"c", "a"}},
		{"delete again", realtime.Deleted("alice", "b"), false, []string{"c", "a"}},
		{"invalid", realtime.Event{Type: "TRUNCATE", OwnerID: "alice", ID: "a"}, false, []string{"c", "a"}},
	}

	for _, s := range steps {
		if got := c.Apply(s.event); got != s.wantChanged {
			t.Errorf("%s: Apply() = %v, want %v", s.name, got, s.wantChanged)
		}
		if got := ids(c.Bookmarks()); !equal(got, s.want) {
			t.Errorf("%s: list = %v, want %v", s.name, got, s.want)
		}
	}

	if got := c.Bookmarks()[1].Title; got != "Renamed" {
		t.Errorf("updated title = %q", got)
	}
}

func TestDeleteTwoPhase(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		src := &fakeSource{rows: []*domain.Bookmark{bm("b", 2), bm("a", 1)}}
		c := loaded(t, src)

		if err := c.Delete(context.Background(), "a"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if got := ids(c.Bookmarks()); !equal(got, []string{"b"}) {
			t.Errorf("list = %v", got)
		}
		// The feed echo of the same delete is a no-op.
		if c.Apply(realtime.Deleted("alice", "a")) {
			t.Error("echoed delete changed the collection")
		}
	})

	t.Run("failure restores from source", func(t *testing.T) {
		src := &fakeSource{rows: []*domain.Bookmark{bm("b", 2), bm("a", 1)}}
		c := loaded(t, src)

		// A row the local copy has not seen yet shows up on re-read.
		src.mu.Lock()
		src.rows = append([]*domain.Bookmark{bm("c", 3)}, src.rows...)
		src.deleteErr = errors.New("500 Internal Server Error")
		src.mu.Unlock()

		err := c.Delete(context.Background(), "a")
		if err == nil {
			t.Fatal("Delete() should return the source error")
		}
		if got := ids(c.Bookmarks()); !equal(got, []string{"c", "b", "a"}) {
			t.Errorf("list = %v, want the authoritative [c b a]", got)
		}
		if src.lists != 2 {
			t.Errorf("List() calls = %d, want 2", src.lists)
		}
	})
}

func TestRefreshErrorKeepsState(t *testing.T) {
	src := &fakeSource{rows: []*domain.Bookmark{bm("a", 1)}}
	c := loaded(t, src)
	src.listErr = errors.New("offline")

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should fail")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

// slowSource answers its first List only after release is closed.
type slowSource struct {
	fakeSource
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	stale   []*domain.Bookmark
}

func (s *slowSource) List(ctx context.Context) ([]*domain.Bookmark, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		<-s.release
		return s.stale, nil
	}
	return s.fakeSource.List(ctx)
}

func TestRefreshDropsStaleRead(t *testing.T) {
	src := &slowSource{
		fakeSource: fakeSource{rows: []*domain.Bookmark{bm("new", 2)}},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
		stale:      []*domain.Bookmark{bm("old", 1)},
	}
	c := NewCollection(src, nil)

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-src.entered

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh() error: %v", err)
	}
	close(src.release)
	if err := <-done; err != nil {
		t.Fatalf("first Refresh() error: %v", err)
	}

	if got := ids(c.Bookmarks()); !equal(got, []string{"new"}) {
		t.Errorf("bookmarks = %v, want [new]", got)
	}
}

func TestRun(t *testing.T) {
	c := loaded(t, &fakeSource{})
	events := make(chan realtime.Event, 3)
	events <- realtime.Inserted(bm("a", 1))
	events <- realtime.Inserted(bm("b", 2))
	events <- realtime.Deleted("alice", "a")
	close(events)

	var applied []string
	record := func(e realtime.Event) { applied = append(applied, string(e.Type)+" "+e.ID) }

	if err := c.Run(context.Background(), events, record); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := ids(c.Bookmarks()); !equal(got, []string{"b"}) {
		t.Errorf("list = %v", got)
	}
	if !equal(applied, []string{"INSERT a", "INSERT b", "DELETE a"}) {
		t.Errorf("applied = %v", applied)
	}

	// Re-delivered events change nothing and are not reported.
	applied = nil
	again := make(chan realtime.Event, 2)
	again <- realtime.Inserted(bm("b", 2))
	again <- realtime.Deleted("alice", "a")
	close(again)
	if err := c.Run(context.Background(), again, record); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want nothing", applied)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, make(chan realtime.Event), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestChangedCoalesces(t *testing.T) {
	c := loaded(t, &fakeSource{})
	<-c.Changed() // from Refresh

	c.Apply(realtime.Inserted(bm("a", 1)))
	c.Apply(realtime.Inserted(bm("b", 2)))

	select {
	case <-c.Changed():
	default:
		t.Fatal("no change notification")
	}
	select {
	case <-c.Changed():
		t.Fatal("notifications were not coalesced")
	default:
	}
}

func TestViewAndStats(t *testing.T) {
	news := bm("n", 5)
	news.Category = domain.CategoryNews
	news.Title = "Alpha news"

	c := loaded(t, &fakeSource{rows: []*domain.Bookmark{news, bm("b", 2), bm("a", 1)}})
	c.now = func() time.Time { return base.Add(time.Hour) }

	got := ids(c.View(domain.ListQuery{Category: domain.CategoryTools, Sort: domain.SortOldest}))
	if !equal(got, []string{"a", "b"}) {
		t.Errorf("View() = %v", got)
	}
	if got := ids(c.View(domain.ListQuery{Search: "alpha"})); !equal(got, []string{"n"}) {
		t.Errorf("View(search) = %v", got)
	}

	want := domain.Stats{Total: 3, Categories: 2, Tags: 3, ThisWeek: 3}
	if s := c.Stats(); s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}
