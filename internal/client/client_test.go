package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/api"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "tok", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bookmarks" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var body api.CreateBookmarkRequest
		_ = json.NewDecoder(r.Body).Decode(&body)

		if body.URL == "https://dup.example.com" {
			writeJSON(w, http.StatusConflict, api.ErrorResponse{
				Error: "Duplicate bookmark detected", Duplicate: true, Confidence: 100, ExistingBookmarkID: "b-1",
			})
			return
		}
		warning := "AI processing failed. Bookmark saved with basic info."
		writeJSON(w, http.StatusCreated, api.CreateBookmarkResponse{
			Bookmark: &domain.Bookmark{ID: "b-2", URL: body.URL, Title: body.Title},
			Warning:  &warning,
		})
	})

	res, err := c.Create(context.Background(), "https://example.com", "Example")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if res.Bookmark.ID != "b-2" || res.Bookmark.Title != "Example" || res.Warning == nil {
		t.Errorf("Create() = %+v", res)
	}

	_, err = c.Create(context.Background(), "https://dup.example.com", "")
	dup, ok := IsDuplicate(err)
	if !ok {
		t.Fatalf("Create() error = %v, want duplicate", err)
	}
	if dup.Body.ExistingBookmarkID != "b-1" || dup.Body.Confidence != 100 {
		t.Errorf("duplicate body = %+v", dup.Body)
	}
}

func TestBookmarksQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "go" || q.Get("category") != "Tools" || q.Get("tag") != "lang" || q.Get("sort") != "oldest" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, api.ListBookmarksResponse{
			Bookmarks: []*domain.Bookmark{{ID: "a"}},
			Stats:     domain.Stats{Total: 1},
		})
	})

	res, err := c.Bookmarks(context.Background(), domain.ListQuery{
		Search: "go", Category: domain.CategoryTools, Tag: "lang", Sort: domain.SortOldest,
	})
	if err != nil {
		t.Fatalf("Bookmarks() error: %v", err)
	}
	if len(res.Bookmarks) != 1 || res.Stats.Total != 1 {
		t.Errorf("Bookmarks() = %+v", res)
	}
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		switch r.URL.Path {
		case "/api/bookmarks/a":
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Bookmark not found"})
		}
	})

	if err := c.Delete(context.Background(), "a"); err != nil {
		t.Errorf("Delete(a) error: %v", err)
	}

	err := c.Delete(context.Background(), "missing")
	apiErr, ok := err.(*Error)
	if !ok || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Delete(missing) error = %v", err)
	}
	if !strings.Contains(err.Error(), "Bookmark not found") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestStreamFeedsCollection(t *testing.T) {
	b := &domain.Bookmark{ID: "x", OwnerID: "alice", URL: "https://example.com", Title: "X"}
	inserted, _ := json.Marshal(realtime.Inserted(b))
	deleted, _ := json.Marshal(realtime.Deleted("alice", "x"))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/bookmarks":
			writeJSON(w, http.StatusOK, api.ListBookmarksResponse{Bookmarks: []*domain.Bookmark{}})
		case "/api/events":
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", api.EventReady)
			fmt.Fprint(w, ": heartbeat\n\n")
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", api.EventChange, inserted)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", api.EventChange, inserted)
			fmt.Fprint(w, "event: change\ndata: not json\n\n")
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", api.EventChange, deleted)
		}
	})

	col := session.NewCollection(c, nil)
	if err := col.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	events, err := c.Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var seen []realtime.EventType
	for e := range events {
		seen = append(seen, e.Type)
		col.Apply(e)
	}

	want := []realtime.EventType{realtime.EventInsert, realtime.EventInsert, realtime.EventDelete}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", seen, want)
	}
	if col.Len() != 0 {
		t.Errorf("collection = %d bookmarks, want 0", col.Len())
	}
}

func TestStreamUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
	})

	_, err := c.Stream(context.Background())
	apiErr, ok := err.(*Error)
	if !ok || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Stream() error = %v, want 401", err)
	}
}

func TestNewRejectsEmptyURL(t *testing.T) {
	if _, err := New(" ", "", time.Second); err == nil {
		t.Error("New() with empty url should fail")
	}
	c, err := New("localhost:8080", "", time.Second)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := c.endpoint("/api/bookmarks", nil); got != "http://localhost:8080/api/bookmarks" {
		t.Errorf("endpoint = %q", got)
	}
}
