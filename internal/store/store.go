// Package store defines the persistence contract for bookmarks. Backends live
// in the redis and sql subpackages.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

// ErrNotFound is returned when a bookmark does not exist for the given owner.
var ErrNotFound = errors.New("bookmark not found")

// BookmarkStore is scoped by owner on every read and delete. Insert is atomic:
// a bookmark is either fully stored or not at all.
type BookmarkStore interface {
	Insert(ctx context.Context, b *domain.Bookmark) error
	Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error)
	// List returns the owner's bookmarks, newest first.
	List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error)
	Delete(ctx context.Context, ownerID, id string) error
	// Summaries returns the newest limit summaries, all of them when limit <= 0.
	Summaries(ctx context.Context, ownerID string, limit int) ([]domain.Summary, error)
	Ping(ctx context.Context) error
	Close() error
}

// Summarize projects bookmarks to summaries, keeping order.
func Summarize(bookmarks []*domain.Bookmark) []domain.Summary {
	out := make([]domain.Summary, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = b.Summarize()
	}
	return out
}
