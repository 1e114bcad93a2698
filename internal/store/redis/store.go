package redis

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/smartmark/internal/store"
	"github.com/redis/go-redis/v9"
)

var _ store.BookmarkStore = (*Store)(nil)

// Store keeps bookmarks as JSON values indexed by a per-owner sorted set.
// Entries have no TTL: a bookmark lives until its owner deletes it.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close is a no-op: the client is shared with the change feed and closed by
// whoever opened it.
func (s *Store) Close() error {
	return nil
}
