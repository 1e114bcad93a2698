package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/store"
	"github.com/redis/go-redis/v9"
)

// Insert stores a bookmark and indexes it for its owner in one MULTI/EXEC
func (s *Store) Insert(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
		pipe.ZAdd(ctx, OwnerBookmarksKey(bookmark.OwnerID), redis.Z{
			Score:  float64(bookmark.CreatedAt.UnixMilli()),
			Member: bookmark.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert bookmark %s: %w", bookmark.ID, err)
	}

	return nil
}

// Get retrieves one of the owner's bookmarks by ID
func (s *Store) Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	if bookmark.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}

	return &bookmark, nil
}

// List retrieves all of the owner's bookmarks, newest first
func (s *Store) List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error) {
	return s.newest(ctx, ownerID, 0)
}

// Summaries returns the owner's newest summaries, all of them when limit <= 0
func (s *Store) Summaries(ctx context.Context, ownerID string, limit int) ([]domain.Summary, error) {
	bookmarks, err := s.newest(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return store.Summarize(bookmarks), nil
}

// Delete removes one of the owner's bookmarks
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	ownerKey := OwnerBookmarksKey(ownerID)

	// Membership in the owner's index is the ownership check
	if err := s.client.ZScore(ctx, ownerKey, id).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to check bookmark owner: %w", err)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BookmarkKey(id))
		pipe.ZRem(ctx, ownerKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	return nil
}

func (s *Store) newest(ctx context.Context, ownerID string, limit int) ([]*domain.Bookmark, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, OwnerBookmarksKey(ownerID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip index entries whose value is gone
			continue
		}
		var bookmark domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &bookmark); err != nil {
			continue
		}
		bookmarks = append(bookmarks, &bookmark)
	}

	return bookmarks, nil
}
