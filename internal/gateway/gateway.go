// Package gateway is the single entry point to bookmark persistence. Every
// successful write is announced on the change feed.
package gateway

import (
	"context"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/store"
)

type Gateway struct {
	store  store.BookmarkStore
	broker realtime.Broker
	logger logger.Logger
}

// New wires a store to a broker. broker may be nil when no change feed is
// needed (CLI tools, tests).
func New(s store.BookmarkStore, broker realtime.Broker, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{store: s, broker: broker, logger: log}
}

// Insert persists b, then publishes an INSERT event. A publish failure is
// logged only: the stored record is authoritative.
func (g *Gateway) Insert(ctx context.Context, b *domain.Bookmark) error {
	if err := g.store.Insert(ctx, b); err != nil {
		return err
	}
	g.publish(ctx, realtime.Inserted(b))
	return nil
}

// Delete removes one of the owner's bookmarks, then publishes a DELETE event.
func (g *Gateway) Delete(ctx context.Context, ownerID, id string) error {
	if err := g.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	g.publish(ctx, realtime.Deleted(ownerID, id))
	return nil
}

func (g *Gateway) Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error) {
	return g.store.Get(ctx, ownerID, id)
}

func (g *Gateway) List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error) {
	return g.store.List(ctx, ownerID)
}

func (g *Gateway) Summaries(ctx context.Context, ownerID string, limit int) ([]domain.Summary, error) {
	return g.store.Summaries(ctx, ownerID, limit)
}

func (g *Gateway) Subscribe(ctx context.Context, ownerID string) (*realtime.Subscription, error) {
	if g.broker == nil {
		return nil, realtime.ErrClosed
	}
	return g.broker.Subscribe(ctx, ownerID)
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

func (g *Gateway) publish(ctx context.Context, e realtime.Event) {
	if g.broker == nil {
		return
	}
	// Events go out even when the caller has gone away.
	if err := g.broker.Publish(context.WithoutCancel(ctx), e); err != nil {
		g.logger.Warn("failed to publish change event",
			logger.String("type", string(e.Type)),
			logger.String("bookmark_id", e.ID),
			logger.Error(err))
	}
}
