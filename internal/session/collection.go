// Package session keeps a client-side copy of one owner's bookmarks in sync
// with the server: an initial read, then the change feed.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
)

// Source is the authoritative side of a Collection.
type Source interface {
	List(ctx context.Context) ([]*domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// Collection is the owner's bookmark list, newest first.
//
// Every change, local or remote, goes through Apply, which is idempotent:
// the echo of a local insert or delete arriving on the feed changes nothing.
type Collection struct {
	src Source
	log logger.Logger
	now func() time.Time

	mu        sync.RWMutex
	bookmarks []*domain.Bookmark
	changed   chan struct{}

	refreshSeq  atomic.Uint64 // last Refresh started
	refreshDone uint64        // last Refresh applied, guarded by mu
}

func NewCollection(src Source, log logger.Logger) *Collection {
	if log == nil {
		log = logger.Nop()
	}
	return &Collection{
		src:     src,
		log:     log,
		now:     time.Now,
		changed: make(chan struct{}, 1),
	}
}

// Changed receives a value after each state change. Consecutive changes
// may be coalesced into one notification.
func (c *Collection) Changed() <-chan struct{} { return c.changed }

func (c *Collection) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Refresh replaces the local list with an authoritative read. On error the
// local list is left as it was. A read that finishes after a later Refresh
// has already been applied is dropped.
func (c *Collection) Refresh(ctx context.Context) error {
	seq := c.refreshSeq.Add(1)
	list, err := c.src.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh bookmarks: %w", err)
	}

	c.mu.Lock()
	if seq < c.refreshDone {
		c.mu.Unlock()
		c.log.Debug("dropping stale refresh", logger.Int("seq", int(seq)))
		return nil
	}
	c.refreshDone = seq
	c.bookmarks = slices.Clone(list)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Apply folds one change event into the list and reports whether anything
// changed. INSERT of a known id, UPDATE of an unknown id and DELETE of an
// unknown id are no-ops.
func (c *Collection) Apply(e realtime.Event) bool {
	if err := e.Validate(); err != nil {
		c.log.Debug("ignoring invalid event", logger.Error(err))
		return false
	}

	c.mu.Lock()
	changed := c.applyLocked(e)
	c.mu.Unlock()

	if changed {
		c.notify()
	}
	return changed
}

func (c *Collection) applyLocked(e realtime.Event) bool {
	i := c.indexLocked(e.ID)
	switch e.Type {
	case realtime.EventInsert:
		if i >= 0 {
			return false
		}
		c.bookmarks = slices.Insert(c.bookmarks, 0, e.New)
		return true
	case realtime.EventUpdate:
		if i < 0 {
			return false
		}
		c.bookmarks[i] = e.New
		return true
	case realtime.EventDelete:
		if i < 0 {
			return false
		}
		c.bookmarks = slices.Delete(c.bookmarks, i, i+1)
		return true
	}
	return false
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.bookmarks, func(b *domain.Bookmark) bool { return b.ID == id })
}

// Run applies events in arrival order until ctx is done or events is
// closed, in which case it returns nil. applied, when set, is called after
// each event that changed the list.
func (c *Collection) Run(ctx context.Context, events <-chan realtime.Event, applied func(realtime.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if c.Apply(e) && applied != nil {
				applied(e)
			}
		}
	}
}

// Delete removes id locally, then from the source. If the source refuses,
// the local list is rebuilt from an authoritative read and the delete error
// is returned.
func (c *Collection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	owner := ""
	if i := c.indexLocked(id); i >= 0 {
		owner = c.bookmarks[i].OwnerID
	}
	c.mu.Unlock()
	if owner != "" {
		c.Apply(realtime.Deleted(owner, id))
	}

	err := c.src.Delete(ctx, id)
	if err == nil {
		return nil
	}

	if rerr := c.Refresh(ctx); rerr != nil {
		c.log.Warn("failed to restore bookmarks after delete error", logger.String("id", id), logger.Error(rerr))
	}
	return fmt.Errorf("delete bookmark %s: %w", id, err)
}

// Bookmarks returns a copy of the list, newest first.
func (c *Collection) Bookmarks() []*domain.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.bookmarks)
}

// Len returns the number of bookmarks held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bookmarks)
}

// View filters and orders the list with q.
func (c *Collection) View(q domain.ListQuery) []*domain.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return q.Apply(c.bookmarks)
}

func (c *Collection) Stats() domain.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ComputeStats(c.bookmarks, c.now())
}
