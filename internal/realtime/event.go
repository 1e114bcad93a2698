// Package realtime fans bookmark changes out to every open session of the
// same owner.
package realtime

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one row change. New is set for INSERT and UPDATE.
type Event struct {
	Type    EventType        `json:"type"`
	OwnerID string           `json:"user_id"`
	ID      string           `json:"id"`
	New     *domain.Bookmark `json:"new,omitempty"`
}

func Inserted(b *domain.Bookmark) Event {
	return Event{Type: EventInsert, OwnerID: b.OwnerID, ID: b.ID, New: b}
}

func Updated(b *domain.Bookmark) Event {
	return Event{Type: EventUpdate, OwnerID: b.OwnerID, ID: b.ID, New: b}
}

func Deleted(ownerID, id string) Event {
	return Event{Type: EventDelete, OwnerID: ownerID, ID: id}
}

// Validate rejects events a reducer could not apply.
func (e Event) Validate() error {
	if e.OwnerID == "" || e.ID == "" {
		return errors.New("event without owner or id")
	}
	switch e.Type {
	case EventInsert, EventUpdate:
		if e.New == nil || e.New.ID != e.ID {
			return errors.New("row event without matching record")
		}
	case EventDelete:
	default:
		return errors.New("unknown event type " + string(e.Type))
	}
	return nil
}

// Broker publishes events and hands out owner scoped subscriptions.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe lasts until ctx is done or the subscription is closed.
	Subscribe(ctx context.Context, ownerID string) (*Subscription, error)
	Close() error
}

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("broker closed")

// Subscription delivers the events of one owner in publish order.
type Subscription struct {
	events <-chan Event
	cancel func()
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Close() { s.cancel() }
