package realtime

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length. A subscriber whose queue
// is full loses events; its session recovers by re-fetching the list.
const DefaultBuffer = 64

// Hub is an in-process Broker for single instance deployments.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]map[*hubSub]struct{}
	closed  bool
	buffer  int
	logger  logger.Logger
	metrics *metrics.Metrics
}

type hubSub struct {
	owner string
	ch    chan Event
	once  sync.Once
}

var _ Broker = (*Hub)(nil)

func NewHub(log logger.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		subs:    make(map[string]map[*hubSub]struct{}),
		buffer:  DefaultBuffer,
		logger:  log,
		metrics: m,
	}
}

// Publish never blocks on a slow subscriber.
func (h *Hub) Publish(_ context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	for s := range h.subs[e.OwnerID] {
		select {
		case s.ch <- e:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				logger.String("owner", e.OwnerID),
				logger.String("type", string(e.Type)),
				logger.String("bookmark_id", e.ID))
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	s := &hubSub{owner: ownerID, ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	set := h.subs[ownerID]
	if set == nil {
		set = make(map[*hubSub]struct{})
		h.subs[ownerID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriberAdded()

	stop := context.AfterFunc(ctx, func() { h.remove(s) })
	return &Subscription{
		events: s.ch,
		cancel: func() {
			stop()
			h.remove(s)
		},
	}, nil
}

// Close ends every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	var all []*hubSub
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		h.remove(s)
	}
	return nil
}

func (h *Hub) remove(s *hubSub) {
	s.once.Do(func() {
		h.mu.Lock()
		if set := h.subs[s.owner]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.owner)
			}
		}
		close(s.ch)
		h.mu.Unlock()

		h.metrics.SubscriberRemoved()
	})
}

// subscribers counts the live subscriptions of an owner.
func (h *Hub) subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}
