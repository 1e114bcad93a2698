package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the per-owner pub/sub channels.
const ChannelPrefix = "smartmark:events:"

func ChannelName(ownerID string) string {
	return ChannelPrefix + ownerID
}

// RedisBroker shares the change feed between server instances through Redis
// pub/sub. Delivery is at most once, like the in-process Hub.
type RedisBroker struct {
	client  *redis.Client
	logger  logger.Logger
	metrics *metrics.Metrics
	buffer  int

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client, log logger.Logger, m *metrics.Metrics) *RedisBroker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisBroker{
		client:  client,
		logger:  log,
		metrics: m,
		buffer:  DefaultBuffer,
		done:    make(chan struct{}),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelName(e.OwnerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	select {
	case <-b.done:
		return nil, ErrClosed
	default:
	}

	ps := b.client.Subscribe(ctx, ChannelName(ownerID))
	// Wait for the subscription to be active so no event published after
	// Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event, b.buffer)

	b.metrics.SubscriberAdded()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.metrics.SubscriberRemoved()
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case <-b.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					b.logger.Warn("ignoring malformed event", logger.String("channel", msg.Channel), logger.Error(err))
					continue
				}
				if e.OwnerID != ownerID || e.Validate() != nil {
					continue
				}
				select {
				case out <- e:
				default:
					b.logger.Warn("dropping event for slow subscriber",
						logger.String("owner", ownerID),
						logger.String("bookmark_id", e.ID))
				}
			}
		}
	}()

	return &Subscription{events: out, cancel: cancel}, nil
}

// Close ends every subscription and waits for their goroutines. The redis
// client stays open.
func (b *RedisBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
	return nil
}
