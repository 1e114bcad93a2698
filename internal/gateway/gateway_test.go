package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/store"
	sqlstore "github.com/MrSnakeDoc/smartmark/internal/store/sql"
	"github.com/MrSnakeDoc/smartmark/internal/store/storetest"
)

func newGateway(t *testing.T, broker realtime.Broker) *Gateway {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, "file:"+t.TempDir()+"/gw.db")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, broker, nil)
}

func next(t *testing.T, sub *realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return realtime.Event{}
}

func TestInsertAndDeletePublish(t *testing.T) {
	hub := realtime.NewHub(nil, nil)
	defer hub.Close()
	gw := newGateway(t, hub)
	ctx := context.Background()

	sub, err := gw.Subscribe(ctx, "alice")
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Close()

	b := storetest.Bookmark("alice", "b1", 0)
	if err := gw.Insert(ctx, b); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if e := next(t, sub); e.Type != realtime.EventInsert || e.ID != "b1" {
		t.Errorf("event = %+v, want INSERT b1", e)
	}

	if err := gw.Delete(ctx, "bob", "b1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign Delete() error = %v, want ErrNotFound", err)
	}
	if err := gw.Delete(ctx, "alice", "b1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if e := next(t, sub); e.Type != realtime.EventDelete || e.ID != "b1" {
		t.Errorf("event = %+v, want DELETE b1", e)
	}

	select {
	case e := <-sub.Events():
		t.Errorf("unexpected event %+v (failed delete must not publish)", e)
	default:
	}
}

type failingBroker struct{ realtime.Broker }

func (failingBroker) Publish(context.Context, realtime.Event) error {
	return errors.New("broker down")
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	gw := newGateway(t, failingBroker{})
	ctx := context.Background()

	if err := gw.Insert(ctx, storetest.Bookmark("alice", "b1", 0)); err != nil {
		t.Fatalf("Insert() error = %v, want nil despite broker failure", err)
	}
	list, err := gw.List(ctx, "alice")
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
}

func TestWithoutBroker(t *testing.T) {
	gw := newGateway(t, nil)
	ctx := context.Background()

	if err := gw.Insert(ctx, storetest.Bookmark("alice", "b1", 0)); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	sums, err := gw.Summaries(ctx, "alice", 0)
	if err != nil || len(sums) != 1 || sums[0] != (domain.Summary{ID: "b1", URL: "https://example.com/b1", Title: "Title b1"}) {
		t.Errorf("Summaries() = %+v, %v", sums, err)
	}
	if _, err := gw.Subscribe(ctx, "alice"); !errors.Is(err, realtime.ErrClosed) {
		t.Errorf("Subscribe() without broker error = %v, want ErrClosed", err)
	}
	if err := gw.Ping(ctx); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
