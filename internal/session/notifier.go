package session

import (
	"slices"
	"sync"
	"time"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
)

// DefaultNoticeDuration is how long a notice stays when Show is given 0.
const DefaultNoticeDuration = 5 * time.Second

type Notice struct {
	ID      uint64
	Kind    NoticeKind
	Message string
}

// Notifier holds transient user notices. Ids are unique per Notifier and
// increase monotonically.
type Notifier struct {
	mu      sync.Mutex
	nextID  uint64
	notices []Notice
	timers  map[uint64]*time.Timer
	closed  bool

	// OnChange, when set, is called after a notice is added or removed.
	// It runs without the lock held.
	OnChange func()
}

func NewNotifier() *Notifier {
	return &Notifier{timers: make(map[uint64]*time.Timer)}
}

// Show adds a notice removed after d. d == 0 means DefaultNoticeDuration,
// d < 0 keeps the notice until Dismiss.
func (n *Notifier) Show(kind NoticeKind, message string, d time.Duration) uint64 {
	if d == 0 {
		d = DefaultNoticeDuration
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.notices = append(n.notices, Notice{ID: id, Kind: kind, Message: message})
	if d > 0 && !n.closed {
		n.timers[id] = time.AfterFunc(d, func() { n.Dismiss(id) })
	}
	n.mu.Unlock()

	n.changed()
	return id
}

func (n *Notifier) Success(message string) uint64 { return n.Show(NoticeSuccess, message, 0) }
func (n *Notifier) Error(message string) uint64   { return n.Show(NoticeError, message, 0) }
func (n *Notifier) Info(message string) uint64    { return n.Show(NoticeInfo, message, 0) }
func (n *Notifier) Warning(message string) uint64 { return n.Show(NoticeWarning, message, 0) }

// Dismiss removes a notice and reports whether it was still present.
func (n *Notifier) Dismiss(id uint64) bool {
	n.mu.Lock()
	i := slices.IndexFunc(n.notices, func(x Notice) bool { return x.ID == id })
	if i >= 0 {
		n.notices = slices.Delete(n.notices, i, i+1)
	}
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	n.mu.Unlock()

	if i >= 0 {
		n.changed()
	}
	return i >= 0
}

// Active returns the current notices, oldest first.
func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.notices)
}

// Close stops every pending timer. Notices shown afterwards never expire.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
}

func (n *Notifier) changed() {
	if n.OnChange != nil {
		n.OnChange()
	}
}
