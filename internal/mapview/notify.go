package mapview

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

const DefaultNotificationTTL = 3 * time.Second

type Notification struct {
	ID        uuid.UUID
	Kind      Kind
	Message   string
	CreatedAt time.Time
}

// Display shows and hides notifications, e.g. a terminal or a toast layer.
type Display interface {
	Show(n Notification)
	Dismiss(n Notification)
}

// Toaster keeps transient notifications and dismisses each one after its TTL.
// It is safe for concurrent use.
type Toaster struct {
	ttl     time.Duration
	display Display

	mu     sync.Mutex
	active []Notification
	timers map[uuid.UUID]*time.Timer
	closed bool
}

func NewToaster(ttl time.Duration, display Display) *Toaster {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Toaster{ttl: ttl, display: display, timers: map[uuid.UUID]*time.Timer{}}
}

func (t *Toaster) Notify(n Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.active = append(t.active, n)
	t.mu.Unlock()

	// Shown before the dismiss timer exists, so Dismiss never precedes Show.
	if t.display != nil {
		t.display.Show(n)
	}

	id := n.ID
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.timers[id] = time.AfterFunc(t.ttl, func() { t.dismiss(id) })
}

func (t *Toaster) dismiss(id uuid.UUID) {
	t.mu.Lock()
	delete(t.timers, id)
	var removed *Notification
	for i, n := range t.active {
		if n.ID == id {
			removed = &n
			t.active = append(t.active[:i], t.active[i+1:]...)
			break
		}
	}
	t.mu.Unlock()

	if removed != nil && t.display != nil {
		t.display.Dismiss(*removed)
	}
}

// Active returns the notifications still on screen, oldest first.
func (t *Toaster) Active() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, len(t.active))
	copy(out, t.active)
	return out
}

// Close stops pending dismissals. Later notifications are dropped.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
