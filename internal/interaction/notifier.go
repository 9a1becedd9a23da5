package interaction

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

const (
	// DefaultNotificationLifetime is how long a banner stays visible.
	DefaultNotificationLifetime = 5 * time.Second
	// DefaultMaxNotifications bounds the number of banners shown at once.
	DefaultMaxNotifications = 5
)

// Notification is a transient banner.
type Notification struct {
	ID       string
	Severity Severity
	Message  string
	ShownAt  time.Time
}

// NotifierConfig tunes a Notifier. Zero values select the defaults.
type NotifierConfig struct {
	Lifetime   time.Duration
	MaxVisible int
	Scheduler  Scheduler
	Now        func() time.Time
}

type banner struct {
	Notification
	timer Timer
}

// Notifier owns the banner area. The newest banner is first; each banner is
// removed when its lifetime elapses or when newer banners push it past the
// visible limit.
type Notifier struct {
	lifetime   time.Duration
	maxVisible int
	scheduler  Scheduler
	now        func() time.Time

	mu        sync.Mutex
	active    []banner
	listeners []func([]Notification)
	closed    bool
}

// NewNotifier constructs a Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	n := &Notifier{
		lifetime:   cfg.Lifetime,
		maxVisible: cfg.MaxVisible,
		scheduler:  cfg.Scheduler,
		now:        cfg.Now,
	}
	if n.lifetime <= 0 {
		n.lifetime = DefaultNotificationLifetime
	}
	if n.maxVisible <= 0 {
		n.maxVisible = DefaultMaxNotifications
	}
	if n.scheduler == nil {
		n.scheduler = SystemScheduler
	}
	if n.now == nil {
		n.now = time.Now
	}
	return n
}

// OnChange registers fn to receive the visible banners, newest first, after every change.
func (n *Notifier) OnChange(fn func([]Notification)) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Show inserts a banner at the top of the area. A closed notifier drops it.
func (n *Notifier) Show(severity Severity, message string) Notification {
	note := Notification{
		ID:       uuid.NewString(),
		Severity: severity,
		Message:  message,
		ShownAt:  n.now(),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return note
	}
	id := note.ID
	b := banner{Notification: note}
	b.timer = n.scheduler.AfterFunc(n.lifetime, func() { n.Dismiss(id) })
	n.active = slices.Insert(n.active, 0, b)
	for len(n.active) > n.maxVisible {
		evicted := n.active[len(n.active)-1]
		evicted.timer.Stop()
		n.active = n.active[:len(n.active)-1]
	}
	snapshot, listeners := n.snapshotLocked()
	n.mu.Unlock()

	notify(listeners, snapshot)
	return note
}

// Dismiss removes a banner before its lifetime elapses. It reports whether the banner was visible.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	idx := slices.IndexFunc(n.active, func(b banner) bool { return b.ID == id })
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.active[idx].timer.Stop()
	n.active = slices.Delete(n.active, idx, idx+1)
	snapshot, listeners := n.snapshotLocked()
	n.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

// Active returns the visible banners, newest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot, _ := n.snapshotLocked()
	return snapshot
}

// Close removes every banner and stops pending removals. Later calls to Show are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	hadBanners := len(n.active) > 0
	for _, b := range n.active {
		b.timer.Stop()
	}
	n.active = nil
	snapshot, listeners := n.snapshotLocked()
	n.mu.Unlock()

	if hadBanners {
		notify(listeners, snapshot)
	}
}

func (n *Notifier) snapshotLocked() ([]Notification, []func([]Notification)) {
	out := make([]Notification, len(n.active))
	for i, b := range n.active {
		out[i] = b.Notification
	}
	return out, slices.Clone(n.listeners)
}

func notify(listeners []func([]Notification), snapshot []Notification) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
