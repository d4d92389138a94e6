package notify

import (
	"sync"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

type multicastEntry struct {
	ref      Ref[model.NotificationListener]
	filter   model.NotificationFilter
	handback any
}

// MulticastListener fans a notification out to many weakly-held listeners.
// It implements model.NotificationListener and is safe for concurrent use.
//
// The listener list is copy-on-write: HandleNotification iterates a
// snapshot, so listeners may be added or removed while a delivery is in
// progress.
type MulticastListener struct {
	listenersLock sync.RWMutex
	listeners     []multicastEntry
}

// NewMulticastListener creates an empty MulticastListener.
func NewMulticastListener() *MulticastListener {
	return &MulticastListener{}
}

// Add subscribes the listener behind ref with the given handback.
// Adding the same listener twice has no additional effect.
func (m *MulticastListener) Add(ref Ref[model.NotificationListener], handback any) bool {
	return m.AddFiltered(ref, nil, handback)
}

// AddFiltered is Add with a filter. Notifications rejected by filter are
// not delivered to this listener.
func (m *MulticastListener) AddFiltered(ref Ref[model.NotificationListener], filter model.NotificationFilter, handback any) bool {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()

	next := make([]multicastEntry, 0, len(m.listeners)+1)
	for _, e := range m.listeners {
		if e.ref.Same(ref) {
			return false
		}
		if e.ref.Alive() {
			next = append(next, e)
		}
	}
	m.listeners = append(next, multicastEntry{ref: ref, filter: filter, handback: handback})
	return true
}

// Remove unsubscribes the listener behind ref. It reports whether the
// listener was subscribed.
func (m *MulticastListener) Remove(ref Ref[model.NotificationListener]) bool {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()

	removed := false
	next := make([]multicastEntry, 0, len(m.listeners))
	for _, e := range m.listeners {
		if e.ref.Same(ref) {
			removed = true
			continue
		}
		if e.ref.Alive() {
			next = append(next, e)
		}
	}
	m.listeners = next
	return removed
}

// RemoveListener unsubscribes l, matching by equality against the live
// listeners. It reports whether l was subscribed.
func (m *MulticastListener) RemoveListener(l model.NotificationListener) bool {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()

	removed := false
	next := make([]multicastEntry, 0, len(m.listeners))
	for _, e := range m.listeners {
		if !removed && e.ref.refers(l) {
			removed = true
			continue
		}
		if e.ref.Alive() {
			next = append(next, e)
		}
	}
	m.listeners = next
	return removed
}

// AddNotificationListener subscribes l. See Add.
func AddNotificationListener[T any, PT interface {
	*T
	model.NotificationListener
}](m *MulticastListener, l PT, handback any) bool {
	return m.Add(ListenerRef(l), handback)
}

// RemoveNotificationListener unsubscribes l. See Remove.
func RemoveNotificationListener[T any, PT interface {
	*T
	model.NotificationListener
}](m *MulticastListener, l PT) bool {
	return m.Remove(ListenerRef(l))
}

// HandleNotification delivers n sequentially to every live listener.
// The handback passed in is ignored; each listener receives the handback
// it was registered with.
func (m *MulticastListener) HandleNotification(n *model.Notification, _ any) {
	m.listenersLock.RLock()
	snapshot := m.listeners
	m.listenersLock.RUnlock()

	for _, e := range snapshot {
		if e.filter != nil && !e.filter(n) {
			continue
		}
		if l, ok := e.ref.Get(); ok {
			l.HandleNotification(n, e.handback)
		}
	}
}

// Len returns the number of live listeners.
func (m *MulticastListener) Len() int {
	m.listenersLock.RLock()
	defer m.listenersLock.RUnlock()

	n := 0
	for _, e := range m.listeners {
		if e.ref.Alive() {
			n++
		}
	}
	return n
}

// Purge drops entries whose listeners have been collected.
func (m *MulticastListener) Purge() {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()

	next := make([]multicastEntry, 0, len(m.listeners))
	for _, e := range m.listeners {
		if e.ref.Alive() {
			next = append(next, e)
		}
	}
	m.listeners = next
}

// Clear removes all listeners.
func (m *MulticastListener) Clear() {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()
	m.listeners = nil
}

// Compile-time interface satisfaction check.
var _ model.NotificationListener = (*MulticastListener)(nil)
