package notify

import (
	"reflect"
	"weak"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

// Ref is a weak reference to a listener of interface type L.
// Two Refs made from the same pointer are equal according to Same.
type Ref[L any] struct {
	key any
	get func() (L, bool)
}

// MakeRef creates a weak reference to p, viewed through conv as an L.
// conv must not capture p.
func MakeRef[L any, T any](p *T, conv func(*T) L) Ref[L] {
	wp := weak.Make(p)
	return Ref[L]{
		key: wp,
		get: func() (L, bool) {
			v := wp.Value()
			if v == nil {
				var zero L
				return zero, false
			}
			return conv(v), true
		},
	}
}

// ListenerRef creates a weak reference to a NotificationListener.
func ListenerRef[T any, PT interface {
	*T
	model.NotificationListener
}](l PT) Ref[model.NotificationListener] {
	return MakeRef((*T)(l), func(p *T) model.NotificationListener { return PT(p) })
}

// EventListenerRef creates a weak reference to a NotificationEventListener.
func EventListenerRef[T any, PT interface {
	*T
	model.NotificationEventListener
}](l PT) Ref[model.NotificationEventListener] {
	return MakeRef((*T)(l), func(p *T) model.NotificationEventListener { return PT(p) })
}

// StrongRef wraps l in a Ref that keeps l alive. Sources that receive
// listeners as interface values use it, since only pointers can be weakly
// referenced.
func StrongRef[L any](l L) Ref[L] {
	var key any = l
	if t := reflect.TypeOf(l); t == nil || !t.Comparable() {
		key = new(int)
	}
	return Ref[L]{
		key: key,
		get: func() (L, bool) { return l, true },
	}
}

// Get returns the referenced listener and true, or the zero value and false
// if it has been collected or the Ref is zero.
func (r Ref[L]) Get() (L, bool) {
	if r.get == nil {
		var zero L
		return zero, false
	}
	return r.get()
}

// Alive reports whether the referenced listener is still reachable.
func (r Ref[L]) Alive() bool {
	_, ok := r.Get()
	return ok
}

// Same reports whether r and other were made from the same pointer.
func (r Ref[L]) Same(other Ref[L]) bool {
	return r.key != nil && r.key == other.key
}

// refers reports whether r currently points at l.
func (r Ref[L]) refers(l any) bool {
	v, ok := r.Get()
	if !ok {
		return false
	}
	var got any = v
	if t := reflect.TypeOf(got); t == nil || !t.Comparable() || reflect.TypeOf(l) != t {
		return false
	}
	return got == l
}
