package accessor

import (
	"sync"
	"sync/atomic"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

// Accessor is the kind-independent view of an accessor.
type Accessor interface {
	// Identity returns the feature identity (attribute name or first
	// notification type).
	Identity() string

	// Kind returns the feature kind.
	Kind() model.Kind

	// IsConnected reports whether the accessor holds a live support reference.
	IsConnected() bool

	// ProcessEvent applies a feature lifecycle event. It returns false if
	// the event does not concern this accessor.
	ProcessEvent(event model.FeatureEvent) bool

	// Close releases the accessor. Safe to call more than once.
	Close() error
}

// Feature is an Accessor with typed metadata.
type Feature[M model.Metadata] interface {
	Accessor
	Metadata() M
}

// Hooks customize a FeatureAccessor. All hooks are optional. They run under
// the accessor's lifecycle lock and must not call back into Connect,
// Disconnect or Close of the same accessor.
type Hooks struct {
	// Connect binds the accessor to support. It returns false if support
	// has the wrong shape; the accessor then stays disconnected.
	Connect func(support any) bool

	// Release undoes Connect. Errors are the hook's to swallow.
	Release func()

	// Disconnected runs once, after the first Close.
	Disconnected func()
}

// FeatureAccessor is the state machine shared by all accessors. Embed it
// and supply Hooks.
type FeatureAccessor[M model.Metadata] struct {
	metadata M
	hooks    Hooks

	// lifecycle serializes Connect, Disconnect and Close.
	lifecycle sync.Mutex
	connected atomic.Bool
	closed    atomic.Bool
}

// NewFeatureAccessor creates a disconnected accessor for metadata.
func NewFeatureAccessor[M model.Metadata](metadata M, hooks Hooks) *FeatureAccessor[M] {
	return &FeatureAccessor[M]{metadata: metadata, hooks: hooks}
}

// Metadata returns the feature metadata.
func (a *FeatureAccessor[M]) Metadata() M {
	return a.metadata
}

// Identity returns the feature identity.
func (a *FeatureAccessor[M]) Identity() string {
	return a.metadata.Identity()
}

// Kind returns the feature kind.
func (a *FeatureAccessor[M]) Kind() model.Kind {
	return a.metadata.Kind()
}

// IsConnected reports whether the accessor is connected.
func (a *FeatureAccessor[M]) IsConnected() bool {
	return a.connected.Load()
}

// IsClosed reports whether Close has been called.
func (a *FeatureAccessor[M]) IsClosed() bool {
	return a.closed.Load()
}

// Connect binds the accessor to support, releasing any previous binding.
// It returns false if the accessor is closed or the Connect hook rejects
// support.
func (a *FeatureAccessor[M]) Connect(support any) bool {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if a.closed.Load() {
		return false
	}
	a.releaseLocked()

	if a.hooks.Connect != nil && !a.hooks.Connect(support) {
		return false
	}
	a.connected.Store(true)
	return true
}

// Disconnect releases the current binding without closing the accessor.
func (a *FeatureAccessor[M]) Disconnect() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	a.releaseLocked()
}

func (a *FeatureAccessor[M]) releaseLocked() {
	if a.connected.Swap(false) && a.hooks.Release != nil {
		a.hooks.Release()
	}
}

// ProcessEvent applies event if it concerns this accessor's feature.
func (a *FeatureAccessor[M]) ProcessEvent(event model.FeatureEvent) bool {
	if event == nil || !model.SameFeature(event.Feature(), a.metadata) {
		return false
	}
	switch e := event.(type) {
	case model.FeatureAdded:
		return a.Connect(e.Support)
	case model.FeatureModified:
		return a.Connect(e.Support)
	case model.FeatureRemoving:
		a.Disconnect()
		return true
	default:
		return false
	}
}

// Close disconnects the accessor for good. The first call runs the Release
// and Disconnected hooks; later calls do nothing.
func (a *FeatureAccessor[M]) Close() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if a.closed.Swap(true) {
		return nil
	}
	a.releaseLocked()
	if a.hooks.Disconnected != nil {
		a.hooks.Disconnected()
	}
	return nil
}

// Remove deletes and closes the first accessor in accessors whose feature
// matches metadata. It returns the removed accessor.
func Remove[K comparable, A Accessor](accessors map[K]A, metadata model.Metadata) (A, bool) {
	for k, a := range accessors {
		if matches(a, metadata) {
			delete(accessors, k)
			_ = a.Close()
			return a, true
		}
	}
	var zero A
	return zero, false
}

// RemoveAll deletes and closes every accessor in accessors whose feature
// matches metadata.
func RemoveAll[K comparable, A Accessor](accessors map[K]A, metadata model.Metadata) []A {
	var removed []A
	for k, a := range accessors {
		if matches(a, metadata) {
			delete(accessors, k)
			_ = a.Close()
			removed = append(removed, a)
		}
	}
	return removed
}

// RemoveFromSlice is RemoveAll for slices. It returns the kept accessors,
// reusing the backing array, and the removed ones.
func RemoveFromSlice[A Accessor](accessors []A, metadata model.Metadata) ([]A, []A) {
	var removed []A
	kept := accessors[:0]
	for _, a := range accessors {
		if matches(a, metadata) {
			_ = a.Close()
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	clear(accessors[len(kept):])
	return kept, removed
}

func matches(a Accessor, metadata model.Metadata) bool {
	return metadata != nil && a.Kind() == metadata.Kind() && a.Identity() == metadata.Identity()
}
