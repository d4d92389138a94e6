package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
)

// ErrInvalidMetadata is returned when feature metadata cannot be
// registered.
var ErrInvalidMetadata = errors.New("invalid feature metadata")

// Factory creates the accessor for a newly registered feature.
type Factory[M model.Metadata, A accessor.Feature[M]] func(resource string, metadata M) (A, error)

// Model is a concurrent two-level map from resource name to feature
// identity to accessor.
type Model[M model.Metadata, A accessor.Feature[M]] struct {
	lock      sync.RWMutex
	resources map[string]*ResourceFeatureList[M, A]
	count     int

	factory  Factory[M, A]
	notFound error
}

func newModel[M model.Metadata, A accessor.Feature[M]](factory Factory[M, A], notFound error) *Model[M, A] {
	return &Model[M, A]{
		resources: make(map[string]*ResourceFeatureList[M, A]),
		factory:   factory,
		notFound:  notFound,
	}
}

// Add registers metadata for resource. If a feature with the same
// identity is already registered, the existing accessor is returned and
// created is false.
func (m *Model[M, A]) Add(resource string, metadata M) (a A, created bool, err error) {
	if resource == "" || any(metadata) == nil || metadata.Identity() == "" {
		return a, false, fmt.Errorf("%w: resource %q", ErrInvalidMetadata, resource)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	list, ok := m.resources[resource]
	if ok {
		if existing, ok := list.Get(metadata.Identity()); ok {
			return existing, false, nil
		}
	}

	a, err = m.factory(resource, metadata)
	if err != nil {
		return a, false, err
	}
	if !ok {
		list = newResourceFeatureList[M, A](resource)
		m.resources[resource] = list
	}
	list.put(a)
	m.count++
	return a, true, nil
}

// Remove closes and unregisters the feature of resource described by
// metadata. A resource left without features is dropped.
func (m *Model[M, A]) Remove(resource string, metadata M) (A, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	var zero A
	list, ok := m.resources[resource]
	if !ok {
		return zero, false
	}
	a, ok := list.remove(metadata)
	if !ok {
		return zero, false
	}
	m.count--
	if list.Len() == 0 {
		delete(m.resources, resource)
	}
	return a, true
}

// Clear closes and unregisters every feature of resource. It returns the
// removed accessors so callers can drop state derived from them.
func (m *Model[M, A]) Clear(resource string) []A {
	m.lock.Lock()
	defer m.lock.Unlock()

	list, ok := m.resources[resource]
	if !ok {
		return nil
	}
	delete(m.resources, resource)
	removed := list.Clear()
	m.count -= len(removed)
	return removed
}

// ClearAll closes every accessor and empties the model.
func (m *Model[M, A]) ClearAll() []A {
	m.lock.Lock()
	defer m.lock.Unlock()

	var removed []A
	for name, list := range m.resources {
		removed = append(removed, list.Clear()...)
		delete(m.resources, name)
	}
	m.count = 0
	return removed
}

// Get returns the accessor for the named feature of resource.
func (m *Model[M, A]) Get(resource, name string) (A, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.getLocked(resource, name)
}

func (m *Model[M, A]) getLocked(resource, name string) (A, bool) {
	var zero A
	list, ok := m.resources[resource]
	if !ok {
		return zero, false
	}
	return list.Get(name)
}

// With runs fn on the named accessor while holding the read lock. It
// fails with the model's not-found error if the resource or feature is
// absent.
func (m *Model[M, A]) With(resource, name string, fn func(A) error) error {
	m.lock.RLock()
	defer m.lock.RUnlock()

	a, ok := m.getLocked(resource, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", m.notFound, resource, name)
	}
	return fn(a)
}

// ForEach calls fn for every (resource, accessor) pair under the read
// lock, in resource then identity order. It stops early if fn returns
// false and reports whether the iteration completed.
func (m *Model[M, A]) ForEach(fn func(resource string, a A) bool) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	for _, name := range m.hostedLocked() {
		list := m.resources[name]
		if !list.each(func(a A) bool { return fn(name, a) }) {
			return false
		}
	}
	return true
}

// HostedResources returns the names of resources with at least one
// feature, sorted.
func (m *Model[M, A]) HostedResources() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.hostedLocked()
}

func (m *Model[M, A]) hostedLocked() []string {
	names := make([]string, 0, len(m.resources))
	for name := range m.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResourceFeatures returns the feature identities of resource, sorted.
func (m *Model[M, A]) ResourceFeatures(resource string) []string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	list, ok := m.resources[resource]
	if !ok {
		return []string{}
	}
	return list.Keys()
}

// Counts returns the number of accessors and of hosted resources.
func (m *Model[M, A]) Counts() (accessors, resources int) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.count, len(m.resources)
}
