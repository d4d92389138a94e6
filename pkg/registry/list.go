package registry

import (
	"sort"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
)

// ResourceFeatureList holds the accessors of one resource, keyed by
// feature identity. It is not safe for concurrent use; the owning Model
// guards it.
type ResourceFeatureList[M model.Metadata, A accessor.Feature[M]] struct {
	resource  string
	accessors map[string]A
}

func newResourceFeatureList[M model.Metadata, A accessor.Feature[M]](resource string) *ResourceFeatureList[M, A] {
	return &ResourceFeatureList[M, A]{
		resource:  resource,
		accessors: make(map[string]A),
	}
}

// Resource returns the resource name.
func (l *ResourceFeatureList[M, A]) Resource() string {
	return l.resource
}

// Len returns the number of accessors.
func (l *ResourceFeatureList[M, A]) Len() int {
	return len(l.accessors)
}

// Get returns the accessor registered under key.
func (l *ResourceFeatureList[M, A]) Get(key string) (A, bool) {
	a, ok := l.accessors[key]
	return a, ok
}

// Key returns the map key of a.
func (l *ResourceFeatureList[M, A]) Key(a A) string {
	return a.Metadata().Identity()
}

// put stores a unless an accessor with the same key exists, in which case
// the existing one is returned with false.
func (l *ResourceFeatureList[M, A]) put(a A) (A, bool) {
	key := l.Key(a)
	if existing, ok := l.accessors[key]; ok {
		return existing, false
	}
	l.accessors[key] = a
	return a, true
}

// remove closes and deletes the accessor registered under the identity
// of metadata, if it is of the same kind.
func (l *ResourceFeatureList[M, A]) remove(metadata M) (A, bool) {
	var zero A
	if any(metadata) == nil {
		return zero, false
	}
	key := metadata.Identity()
	a, ok := l.accessors[key]
	if !ok || a.Kind() != metadata.Kind() {
		return zero, false
	}
	delete(l.accessors, key)
	_ = a.Close()
	return a, true
}

// Clear closes every accessor, then empties the list. It returns the
// removed accessors.
func (l *ResourceFeatureList[M, A]) Clear() []A {
	removed := make([]A, 0, len(l.accessors))
	for _, a := range l.accessors {
		_ = a.Close()
		removed = append(removed, a)
	}
	clear(l.accessors)
	return removed
}

// Keys returns the feature identities, sorted.
func (l *ResourceFeatureList[M, A]) Keys() []string {
	keys := make([]string, 0, len(l.accessors))
	for k := range l.accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// each calls fn for every accessor until fn returns false.
func (l *ResourceFeatureList[M, A]) each(fn func(A) bool) bool {
	for _, k := range l.Keys() {
		if !fn(l.accessors[k]) {
			return false
		}
	}
	return true
}
