package mda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/registry"
)

// Binding is the support object an MDA attribute connects to.
type Binding struct {
	// Storage holds the value under Key.
	Storage Storage
	Key     string

	// Timer is reset on every successful write.
	Timer AccessTimer

	// Expiration is how long a written value stays fresh. Zero means
	// values never expire.
	Expiration time.Duration
}

// StaleFunc is called when a read finds an expired value.
type StaleFunc func(resource, attribute string)

// AttributeAccessor is an attribute whose value is pushed in from
// outside. It connects to a *Binding.
type AttributeAccessor struct {
	*accessor.FeatureAccessor[*model.AttributeMetadata]

	resource string
	onStale  StaleFunc

	mu      sync.RWMutex
	binding *Binding
}

// NewAttributeAccessor creates a disconnected MDA attribute accessor.
func NewAttributeAccessor(resource string, metadata *model.AttributeMetadata, onStale StaleFunc) *AttributeAccessor {
	a := &AttributeAccessor{resource: resource, onStale: onStale}
	a.FeatureAccessor = accessor.NewFeatureAccessor(metadata, accessor.Hooks{
		Connect: a.connect,
		Release: a.release,
	})
	return a
}

// AttributeFactory returns a registry.AttributeFactory producing MDA
// accessors.
func AttributeFactory(onStale StaleFunc) registry.AttributeFactory {
	return func(resource string, metadata *model.AttributeMetadata) (accessor.Attribute, error) {
		return NewAttributeAccessor(resource, metadata, onStale), nil
	}
}

// Resource returns the owning resource name.
func (a *AttributeAccessor) Resource() string {
	return a.resource
}

// connect populates the default value so reads before the first write
// are well defined. An existing stored value is kept.
func (a *AttributeAccessor) connect(support any) bool {
	b, ok := support.(*Binding)
	if !ok || b.Storage == nil || b.Timer == nil {
		return false
	}
	if _, _, err := b.Storage.PutIfAbsent(context.Background(), b.Key, a.Metadata().DefaultValue()); err != nil {
		return false
	}

	a.mu.Lock()
	a.binding = b
	a.mu.Unlock()
	return true
}

func (a *AttributeAccessor) release() {
	a.mu.Lock()
	a.binding = nil
	a.mu.Unlock()
}

func (a *AttributeAccessor) currentBinding() *Binding {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.binding
}

// GetValue returns the stored value. It fails with model.ErrValueExpired
// if the value is older than the binding's expiration.
func (a *AttributeAccessor) GetValue(ctx context.Context) (any, error) {
	meta := a.Metadata()
	if !meta.Access.CanRead() {
		return nil, fmt.Errorf("%w: %s is write-only", model.ErrUnsupportedOperation, meta.Name)
	}
	b := a.currentBinding()
	if b == nil {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrFeatureDisconnected, a.resource, meta.Name)
	}

	if b.Expiration > 0 && b.Timer.CompareTo(b.Expiration) > 0 {
		if a.onStale != nil {
			a.onStale(a.resource, meta.Name)
		}
		return nil, fmt.Errorf("%w: %s/%s not written for %v", model.ErrValueExpired, a.resource, meta.Name, b.Timer.Elapsed().Round(time.Millisecond))
	}

	v, err := b.Storage.Get(ctx, b.Key)
	if err != nil {
		return nil, model.Translate("get", a.resource, meta.Name, err)
	}
	if v == nil && !meta.Nullable {
		// CBOR stores the zero time as null.
		return meta.Type.ZeroValue(), nil
	}
	if converted, err := meta.Convert(v); err == nil {
		v = converted
	}
	return v, nil
}

// SetValue converts, validates and stores value. The timer is reset with
// the write and restored if storing fails.
func (a *AttributeAccessor) SetValue(ctx context.Context, value any) error {
	meta := a.Metadata()
	if !meta.Access.CanWrite() {
		return fmt.Errorf("%w: %s/%s", model.ErrAttributeNotWritable, a.resource, meta.Name)
	}

	value, err := meta.Convert(value)
	if err != nil {
		return err
	}
	if err := meta.Validate(value); err != nil {
		return err
	}

	b := a.currentBinding()
	if b == nil {
		return fmt.Errorf("%w: %s/%s", model.ErrFeatureDisconnected, a.resource, meta.Name)
	}
	// The timer is refreshed before the value lands, so a concurrent read
	// never finds a just-written value expired.
	undo := b.Timer.Reset()
	if err := b.Storage.Put(ctx, b.Key, value); err != nil {
		undo()
		return model.Translate("set", a.resource, meta.Name, err)
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ accessor.Attribute = (*AttributeAccessor)(nil)
