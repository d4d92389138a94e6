package accessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

// Attribute is an accessor that reads and writes a value.
type Attribute interface {
	Feature[*model.AttributeMetadata]

	// GetValue reads the current value.
	GetValue(ctx context.Context) (any, error)

	// SetValue writes value. Read-only attributes fail with
	// model.ErrAttributeNotWritable.
	SetValue(ctx context.Context, value any) error
}

// AttributeAccessor serves an attribute through model.AttributeSupport.
type AttributeAccessor struct {
	*FeatureAccessor[*model.AttributeMetadata]

	resource string

	mu      sync.RWMutex
	support model.AttributeSupport
}

// NewAttributeAccessor creates a disconnected accessor for an attribute of
// resource.
func NewAttributeAccessor(resource string, metadata *model.AttributeMetadata) *AttributeAccessor {
	a := &AttributeAccessor{resource: resource}
	a.FeatureAccessor = NewFeatureAccessor(metadata, Hooks{
		Connect: a.connect,
		Release: a.release,
	})
	return a
}

// Resource returns the owning resource name.
func (a *AttributeAccessor) Resource() string {
	return a.resource
}

func (a *AttributeAccessor) connect(support any) bool {
	s, ok := support.(model.AttributeSupport)
	if !ok {
		return false
	}
	a.mu.Lock()
	a.support = s
	a.mu.Unlock()
	return true
}

func (a *AttributeAccessor) release() {
	a.mu.Lock()
	a.support = nil
	a.mu.Unlock()
}

func (a *AttributeAccessor) currentSupport() model.AttributeSupport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.support
}

// GetValue reads the attribute from the backend. Backend failures are
// translated into the model error taxonomy; a failed read leaves the
// accessor connected.
func (a *AttributeAccessor) GetValue(ctx context.Context) (any, error) {
	meta := a.Metadata()
	if !meta.Access.CanRead() {
		return nil, fmt.Errorf("%w: %s is write-only", model.ErrUnsupportedOperation, meta.Name)
	}
	support := a.currentSupport()
	if support == nil {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrFeatureDisconnected, a.resource, meta.Name)
	}

	ctx, cancel := withTimeout(ctx, meta.ReadTimeout)
	defer cancel()

	var value any
	err := guard(func() error {
		var err error
		value, err = support.GetAttribute(ctx, meta.Name)
		return err
	})
	if err != nil {
		return nil, model.Translate("get", a.resource, meta.Name, err)
	}
	return value, nil
}

// SetValue converts and validates value against the metadata, then writes
// it to the backend. Rejected values never reach the backend.
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

	support := a.currentSupport()
	if support == nil {
		return fmt.Errorf("%w: %s/%s", model.ErrFeatureDisconnected, a.resource, meta.Name)
	}

	ctx, cancel := withTimeout(ctx, meta.WriteTimeout)
	defer cancel()

	err = guard(func() error {
		return support.SetAttribute(ctx, meta.Name, value)
	})
	return model.Translate("set", a.resource, meta.Name, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return fn()
}

// Compile-time interface satisfaction check.
var _ Attribute = (*AttributeAccessor)(nil)
