package registry

import (
	"context"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
)

// AttributeFactory creates attribute accessors.
type AttributeFactory = Factory[*model.AttributeMetadata, accessor.Attribute]

// DefaultAttributeFactory creates accessor.AttributeAccessor values.
func DefaultAttributeFactory(resource string, metadata *model.AttributeMetadata) (accessor.Attribute, error) {
	return accessor.NewAttributeAccessor(resource, metadata), nil
}

// ModelOfAttributes is the attribute registry.
type ModelOfAttributes struct {
	*Model[*model.AttributeMetadata, accessor.Attribute]
}

// NewModelOfAttributes creates an empty attribute registry. A nil factory
// selects DefaultAttributeFactory.
func NewModelOfAttributes(factory AttributeFactory) *ModelOfAttributes {
	if factory == nil {
		factory = DefaultAttributeFactory
	}
	return &ModelOfAttributes{Model: newModel(factory, model.ErrAttributeNotFound)}
}

// AddAttribute registers an attribute. See Model.Add.
func (m *ModelOfAttributes) AddAttribute(resource string, metadata *model.AttributeMetadata) (accessor.Attribute, error) {
	a, _, err := m.Add(resource, metadata)
	return a, err
}

// RemoveAttribute unregisters an attribute. See Model.Remove.
func (m *ModelOfAttributes) RemoveAttribute(resource string, metadata *model.AttributeMetadata) (accessor.Attribute, bool) {
	return m.Remove(resource, metadata)
}

// GetAttributeValue reads the named attribute of resource.
func (m *ModelOfAttributes) GetAttributeValue(ctx context.Context, resource, name string) (any, error) {
	var value any
	err := m.With(resource, name, func(a accessor.Attribute) error {
		var err error
		value, err = a.GetValue(ctx)
		return err
	})
	return value, err
}

// SetAttributeValue writes the named attribute of resource.
func (m *ModelOfAttributes) SetAttributeValue(ctx context.Context, resource, name string, value any) error {
	return m.With(resource, name, func(a accessor.Attribute) error {
		return a.SetValue(ctx, value)
	})
}

// ForEachAttribute iterates all attributes. See Model.ForEach.
func (m *ModelOfAttributes) ForEachAttribute(fn func(resource string, a accessor.Attribute) bool) bool {
	return m.ForEach(fn)
}

// GetResourceAttributes returns the attribute names of resource.
func (m *ModelOfAttributes) GetResourceAttributes(resource string) []string {
	return m.ResourceFeatures(resource)
}
