package registry

import (
	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/notify"
)

// NotificationFactory creates notification accessors.
type NotificationFactory = Factory[*model.NotificationMetadata, accessor.Notification]

// RouteTo returns a NotificationFactory whose accessors route to dest.
// Routers stamp the resource name as notification source; opts are
// applied after that.
func RouteTo(dest notify.Ref[model.NotificationEventListener], opts ...accessor.RouterOption) NotificationFactory {
	return func(resource string, metadata *model.NotificationMetadata) (accessor.Notification, error) {
		all := append([]accessor.RouterOption{accessor.WithInterceptor(accessor.StampSource(resource))}, opts...)
		router := accessor.NewNotificationRouterRef(resource, metadata, dest, all...)
		return accessor.NewNotificationAccessor(router), nil
	}
}

// ModelOfNotifications is the notification registry.
type ModelOfNotifications struct {
	*Model[*model.NotificationMetadata, accessor.Notification]
}

// NewModelOfNotifications creates an empty notification registry.
func NewModelOfNotifications(factory NotificationFactory) *ModelOfNotifications {
	return &ModelOfNotifications{Model: newModel(factory, model.ErrNotificationNotFound)}
}

// AddNotification registers a notification. See Model.Add.
func (m *ModelOfNotifications) AddNotification(resource string, metadata *model.NotificationMetadata) (accessor.Notification, error) {
	a, _, err := m.Add(resource, metadata)
	return a, err
}

// RemoveNotification unregisters a notification. See Model.Remove.
func (m *ModelOfNotifications) RemoveNotification(resource string, metadata *model.NotificationMetadata) (accessor.Notification, bool) {
	return m.Remove(resource, metadata)
}

// ForEachNotification iterates all notifications. See Model.ForEach.
func (m *ModelOfNotifications) ForEachNotification(fn func(resource string, a accessor.Notification) bool) bool {
	return m.ForEach(fn)
}

// GetResourceNotifications returns the notification identities of
// resource.
func (m *ModelOfNotifications) GetResourceNotifications(resource string) []string {
	return m.ResourceFeatures(resource)
}
