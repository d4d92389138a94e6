package model

import "context"

// AttributeSupport is the capability a connector exposes for reading and
// writing attribute values on one resource.
type AttributeSupport interface {
	// GetAttribute reads the current value of the named attribute.
	GetAttribute(ctx context.Context, name string) (any, error)

	// SetAttribute writes the named attribute.
	SetAttribute(ctx context.Context, name string, value any) error
}

// NotificationSupport is the capability a connector exposes for
// subscribing to the notifications of one resource.
type NotificationSupport interface {
	// AddNotificationListener subscribes listener. Notifications rejected
	// by filter are not delivered. handback is passed back unchanged.
	AddNotificationListener(listener NotificationListener, filter NotificationFilter, handback any)

	// RemoveNotificationListener unsubscribes listener. It returns
	// ErrListenerNotFound if listener was not subscribed.
	RemoveNotificationListener(listener NotificationListener) error
}
