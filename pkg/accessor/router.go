package accessor

import (
	"sync/atomic"

	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/notify"
)

// Interceptor transforms a notification before delivery.
type Interceptor func(n model.Notification) model.Notification

// StampSource returns an Interceptor that sets the notification source to
// resource.
func StampSource(resource string) Interceptor {
	return func(n model.Notification) model.Notification {
		n.Source = resource
		return n
	}
}

// DeliveryObserver is told about every routed notification.
type DeliveryObserver func(resource string, n *model.Notification, delivered bool)

// RouterOption configures a NotificationRouter.
type RouterOption func(*NotificationRouter)

// WithInterceptor installs an interceptor. The default is the identity.
func WithInterceptor(i Interceptor) RouterOption {
	return func(r *NotificationRouter) { r.intercept = i }
}

// WithDeliveryObserver installs an observer for delivered and dropped
// notifications.
func WithDeliveryObserver(o DeliveryObserver) RouterOption {
	return func(r *NotificationRouter) { r.observe = o }
}

// NotificationRouter republishes notifications from a source to a weakly
// held destination. It implements model.NotificationListener.
type NotificationRouter struct {
	resource  string
	metadata  *model.NotificationMetadata
	dest      atomic.Pointer[notify.Ref[model.NotificationEventListener]]
	intercept Interceptor
	observe   DeliveryObserver
}

// NewNotificationRouter creates a router delivering to dest. The router
// does not keep dest alive.
func NewNotificationRouter[T any, PT interface {
	*T
	model.NotificationEventListener
}](resource string, metadata *model.NotificationMetadata, dest PT, opts ...RouterOption) *NotificationRouter {
	return NewNotificationRouterRef(resource, metadata, notify.EventListenerRef(dest), opts...)
}

// NewNotificationRouterRef creates a router delivering to the listener
// behind dest.
func NewNotificationRouterRef(resource string, metadata *model.NotificationMetadata, dest notify.Ref[model.NotificationEventListener], opts ...RouterOption) *NotificationRouter {
	r := &NotificationRouter{
		resource: resource,
		metadata: metadata,
	}
	r.dest.Store(&dest)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resource returns the resource name.
func (r *NotificationRouter) Resource() string {
	return r.resource
}

// Metadata returns the routed notification metadata.
func (r *NotificationRouter) Metadata() *model.NotificationMetadata {
	return r.metadata
}

// HasDestination reports whether the destination is still reachable.
func (r *NotificationRouter) HasDestination() bool {
	ref := r.dest.Load()
	return ref != nil && ref.Alive()
}

// ClearDestination drops the destination reference.
func (r *NotificationRouter) ClearDestination() {
	r.dest.Store(nil)
}

// HandleNotification forwards n to the destination after interception.
// If the destination is gone, n is dropped.
func (r *NotificationRouter) HandleNotification(n *model.Notification, _ any) {
	if n == nil {
		return
	}
	var dest model.NotificationEventListener
	ok := false
	if ref := r.dest.Load(); ref != nil {
		dest, ok = ref.Get()
	}
	if !ok {
		if r.observe != nil {
			r.observe(r.resource, n, false)
		}
		return
	}

	delivered := *n
	if r.intercept != nil {
		delivered = r.intercept(delivered)
	}
	dest.HandleNotificationEvent(model.NotificationEvent{
		Resource:     r.resource,
		Metadata:     r.metadata,
		Notification: delivered,
	})
	if r.observe != nil {
		r.observe(r.resource, &delivered, true)
	}
}

// Compile-time interface satisfaction check.
var _ model.NotificationListener = (*NotificationRouter)(nil)
