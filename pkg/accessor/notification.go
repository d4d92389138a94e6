package accessor

import (
	"sync"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

// Notification is an accessor that routes a notification stream.
type Notification interface {
	Feature[*model.NotificationMetadata]

	// CreateFilter returns a filter matching the accessor's notification types.
	CreateFilter() model.NotificationFilter

	// Router returns the router subscribed to the source.
	Router() *NotificationRouter
}

// NotificationAccessor subscribes a NotificationRouter to
// model.NotificationSupport. Once disconnected by a FeatureRemoving event
// or Close it cannot be reconnected; create a new accessor instead.
type NotificationAccessor struct {
	*FeatureAccessor[*model.NotificationMetadata]

	router *NotificationRouter

	mu      sync.Mutex
	support model.NotificationSupport
}

// NewNotificationAccessor creates a disconnected accessor for the feature
// routed by router.
func NewNotificationAccessor(router *NotificationRouter) *NotificationAccessor {
	a := &NotificationAccessor{router: router}
	a.FeatureAccessor = NewFeatureAccessor(router.Metadata(), Hooks{
		Connect:      a.connect,
		Release:      a.release,
		Disconnected: a.disconnected,
	})
	return a
}

// Resource returns the owning resource name.
func (a *NotificationAccessor) Resource() string {
	return a.router.Resource()
}

// Router returns the accessor's router.
func (a *NotificationAccessor) Router() *NotificationRouter {
	return a.router
}

// CreateFilter returns a filter accepting exactly the declared types.
func (a *NotificationAccessor) CreateFilter() model.NotificationFilter {
	meta := a.Metadata()
	return func(n *model.Notification) bool {
		return meta.Matches(n.Type)
	}
}

// ProcessEvent applies event. FeatureRemoving closes the accessor.
func (a *NotificationAccessor) ProcessEvent(event model.FeatureEvent) bool {
	if _, ok := event.(model.FeatureRemoving); ok && model.SameFeature(event.Feature(), a.Metadata()) {
		_ = a.Close()
		return true
	}
	return a.FeatureAccessor.ProcessEvent(event)
}

func (a *NotificationAccessor) connect(support any) bool {
	s, ok := support.(model.NotificationSupport)
	if !ok {
		return false
	}
	s.AddNotificationListener(a.router, a.CreateFilter(), nil)

	a.mu.Lock()
	a.support = s
	a.mu.Unlock()
	return true
}

// release unsubscribes the router. A missing listener means a concurrent
// teardown already removed it, so every error is dropped.
func (a *NotificationAccessor) release() {
	a.mu.Lock()
	s := a.support
	a.support = nil
	a.mu.Unlock()

	if s != nil {
		_ = s.RemoveNotificationListener(a.router)
	}
}

func (a *NotificationAccessor) disconnected() {
	a.router.ClearDestination()
}

// Compile-time interface satisfaction check.
var _ Notification = (*NotificationAccessor)(nil)
