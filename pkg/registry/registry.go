package registry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/log"
	"github.com/snamp-platform/snamp-go/pkg/metrics"
	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/notify"
)

// Options configures a Registry. The zero value is usable.
type Options struct {
	// Name labels log events and metrics. Defaults to "default".
	Name string

	// Logger for debug output (optional).
	Logger *slog.Logger

	// EventLogger captures registry events (optional).
	EventLogger log.Logger

	// Metrics records registry metrics (optional).
	Metrics *metrics.Metrics

	// AttributeFactory creates attribute accessors. Defaults to
	// DefaultAttributeFactory.
	AttributeFactory AttributeFactory

	// NotificationFactory creates notification accessors. By default
	// notifications are routed to the registry's Listeners.
	NotificationFactory NotificationFactory
}

// Registry is the feature registry shared by connectors and gateways.
// It is safe for concurrent use.
type Registry struct {
	name    string
	session string
	logger  *slog.Logger
	events  log.Logger
	metrics *metrics.Metrics

	attributes    *ModelOfAttributes
	notifications *ModelOfNotifications

	listeners *notify.MulticastListener
	dispatch  *dispatcher
}

// New creates an empty Registry.
func New(opts Options) *Registry {
	if opts.Name == "" {
		opts.Name = "default"
	}
	r := &Registry{
		name:      opts.Name,
		session:   uuid.NewString(),
		logger:    opts.Logger,
		events:    log.OrNoop(opts.EventLogger),
		metrics:   opts.Metrics,
		listeners: notify.NewMulticastListener(),
	}
	r.dispatch = &dispatcher{registry: r}

	factory := opts.NotificationFactory
	if factory == nil {
		factory = RouteTo(notify.EventListenerRef(r.dispatch))
	}
	r.attributes = NewModelOfAttributes(opts.AttributeFactory)
	r.notifications = NewModelOfNotifications(factory)
	return r
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// SessionID returns the ID stamped on this registry's events.
func (r *Registry) SessionID() string { return r.session }

// Attributes returns the attribute model.
func (r *Registry) Attributes() *ModelOfAttributes { return r.attributes }

// Notifications returns the notification model.
func (r *Registry) Notifications() *ModelOfNotifications { return r.notifications }

// Listeners returns the listeners that receive notifications routed by
// the default notification factory. Listeners are held weakly.
func (r *Registry) Listeners() *notify.MulticastListener { return r.listeners }

// DeliveryObserver returns an observer that records routed notifications
// in the registry's metrics and event log. Use it with custom
// notification factories.
func (r *Registry) DeliveryObserver() accessor.DeliveryObserver {
	return r.routed
}

// AddFeature registers metadata for resource and returns its accessor.
// Registering an already known feature returns the existing accessor.
func (r *Registry) AddFeature(resource string, metadata model.Metadata) (accessor.Accessor, error) {
	var (
		result  accessor.Accessor
		created bool
	)
	err := visit(metadata,
		func(m *model.AttributeMetadata) error {
			a, c, err := r.attributes.Add(resource, m)
			if err == nil {
				result, created = a, c
			}
			return err
		},
		func(m *model.NotificationMetadata) error {
			a, c, err := r.notifications.Add(resource, m)
			if err == nil {
				result, created = a, c
			}
			return err
		})
	if err != nil {
		r.debugLog("AddFeature: rejected", "resource", resource, "error", err)
		r.logError(resource, metadata, "add", err)
		return nil, err
	}

	r.logRegistration(resource, metadata, log.ActionAdded, 0, !created)
	if created {
		r.debugLog("AddFeature: registered", "resource", resource, "feature", metadata.Identity(), "kind", metadata.Kind())
		r.updateGauges()
	}
	return result, nil
}

// RemoveFeature closes and unregisters the feature described by metadata.
func (r *Registry) RemoveFeature(resource string, metadata model.Metadata) (accessor.Accessor, bool) {
	var (
		result  accessor.Accessor
		removed bool
	)
	_ = visit(metadata,
		func(m *model.AttributeMetadata) error {
			if a, ok := r.attributes.Remove(resource, m); ok {
				result, removed = a, true
			}
			return nil
		},
		func(m *model.NotificationMetadata) error {
			if a, ok := r.notifications.Remove(resource, m); ok {
				result, removed = a, true
			}
			return nil
		})
	if !removed {
		return nil, false
	}

	r.debugLog("RemoveFeature: removed", "resource", resource, "feature", metadata.Identity(), "kind", metadata.Kind())
	r.logRegistration(resource, metadata, log.ActionRemoved, 0, false)
	r.updateGauges()
	return result, true
}

// RemoveAllFeatures closes and unregisters every feature of resource.
// Attributes are cleared before notifications, in separate lock scopes.
func (r *Registry) RemoveAllFeatures(resource string) []accessor.Accessor {
	attrs := r.attributes.Clear(resource)
	notifs := r.notifications.Clear(resource)

	removed := make([]accessor.Accessor, 0, len(attrs)+len(notifs))
	for _, a := range attrs {
		removed = append(removed, a)
	}
	for _, a := range notifs {
		removed = append(removed, a)
	}
	if len(removed) == 0 {
		return removed
	}

	r.debugLog("RemoveAllFeatures: cleared", "resource", resource, "count", len(removed))
	r.events.Log(r.event(log.CategoryRegistration, resource, nil, func(e *log.Event) {
		e.Registration = &log.RegistrationEvent{Action: log.ActionCleared, Count: len(removed)}
	}))
	r.updateGauges()
	return removed
}

// HandleFeatureEvent applies a connector feature event: FeatureAdded
// registers and connects, FeatureModified reconnects (registering if
// needed), FeatureRemoving unregisters. It reports whether an accessor
// handled the event.
func (r *Registry) HandleFeatureEvent(event model.FeatureEvent) (bool, error) {
	switch e := event.(type) {
	case model.FeatureAdded:
		return r.connect(e.Resource, e.Metadata, e)
	case model.FeatureModified:
		return r.connect(e.Resource, e.Metadata, e)
	case model.FeatureRemoving:
		_, ok := r.RemoveFeature(e.Resource, e.Metadata)
		return ok, nil
	default:
		return false, nil
	}
}

func (r *Registry) connect(resource string, metadata model.Metadata, event model.FeatureEvent) (bool, error) {
	a, err := r.AddFeature(resource, metadata)
	if err != nil {
		return false, err
	}
	ok := a.ProcessEvent(event)
	action := log.ActionConnected
	if !ok {
		action = log.ActionDisconnected
		r.debugLog("HandleFeatureEvent: accessor did not connect", "resource", resource, "feature", metadata.Identity())
	}
	r.logRegistration(resource, metadata, action, 0, false)
	return ok, nil
}

// GetAttributeValue reads the named attribute of resource.
func (r *Registry) GetAttributeValue(ctx context.Context, resource, name string) (any, error) {
	start := time.Now()
	value, err := r.attributes.GetAttributeValue(ctx, resource, name)
	r.observeAccess(log.OpRead, resource, name, time.Since(start), value, err)
	return value, err
}

// SetAttributeValue writes the named attribute of resource.
func (r *Registry) SetAttributeValue(ctx context.Context, resource, name string, value any) error {
	start := time.Now()
	err := r.attributes.SetAttributeValue(ctx, resource, name, value)
	r.observeAccess(log.OpWrite, resource, name, time.Since(start), value, err)
	return err
}

// ForEachAttribute iterates all attributes under the read lock.
func (r *Registry) ForEachAttribute(fn func(resource string, a accessor.Attribute) bool) bool {
	return r.attributes.ForEachAttribute(fn)
}

// ForEachNotification iterates all notifications under the read lock.
func (r *Registry) ForEachNotification(fn func(resource string, a accessor.Notification) bool) bool {
	return r.notifications.ForEachNotification(fn)
}

// HostedResources returns every resource with at least one feature,
// sorted.
func (r *Registry) HostedResources() []string {
	seen := make(map[string]struct{})
	for _, name := range r.attributes.HostedResources() {
		seen[name] = struct{}{}
	}
	for _, name := range r.notifications.HostedResources() {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetResourceAttributes returns the attribute names of resource.
func (r *Registry) GetResourceAttributes(resource string) []string {
	return r.attributes.GetResourceAttributes(resource)
}

// GetResourceNotifications returns the notification identities of
// resource.
func (r *Registry) GetResourceNotifications(resource string) []string {
	return r.notifications.GetResourceNotifications(resource)
}

// Close closes every accessor and empties the registry.
func (r *Registry) Close() error {
	attrs := r.attributes.ClearAll()
	notifs := r.notifications.ClearAll()
	r.listeners.Clear()

	r.debugLog("Close: registry closed", "name", r.name, "accessors", len(attrs)+len(notifs))
	r.events.Log(r.event(log.CategoryRegistration, "", nil, func(e *log.Event) {
		e.Registration = &log.RegistrationEvent{Action: log.ActionCleared, Count: len(attrs) + len(notifs)}
	}))
	r.updateGauges()
	return nil
}

func (r *Registry) observeAccess(op log.AccessOp, resource, name string, d time.Duration, value any, err error) {
	outcome := model.Classify(err).String()
	opName := "read"
	if op == log.OpWrite {
		opName = "write"
	}
	r.metrics.ObserveAttributeOp(r.name, opName, outcome, d)
	if err != nil {
		r.debugLog("attribute access failed", "op", opName, "resource", resource, "feature", name, "error", err)
		value = nil
	}
	r.events.Log(r.event(log.CategoryAccess, resource, nil, func(e *log.Event) {
		e.Feature = name
		e.Kind = log.FeatureKindAttribute
		e.Access = &log.AccessEvent{Op: op, Duration: d, Outcome: outcome, Value: value}
	}))
}

func (r *Registry) routed(resource string, n *model.Notification, delivered bool) {
	r.metrics.NotificationRouted(r.name, delivered)
	r.events.Log(r.event(log.CategoryNotification, resource, nil, func(e *log.Event) {
		e.Feature = n.Type
		e.Kind = log.FeatureKindNotification
		e.Notification = &log.NotificationData{
			Type:      n.Type,
			Sequence:  n.Sequence,
			Delivered: delivered,
			Message:   n.Message,
		}
	}))
}

func (r *Registry) logRegistration(resource string, metadata model.Metadata, action log.RegistrationAction, count int, existing bool) {
	r.events.Log(r.event(log.CategoryRegistration, resource, metadata, func(e *log.Event) {
		e.Registration = &log.RegistrationEvent{Action: action, Count: count, Existing: existing}
	}))
}

func (r *Registry) logError(resource string, metadata model.Metadata, op string, err error) {
	r.events.Log(r.event(log.CategoryError, resource, metadata, func(e *log.Event) {
		e.Error = &log.ErrorEventData{
			Message:  err.Error(),
			Category: model.Classify(err).String(),
			Context:  op,
		}
	}))
}

func (r *Registry) event(category log.Category, resource string, metadata model.Metadata, fill func(*log.Event)) log.Event {
	e := log.Event{
		Timestamp: time.Now(),
		SessionID: r.session,
		Registry:  r.name,
		Category:  category,
		Resource:  resource,
	}
	if metadata != nil {
		e.Feature = metadata.Identity()
		e.Kind = log.FeatureKind(metadata.Kind())
	}
	fill(&e)
	return e
}

func (r *Registry) updateGauges() {
	if r.metrics == nil {
		return
	}
	a, res := r.attributes.Counts()
	r.metrics.SetAccessors(r.name, model.KindAttribute.String(), a, res)
	n, res := r.notifications.Counts()
	r.metrics.SetAccessors(r.name, model.KindNotification.String(), n, res)
}

func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// dispatcher is the default destination of notification routers. It
// forwards to the registry's listeners.
type dispatcher struct {
	registry *Registry
}

func (d *dispatcher) HandleNotificationEvent(event model.NotificationEvent) {
	r := d.registry
	n := event.Notification
	if r.listeners.Len() == 0 {
		r.routed(event.Resource, &n, false)
		return
	}
	r.listeners.HandleNotification(&n, nil)
	r.routed(event.Resource, &n, true)
}

// funcVisitor dispatches metadata to one function per feature kind.
type funcVisitor struct {
	attribute    func(*model.AttributeMetadata) error
	notification func(*model.NotificationMetadata) error
}

func (v funcVisitor) VisitAttribute(m *model.AttributeMetadata) error { return v.attribute(m) }

func (v funcVisitor) VisitNotification(m *model.NotificationMetadata) error {
	return v.notification(m)
}

func visit(metadata model.Metadata, attribute func(*model.AttributeMetadata) error, notification func(*model.NotificationMetadata) error) error {
	if metadata == nil {
		return ErrInvalidMetadata
	}
	return metadata.Accept(funcVisitor{attribute: attribute, notification: notification})
}

// Compile-time interface satisfaction check.
var _ model.NotificationEventListener = (*dispatcher)(nil)
