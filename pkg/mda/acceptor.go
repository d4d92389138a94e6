package mda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/accessor"
	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/registry"
)

// ErrAcceptorClosed is returned by operations on a closed Acceptor.
var ErrAcceptorClosed = errors.New("acceptor closed")

// Config configures an Acceptor.
type Config struct {
	// Resource is the passive resource name. Required.
	Resource string

	// Expiration is how long written values stay fresh. Zero disables
	// expiration.
	Expiration time.Duration

	// TimerMode selects shared or per-attribute timers.
	TimerMode TimerMode

	// Storage keeps values. Defaults to a MemoryStorage.
	Storage Storage

	// Invoker dispatches notifications. Defaults to SyncInvoker.
	Invoker Invoker

	// Clock drives the access timers. Defaults to SystemClock.
	Clock Clock

	// Logger for debug output (optional).
	Logger *slog.Logger
}

// Acceptor is a passive resource whose data is pushed in by external
// agents. Its features live in a registry.Registry; the registry must
// create attribute accessors with AttributeFactory.
type Acceptor struct {
	resource   string
	expiration time.Duration
	storage    Storage
	invoker    Invoker
	timers     *TimerFactory
	repository *NotificationRepository
	registry   *registry.Registry
	logger     *slog.Logger

	mu            sync.Mutex
	closed        bool
	attributes    map[string]*model.AttributeMetadata
	notifications map[string]*model.NotificationMetadata
}

// NewAcceptor creates an Acceptor hosting its features in reg.
func NewAcceptor(reg *registry.Registry, cfg Config) (*Acceptor, error) {
	if reg == nil {
		return nil, errors.New("mda: registry is required")
	}
	if cfg.Resource == "" {
		return nil, errors.New("mda: resource name is required")
	}
	if cfg.Expiration < 0 {
		return nil, fmt.Errorf("mda: negative expiration %v", cfg.Expiration)
	}
	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}
	if cfg.Invoker == nil {
		cfg.Invoker = SyncInvoker{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.TimerMode == "" {
		cfg.TimerMode = TimerShared
	}

	return &Acceptor{
		resource:      cfg.Resource,
		expiration:    cfg.Expiration,
		storage:       cfg.Storage,
		invoker:       cfg.Invoker,
		timers:        NewTimerFactory(cfg.TimerMode, cfg.Clock),
		repository:    NewNotificationRepository(cfg.Resource, cfg.Invoker, cfg.Clock),
		registry:      reg,
		logger:        cfg.Logger,
		attributes:    make(map[string]*model.AttributeMetadata),
		notifications: make(map[string]*model.NotificationMetadata),
	}, nil
}

// Resource returns the resource name.
func (a *Acceptor) Resource() string { return a.resource }

// Repository returns the notification repository.
func (a *Acceptor) Repository() *NotificationRepository { return a.repository }

// DeclareAttribute registers and connects an attribute. Declaring an
// attribute again returns the existing accessor.
func (a *Acceptor) DeclareAttribute(metadata *model.AttributeMetadata) (accessor.Attribute, error) {
	if metadata.Identity() == "" {
		return nil, fmt.Errorf("%w: attribute without name", registry.ErrInvalidMetadata)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAcceptorClosed
	}

	if existing, ok := a.registry.Attributes().Get(a.resource, metadata.Identity()); ok && existing.IsConnected() {
		return existing, nil
	}

	binding := &Binding{
		Storage:    a.storage,
		Key:        StorageKey(a.resource, metadata.Name),
		Timer:      a.timers.Timer(metadata.Name),
		Expiration: a.expiration,
	}
	ok, err := a.registry.HandleFeatureEvent(model.FeatureAdded{Resource: a.resource, Metadata: metadata, Support: binding})
	if err != nil {
		return nil, err
	}
	attr, found := a.registry.Attributes().Get(a.resource, metadata.Name)
	if !ok || !found {
		return nil, fmt.Errorf("%w: %s/%s did not connect", model.ErrUnsupportedOperation, a.resource, metadata.Name)
	}

	a.attributes[metadata.Name] = metadata
	a.debugLog("DeclareAttribute", "attribute", metadata.Name, "type", metadata.Type)
	return attr, nil
}

// RemoveAttribute unregisters an attribute and deletes its stored value.
func (a *Acceptor) RemoveAttribute(ctx context.Context, name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	metadata, ok := a.attributes[name]
	if !ok {
		return false, nil
	}
	delete(a.attributes, name)
	_, _ = a.registry.HandleFeatureEvent(model.FeatureRemoving{Resource: a.resource, Metadata: metadata})
	a.timers.Release(name)
	if err := a.storage.Delete(ctx, StorageKey(a.resource, name)); err != nil {
		return true, err
	}
	a.debugLog("RemoveAttribute", "attribute", name)
	return true, nil
}

// DeclareNotification registers a notification and subscribes its router
// to the repository.
func (a *Acceptor) DeclareNotification(metadata *model.NotificationMetadata) (accessor.Notification, error) {
	if metadata.Identity() == "" {
		return nil, fmt.Errorf("%w: notification without types", registry.ErrInvalidMetadata)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAcceptorClosed
	}

	a.repository.Declare(metadata)
	ok, err := a.registry.HandleFeatureEvent(model.FeatureAdded{Resource: a.resource, Metadata: metadata, Support: a.repository})
	if err != nil {
		a.repository.Undeclare(metadata)
		return nil, err
	}
	n, found := a.registry.Notifications().Get(a.resource, metadata.Identity())
	if !ok || !found {
		a.repository.Undeclare(metadata)
		return nil, fmt.Errorf("%w: %s/%s did not connect", model.ErrUnsupportedOperation, a.resource, metadata.Identity())
	}

	a.notifications[metadata.Identity()] = metadata
	a.debugLog("DeclareNotification", "types", metadata.Types)
	return n, nil
}

// RemoveNotification unregisters the notification whose first type is
// notifType.
func (a *Acceptor) RemoveNotification(notifType string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	metadata, ok := a.notifications[notifType]
	if !ok {
		return false
	}
	delete(a.notifications, notifType)
	_, _ = a.registry.HandleFeatureEvent(model.FeatureRemoving{Resource: a.resource, Metadata: metadata})
	a.repository.Undeclare(metadata)
	return true
}

// SetValue writes an attribute value through the registry.
func (a *Acceptor) SetValue(ctx context.Context, name string, value any) error {
	return a.registry.SetAttributeValue(ctx, a.resource, name, value)
}

// Value reads an attribute value through the registry.
func (a *Acceptor) Value(ctx context.Context, name string) (any, error) {
	return a.registry.GetAttributeValue(ctx, a.resource, name)
}

// Emit emits a notification of a declared type.
func (a *Acceptor) Emit(notifType, message string, userData any) (model.Notification, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return model.Notification{}, ErrAcceptorClosed
	}
	return a.repository.Emit(notifType, message, userData)
}

// Attributes returns the declared attribute names, sorted.
func (a *Acceptor) Attributes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.attributes)
}

// Notifications returns the declared notification identities, sorted.
func (a *Acceptor) Notifications() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.notifications)
}

// Close unregisters every feature and waits for pending notification
// dispatch. Stored values are kept.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	clear(a.attributes)
	clear(a.notifications)
	a.mu.Unlock()

	removed := a.registry.RemoveAllFeatures(a.resource)
	a.invoker.Wait()
	a.debugLog("Close", "removed", len(removed))
	return nil
}

func (a *Acceptor) debugLog(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, append([]any{"resource", a.resource}, args...)...)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
