package mda

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/notify"
)

// NotificationRepository is the notification source of one passive
// resource. It implements model.NotificationSupport.
type NotificationRepository struct {
	resource  string
	invoker   Invoker
	clock     Clock
	listeners *notify.MulticastListener
	sequence  atomic.Uint64

	mu       sync.RWMutex
	declared map[string]*model.NotificationMetadata
}

// NewNotificationRepository creates a repository for resource. Nil
// invoker and clock select SyncInvoker and SystemClock.
func NewNotificationRepository(resource string, invoker Invoker, clock Clock) *NotificationRepository {
	if invoker == nil {
		invoker = SyncInvoker{}
	}
	if clock == nil {
		clock = SystemClock
	}
	return &NotificationRepository{
		resource:  resource,
		invoker:   invoker,
		clock:     clock,
		listeners: notify.NewMulticastListener(),
		declared:  make(map[string]*model.NotificationMetadata),
	}
}

// Declare makes every type of metadata emittable.
func (r *NotificationRepository) Declare(metadata *model.NotificationMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range metadata.Types {
		r.declared[t] = metadata
	}
}

// Undeclare removes the types of metadata.
func (r *NotificationRepository) Undeclare(metadata *model.NotificationMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range metadata.Types {
		delete(r.declared, t)
	}
}

// AddNotificationListener subscribes l. The repository keeps l alive
// until it is removed.
func (r *NotificationRepository) AddNotificationListener(l model.NotificationListener, filter model.NotificationFilter, handback any) {
	r.listeners.AddFiltered(notify.StrongRef(l), filter, handback)
}

// RemoveNotificationListener unsubscribes l.
func (r *NotificationRepository) RemoveNotificationListener(l model.NotificationListener) error {
	if !r.listeners.RemoveListener(l) {
		return model.ErrListenerNotFound
	}
	return nil
}

// Listeners returns the number of subscribed listeners.
func (r *NotificationRepository) Listeners() int {
	return r.listeners.Len()
}

// Emit builds a notification of a declared type and dispatches it through
// the invoker. It returns the notification as emitted.
func (r *NotificationRepository) Emit(notifType, message string, userData any) (model.Notification, error) {
	r.mu.RLock()
	_, ok := r.declared[notifType]
	r.mu.RUnlock()
	if !ok {
		return model.Notification{}, fmt.Errorf("%w: %s/%s", model.ErrNotificationNotFound, r.resource, notifType)
	}

	n := model.Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Source:    r.resource,
		Sequence:  r.sequence.Add(1),
		TimeStamp: r.clock.Now(),
		Message:   message,
		UserData:  userData,
	}
	delivered := n
	r.invoker.Invoke(func() {
		r.listeners.HandleNotification(&delivered, nil)
	})
	return n, nil
}

// Compile-time interface satisfaction check.
var _ model.NotificationSupport = (*NotificationRepository)(nil)
