package log

import (
	"time"
)

// Event is one registry event. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the registry instance that emitted the event.
	SessionID string `cbor:"2,keyasint"`

	// Registry is the configured registry name.
	Registry string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Resource is the managed resource name.
	Resource string `cbor:"5,keyasint,omitempty"`

	// Feature is the feature identity (attribute name or notification type).
	Feature string `cbor:"6,keyasint,omitempty"`

	// Kind is the feature kind.
	Kind FeatureKind `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Registration *RegistrationEvent `cbor:"10,keyasint,omitempty"`
	Access       *AccessEvent       `cbor:"11,keyasint,omitempty"`
	Notification *NotificationData  `cbor:"12,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"13,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRegistration covers features being added or removed.
	CategoryRegistration Category = 0
	// CategoryAccess covers attribute reads and writes.
	CategoryAccess Category = 1
	// CategoryNotification covers notification routing.
	CategoryNotification Category = 2
	// CategoryError covers failures not tied to a single access.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRegistration:
		return "REGISTRATION"
	case CategoryAccess:
		return "ACCESS"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the Category with the given name, case-sensitive.
func ParseCategory(name string) (Category, bool) {
	for c := CategoryRegistration; c <= CategoryError; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// FeatureKind mirrors model.Kind without importing it.
type FeatureKind uint8

const (
	FeatureKindNone         FeatureKind = 0
	FeatureKindAttribute    FeatureKind = 1
	FeatureKindNotification FeatureKind = 2
)

// String returns the kind name.
func (k FeatureKind) String() string {
	switch k {
	case FeatureKindAttribute:
		return "ATTRIBUTE"
	case FeatureKindNotification:
		return "NOTIFICATION"
	default:
		return "NONE"
	}
}

// RegistrationAction is what happened to a feature.
type RegistrationAction uint8

const (
	ActionAdded RegistrationAction = iota
	ActionRemoved
	ActionCleared
	ActionConnected
	ActionDisconnected
)

// String returns the action name.
func (a RegistrationAction) String() string {
	switch a {
	case ActionAdded:
		return "ADDED"
	case ActionRemoved:
		return "REMOVED"
	case ActionCleared:
		return "CLEARED"
	case ActionConnected:
		return "CONNECTED"
	case ActionDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// RegistrationEvent records a change to the registered feature set.
type RegistrationEvent struct {
	Action RegistrationAction `cbor:"1,keyasint"`

	// Count is the number of accessors affected (ActionCleared only).
	Count int `cbor:"2,keyasint,omitempty"`

	// Existing is set when an add returned an already registered accessor.
	Existing bool `cbor:"3,keyasint,omitempty"`
}

// AccessOp is an attribute operation.
type AccessOp uint8

const (
	OpRead AccessOp = iota
	OpWrite
)

// String returns the operation name.
func (o AccessOp) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// AccessEvent records one attribute read or write.
type AccessEvent struct {
	Op AccessOp `cbor:"1,keyasint"`

	// Duration of the backend call, in nanoseconds.
	Duration time.Duration `cbor:"2,keyasint"`

	// Outcome is the error category name ("ok" on success).
	Outcome string `cbor:"3,keyasint"`

	// Value is the value written or read, if captured.
	Value any `cbor:"4,keyasint,omitempty"`
}

// NotificationData records one routed notification.
type NotificationData struct {
	Type      string `cbor:"1,keyasint"`
	Sequence  uint64 `cbor:"2,keyasint,omitempty"`
	Delivered bool   `cbor:"3,keyasint"`
	Message   string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures an error.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Category is the error category name.
	Category string `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
