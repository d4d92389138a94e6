package model

// Kind identifies the kind of a feature.
type Kind uint8

const (
	// KindAttribute is a readable/writable value.
	KindAttribute Kind = iota + 1

	// KindNotification is an event stream.
	KindNotification
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "ATTRIBUTE"
	case KindNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// Metadata is the immutable descriptor of one feature.
// The set of implementations is closed: *AttributeMetadata and
// *NotificationMetadata.
type Metadata interface {
	// Identity returns the key that identifies the feature within its resource.
	Identity() string

	// Kind returns the feature kind.
	Kind() Kind

	// Accept dispatches to the Visitor method for the concrete kind.
	Accept(v Visitor) error

	sealed()
}

// Visitor handles each feature kind.
type Visitor interface {
	VisitAttribute(m *AttributeMetadata) error
	VisitNotification(m *NotificationMetadata) error
}

// SameFeature reports whether a and b describe the same logical feature.
func SameFeature(a, b Metadata) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind() && a.Identity() == b.Identity()
}

// Compile-time interface satisfaction checks.
var (
	_ Metadata = (*AttributeMetadata)(nil)
	_ Metadata = (*NotificationMetadata)(nil)
)
