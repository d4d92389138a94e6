// Package model defines the SNAMP feature model shared by connectors,
// accessors, registries and gateways.
//
// # Features
//
// A managed resource exposes two kinds of features:
//
//	Resource (sensor1)
//	├── Attribute  temperature  (float64, RW)
//	├── Attribute  humidity     (float64, R)
//	└── Notification [alarm, alarm.cleared]
//
// Each feature is described by immutable metadata. AttributeMetadata is
// identified by its name; NotificationMetadata is identified by the first
// notification type it declares. A new metadata value always implies a new
// accessor.
//
// Metadata is a closed sum type. Code that needs to branch on the feature
// kind implements Visitor, so adding a kind breaks every visitor at compile
// time instead of silently falling through a type switch.
//
// # Lifecycle Events
//
// Connectors describe changes to a resource's feature set with
// FeatureAdded, FeatureModified and FeatureRemoving events. Events carry the
// feature-support capability (AttributeSupport, NotificationSupport or a
// connector-specific binding) the accessor connects to.
//
// # Errors
//
// Every failure surfaced by the feature layer falls into one Category:
//
//	not-found      ErrAttributeNotFound, ErrNotificationNotFound
//	invalid-value  ErrInvalidAttributeValue, ErrUnsupportedOperation
//	internal       ErrInternal (*InternalError)
//	stale          ErrValueExpired
//
// Use Classify to obtain the category of an arbitrary error.
package model
