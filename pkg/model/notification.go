package model

import (
	"slices"
	"time"
)

// Severity classifies notifications.
type Severity uint8

const (
	SeverityUnknown Severity = iota
	SeverityDebug
	SeverityInformational
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityAlert
	SeverityPanic
)

var severityNames = []string{
	"unknown", "debug", "informational", "notice", "warning",
	"error", "critical", "alert", "panic",
}

// String returns the severity name.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// ParseSeverity returns the Severity with the given name.
// Unknown names map to SeverityUnknown.
func ParseSeverity(name string) Severity {
	for i, n := range severityNames {
		if n == name {
			return Severity(i)
		}
	}
	return SeverityUnknown
}

// NotificationMetadata describes a notification feature. One feature may
// declare several notification types; the first one is its identity.
type NotificationMetadata struct {
	// Types lists the notification types emitted by this feature.
	Types []string

	// Description is a human-readable description.
	Description string

	// Severity is the default severity of emitted notifications.
	Severity Severity
}

// Identity returns the first declared notification type, or "" if none.
func (m *NotificationMetadata) Identity() string {
	if m == nil || len(m.Types) == 0 {
		return ""
	}
	return m.Types[0]
}

// Kind returns KindNotification.
func (m *NotificationMetadata) Kind() Kind { return KindNotification }

// Accept calls v.VisitNotification.
func (m *NotificationMetadata) Accept(v Visitor) error { return v.VisitNotification(m) }

func (*NotificationMetadata) sealed() {}

// Matches reports whether notifType is one of the declared types.
func (m *NotificationMetadata) Matches(notifType string) bool {
	return slices.Contains(m.Types, notifType)
}

// Notification is a single event emitted by a managed resource.
type Notification struct {
	// ID uniquely identifies this notification.
	ID string

	// Type is the notification type.
	Type string

	// Source names the emitting resource. Routers may stamp it.
	Source string

	// Sequence is a per-source sequence number.
	Sequence uint64

	// TimeStamp is when the notification was emitted.
	TimeStamp time.Time

	// Message is a human-readable message.
	Message string

	// UserData carries an optional payload.
	UserData any
}

// NotificationEvent is what a router delivers to its destination.
type NotificationEvent struct {
	// Resource is the resource the notification belongs to.
	Resource string

	// Metadata describes the notification feature.
	Metadata *NotificationMetadata

	// Notification is the (possibly intercepted) notification.
	Notification Notification
}

// NotificationFilter selects notifications. A nil filter accepts everything.
type NotificationFilter func(n *Notification) bool

// NotificationListener receives notifications from a source.
// Implementations must be safe for concurrent use.
type NotificationListener interface {
	HandleNotification(n *Notification, handback any)
}

// NotificationEventListener receives routed notification events.
// Implementations must be safe for concurrent use.
type NotificationEventListener interface {
	HandleNotificationEvent(event NotificationEvent)
}

// NotificationListenerFunc adapts a function to NotificationListener.
type NotificationListenerFunc func(n *Notification, handback any)

// HandleNotification calls f(n, handback).
func (f NotificationListenerFunc) HandleNotification(n *Notification, handback any) { f(n, handback) }
