// Package accessor binds feature metadata to live connector backends.
//
// An accessor owns exactly one metadata value and is either connected (it
// holds a live feature-support reference) or disconnected. Feature
// lifecycle events move it between the two states:
//
//	FeatureAdded     -> connect to the event's support object
//	FeatureModified  -> release and reconnect
//	FeatureRemoving  -> release
//
// Close is terminal and idempotent. It releases any subscription and runs
// the accessor's Disconnected hook exactly once.
//
// AttributeAccessor reads and writes values through model.AttributeSupport
// and translates every backend failure into the model error taxonomy.
// NotificationAccessor subscribes a NotificationRouter to
// model.NotificationSupport; the router forwards to a weakly-held
// destination and silently drops notifications once the destination has
// been collected.
package accessor
