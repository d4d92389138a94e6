// Package mda implements Monitoring Data Acquisition: passive resources
// whose attribute values and notifications are pushed in by external
// agents instead of being polled from a backend.
//
// An Acceptor owns one passive resource. It declares attributes and
// notifications into a registry.Registry through feature events, keeps
// attribute values in a Storage (in memory or a NATS JetStream key-value
// bucket) and tracks their freshness with AccessTimers. A value that has
// not been written for longer than the configured expiration is stale:
// reads fail with model.ErrValueExpired until the next write.
//
// Notifications are emitted through a NotificationRepository, which
// dispatches them to subscribed routers with an Invoker. The
// ParallelInvoker does not preserve ordering between notifications.
package mda
