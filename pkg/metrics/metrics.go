// Package metrics exposes Prometheus instrumentation for feature registries
// and MDA acceptors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "snamp"

// Outcome label values for notification routing.
const (
	OutcomeDelivered = "delivered"
	OutcomeDropped   = "dropped"
)

// Metrics holds the registry and MDA collectors.
type Metrics struct {
	accessors        *prometheus.GaugeVec
	hostedResources  *prometheus.GaugeVec
	attributeOps     *prometheus.CounterVec
	attributeLatency *prometheus.HistogramVec
	notifications    *prometheus.CounterVec
	staleReads       *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors under namespace. An empty
// namespace selects DefaultNamespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Metrics{
		accessors: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "accessors",
				Help:      "Number of registered feature accessors",
			},
			[]string{"registry", "kind"},
		),
		hostedResources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "hosted_resources",
				Help:      "Number of resources with at least one registered feature",
			},
			[]string{"registry", "kind"},
		),
		attributeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "attribute_operations_total",
				Help:      "Attribute reads and writes by outcome category",
			},
			[]string{"registry", "op", "outcome"},
		),
		attributeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "attribute_operation_duration_seconds",
				Help:      "Attribute read and write latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"registry", "op"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "notifications_total",
				Help:      "Routed notifications by outcome",
			},
			[]string{"registry", "outcome"},
		),
		staleReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mda",
				Name:      "stale_reads_total",
				Help:      "Reads of MDA attributes whose value had expired",
			},
			[]string{"resource"},
		),
	}
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.accessors,
		m.hostedResources,
		m.attributeOps,
		m.attributeLatency,
		m.notifications,
		m.staleReads,
	}
}

// Register registers every collector with reg. Collectors that are
// already registered are not an error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// SetAccessors records the accessor and hosted-resource counts of a registry.
func (m *Metrics) SetAccessors(registry, kind string, accessors, resources int) {
	if m == nil {
		return
	}
	m.accessors.WithLabelValues(registry, kind).Set(float64(accessors))
	m.hostedResources.WithLabelValues(registry, kind).Set(float64(resources))
}

// ObserveAttributeOp records one attribute operation.
func (m *Metrics) ObserveAttributeOp(registry, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attributeOps.WithLabelValues(registry, op, outcome).Inc()
	m.attributeLatency.WithLabelValues(registry, op).Observe(d.Seconds())
}

// NotificationRouted records a delivered or dropped notification.
func (m *Metrics) NotificationRouted(registry string, delivered bool) {
	if m == nil {
		return
	}
	outcome := OutcomeDropped
	if delivered {
		outcome = OutcomeDelivered
	}
	m.notifications.WithLabelValues(registry, outcome).Inc()
}

// StaleRead records a read of an expired MDA value.
func (m *Metrics) StaleRead(resource string) {
	if m == nil {
		return
	}
	m.staleReads.WithLabelValues(resource).Inc()
}
