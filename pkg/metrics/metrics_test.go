package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetAccessors("r", "attribute", 1, 1)
		m.ObserveAttributeOp("r", "read", "ok", time.Millisecond)
		m.NotificationRouted("r", true)
		m.StaleRead("sensor1")
	})
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("")
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Register(reg))
}

func TestRecording(t *testing.T) {
	m := NewMetrics("test")

	m.SetAccessors("gw", "attribute", 3, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.accessors.WithLabelValues("gw", "attribute")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.hostedResources.WithLabelValues("gw", "attribute")))

	m.ObserveAttributeOp("gw", "read", "ok", time.Millisecond)
	m.ObserveAttributeOp("gw", "read", "ok", time.Millisecond)
	m.ObserveAttributeOp("gw", "write", "invalid_value", time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attributeOps.WithLabelValues("gw", "read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attributeOps.WithLabelValues("gw", "write", "invalid_value")))

	m.NotificationRouted("gw", true)
	m.NotificationRouted("gw", false)
	m.NotificationRouted("gw", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("gw", OutcomeDelivered)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("gw", OutcomeDropped)))

	m.StaleRead("sensor1")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleReads.WithLabelValues("sensor1")))
}

func TestMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("")
	require.NoError(t, m.Register(reg))
	m.StaleRead("sensor1")

	n, err := testutil.GatherAndCount(reg, "snamp_mda_stale_reads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
