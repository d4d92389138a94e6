package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/snamp-platform/snamp-go/pkg/model"
)

const sampleConfig = `
logging:
  level: debug
  event_log: /tmp/snamp-events.cbor
metrics:
  addr: ":9090"
mda:
  expiration: 500ms
  timer_mode: per-attribute
  storage:
    type: nats
    url: nats://127.0.0.1:4222
    bucket: sensors
    timeout: 2s
  invoker:
    type: parallel
    workers: 8
resources:
  - name: sensor1
    attributes:
      - name: temperature
        type: float64
        access: rw
        default: 20
        min: -40
        max: 125
        unit: C
        read_timeout: 100ms
      - name: serial
        type: string
        access: r
    notifications:
      - types: [alarm, alarm.cleared]
        description: threshold alarms
        severity: warning
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/snamp-events.cbor", cfg.Logging.EventLog)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "snamp", cfg.Metrics.Namespace, "default kept")
	assert.Equal(t, 500*time.Millisecond, cfg.MDA.Expiration.Std())
	assert.Equal(t, "per-attribute", cfg.MDA.TimerMode)
	assert.Equal(t, StorageNATS, cfg.MDA.Storage.Type)
	assert.Equal(t, "sensors", cfg.MDA.Storage.Bucket)
	assert.Equal(t, 2*time.Second, cfg.MDA.Storage.Timeout.Std())
	assert.Equal(t, InvokerParallel, cfg.MDA.Invoker.Type)
	assert.Equal(t, 8, cfg.MDA.Invoker.Workers)

	require.Len(t, cfg.Resources, 1)
	res := cfg.Resources[0]
	assert.Equal(t, "sensor1", res.Name)
	require.Len(t, res.Attributes, 2)
	require.Len(t, res.Notifications, 1)
}

func TestAttributeMetadata(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	temp, err := cfg.Resources[0].Attributes[0].Metadata()
	require.NoError(t, err)
	assert.Equal(t, "temperature", temp.Name)
	assert.Equal(t, model.DataTypeFloat64, temp.Type)
	assert.Equal(t, model.AccessReadWrite, temp.Access)
	assert.Equal(t, float64(20), temp.Default)
	assert.Equal(t, float64(-40), temp.MinValue)
	assert.Equal(t, float64(125), temp.MaxValue)
	assert.Equal(t, "C", temp.Unit)
	assert.Equal(t, 100*time.Millisecond, temp.ReadTimeout)
	assert.Zero(t, temp.WriteTimeout)

	serial, err := cfg.Resources[0].Attributes[1].Metadata()
	require.NoError(t, err)
	assert.Equal(t, model.AccessReadOnly, serial.Access)
	assert.Nil(t, serial.Default)
	assert.Equal(t, "", serial.DefaultValue())
}

func TestAttributeMetadataDefaultsToReadWrite(t *testing.T) {
	a := AttributeConfig{Name: "count", Type: "uint16"}
	m, err := a.Metadata()
	require.NoError(t, err)
	assert.Equal(t, model.AccessReadWrite, m.Access)
	assert.Equal(t, uint16(0), m.DefaultValue())
}

func TestAttributeMetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		attr AttributeConfig
	}{
		{"missing name", AttributeConfig{Type: "int32"}},
		{"unknown type", AttributeConfig{Name: "a", Type: "decimal"}},
		{"bad access", AttributeConfig{Name: "a", Type: "int32", Access: "rx"}},
		{"default out of range", AttributeConfig{Name: "a", Type: "int32", Default: 200, Max: 100}},
		{"default does not fit", AttributeConfig{Name: "a", Type: "int8", Default: 1000}},
		{"default wrong type", AttributeConfig{Name: "a", Type: "bool", Default: "maybe"}},
		{"bad bound", AttributeConfig{Name: "a", Type: "int32", Min: "low"}},
		{"negative timeout", AttributeConfig{Name: "a", Type: "int32", ReadTimeout: Duration(-time.Second)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.attr.Metadata()
			assert.Error(t, err)
		})
	}
}

func TestNotificationMetadata(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	m, err := cfg.Resources[0].Notifications[0].Metadata()
	require.NoError(t, err)
	assert.Equal(t, "alarm", m.Identity())
	assert.True(t, m.Matches("alarm.cleared"))
	assert.Equal(t, model.SeverityWarning, m.Severity)
	assert.Equal(t, "threshold alarms", m.Description)

	_, err = (&NotificationConfig{}).Metadata()
	assert.Error(t, err)
	_, err = (&NotificationConfig{Types: []string{"a", ""}}).Metadata()
	assert.Error(t, err)
	_, err = (&NotificationConfig{Types: []string{"a"}, Severity: "loud"}).Metadata()
	assert.Error(t, err)

	m, err = (&NotificationConfig{Types: []string{"a"}, Severity: "Critical"}).Metadata()
	require.NoError(t, err)
	assert.Equal(t, model.SeverityCritical, m.Severity)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StorageMemory, cfg.MDA.Storage.Type)
	assert.Equal(t, InvokerSync, cfg.MDA.Invoker.Type)
	assert.Equal(t, "shared", cfg.MDA.TimerMode)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	doc := `
logging:
  level: loud
mda:
  timer_mode: global
  storage:
    type: nats
  invoker:
    type: parallel
    workers: 0
resources:
  - name: a
    attributes:
      - name: x
        type: int32
      - name: x
        type: int32
  - name: a
  - attributes:
      - name: y
        type: int32
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	// level, timer mode, url, workers, duplicate attribute,
	// duplicate resource, missing name
	assert.Len(t, joined.Unwrap(), 7)
}

func TestValidateUnknownTypes(t *testing.T) {
	cfg := Default()
	cfg.MDA.Storage.Type = "redis"
	cfg.MDA.Invoker.Type = "pool"
	cfg.MDA.Expiration = Duration(-time.Second)
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "redis")
	assert.Contains(t, err.Error(), "pool")
	assert.Contains(t, err.Error(), "expiration")
}

func TestDurationYAML(t *testing.T) {
	var v struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 1m30s"), &v))
	assert.Equal(t, 90*time.Second, v.D.Std())

	require.Error(t, yaml.Unmarshal([]byte("d: soon"), &v))

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "d: 1m30s\n", string(out))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sensor1", cfg.Resources[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
