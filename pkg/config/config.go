// Package config loads the YAML configuration of the snamp tools.
//
// A configuration describes how the console logs and exposes metrics, how
// its passive data acceptors keep their values, and which resources with
// which attributes and notifications are declared at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snamp-platform/snamp-go/pkg/mda"
	"github.com/snamp-platform/snamp-go/pkg/model"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Storage types.
const (
	StorageMemory = "memory"
	StorageNATS   = "nats"
)

// Invoker types.
const (
	InvokerSync     = "sync"
	InvokerParallel = "parallel"
)

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	Logging   Logging          `yaml:"logging"`
	Metrics   Metrics          `yaml:"metrics"`
	MDA       MDA              `yaml:"mda"`
	Resources []ResourceConfig `yaml:"resources"`
}

// Logging configures operational logs and the event log.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// EventLog is the path of the CBOR event log. Empty disables it.
	EventLog string `yaml:"event_log"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// MDA configures the passive data acceptors.
type MDA struct {
	Expiration Duration `yaml:"expiration"`
	TimerMode  string   `yaml:"timer_mode"`
	Storage    Storage  `yaml:"storage"`
	Invoker    Invoker  `yaml:"invoker"`
}

// Storage selects where acceptor values live.
type Storage struct {
	Type    string   `yaml:"type"`
	URL     string   `yaml:"url"`
	Bucket  string   `yaml:"bucket"`
	Timeout Duration `yaml:"timeout"`
}

// Invoker selects how notifications are dispatched.
type Invoker struct {
	Type    string `yaml:"type"`
	Workers int    `yaml:"workers"`
}

// ResourceConfig declares one passive resource.
type ResourceConfig struct {
	Name          string               `yaml:"name"`
	Attributes    []AttributeConfig    `yaml:"attributes"`
	Notifications []NotificationConfig `yaml:"notifications"`
}

// AttributeConfig declares one attribute.
type AttributeConfig struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Access       string   `yaml:"access"`
	Nullable     bool     `yaml:"nullable"`
	Default      any      `yaml:"default"`
	Min          any      `yaml:"min"`
	Max          any      `yaml:"max"`
	Unit         string   `yaml:"unit"`
	Description  string   `yaml:"description"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// NotificationConfig declares one notification feature.
type NotificationConfig struct {
	Types       []string `yaml:"types"`
	Description string   `yaml:"description"`
	Severity    string   `yaml:"severity"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Metrics: Metrics{Namespace: "snamp"},
		MDA: MDA{
			TimerMode: string(mda.TimerShared),
			Storage: Storage{
				Type:    StorageMemory,
				Bucket:  "snamp-mda",
				Timeout: Duration(mda.DefaultKVTimeout),
			},
			Invoker: Invoker{Type: InvokerSync, Workers: 4},
		},
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document on top of Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		fail("logging.level: %v", err)
	}
	if c.MDA.Expiration < 0 {
		fail("mda.expiration must not be negative")
	}
	if _, err := mda.ParseTimerMode(c.MDA.TimerMode); err != nil {
		fail("mda.timer_mode: %v", err)
	}

	switch c.MDA.Storage.Type {
	case "", StorageMemory:
	case StorageNATS:
		if c.MDA.Storage.URL == "" {
			fail("mda.storage.url is required for nats storage")
		}
		if c.MDA.Storage.Bucket == "" {
			fail("mda.storage.bucket is required for nats storage")
		}
	default:
		fail("mda.storage.type: unknown type %q", c.MDA.Storage.Type)
	}

	switch c.MDA.Invoker.Type {
	case "", InvokerSync:
	case InvokerParallel:
		if c.MDA.Invoker.Workers < 1 {
			fail("mda.invoker.workers must be positive")
		}
	default:
		fail("mda.invoker.type: unknown type %q", c.MDA.Invoker.Type)
	}

	seen := make(map[string]bool)
	for i, r := range c.Resources {
		if r.Name == "" {
			fail("resources[%d]: name is required", i)
			continue
		}
		if seen[r.Name] {
			fail("resources[%d]: duplicate resource %q", i, r.Name)
		}
		seen[r.Name] = true

		attrs := make(map[string]bool)
		for j := range r.Attributes {
			a := &r.Attributes[j]
			if _, err := a.Metadata(); err != nil {
				fail("resources[%d].attributes[%d]: %v", i, j, err)
				continue
			}
			if attrs[a.Name] {
				fail("resources[%d].attributes[%d]: duplicate attribute %q", i, j, a.Name)
			}
			attrs[a.Name] = true
		}
		for j := range r.Notifications {
			if _, err := r.Notifications[j].Metadata(); err != nil {
				fail("resources[%d].notifications[%d]: %v", i, j, err)
			}
		}
	}

	return errors.Join(errs...)
}

// Metadata converts the declaration into attribute metadata.
func (a *AttributeConfig) Metadata() (*model.AttributeMetadata, error) {
	if a.Name == "" {
		return nil, errors.New("name is required")
	}
	dt, err := model.ParseDataType(a.Type)
	if err != nil {
		return nil, err
	}
	access := model.AccessReadWrite
	if a.Access != "" {
		if access, err = model.ParseAccess(a.Access); err != nil {
			return nil, err
		}
	}
	if a.ReadTimeout < 0 || a.WriteTimeout < 0 {
		return nil, errors.New("timeouts must not be negative")
	}

	m := &model.AttributeMetadata{
		Name:         a.Name,
		Type:         dt,
		Access:       access,
		Nullable:     a.Nullable,
		Unit:         a.Unit,
		Description:  a.Description,
		ReadTimeout:  a.ReadTimeout.Std(),
		WriteTimeout: a.WriteTimeout.Std(),
	}
	if m.MinValue, err = convertBound(m, "min", a.Min); err != nil {
		return nil, err
	}
	if m.MaxValue, err = convertBound(m, "max", a.Max); err != nil {
		return nil, err
	}
	if a.Default != nil {
		v, err := m.Convert(a.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		if err := m.Validate(v); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		m.Default = v
	}
	return m, nil
}

func convertBound(m *model.AttributeMetadata, name string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, err := m.Convert(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Metadata converts the declaration into notification metadata.
func (n *NotificationConfig) Metadata() (*model.NotificationMetadata, error) {
	if len(n.Types) == 0 {
		return nil, errors.New("at least one type is required")
	}
	for _, t := range n.Types {
		if t == "" {
			return nil, errors.New("empty notification type")
		}
	}
	sev := model.SeverityUnknown
	if n.Severity != "" {
		sev = model.ParseSeverity(strings.ToLower(n.Severity))
		if sev == model.SeverityUnknown && !strings.EqualFold(n.Severity, "unknown") {
			return nil, fmt.Errorf("unknown severity %q", n.Severity)
		}
	}
	return &model.NotificationMetadata{
		Types:       append([]string(nil), n.Types...),
		Description: n.Description,
		Severity:    sev,
	}, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
