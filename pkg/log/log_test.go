package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func accessEvent(resource string, outcome string, d time.Duration) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: "sess-1",
		Registry:  "test",
		Category:  CategoryAccess,
		Resource:  resource,
		Feature:   "temperature",
		Kind:      FeatureKindAttribute,
		Access:    &AccessEvent{Op: OpRead, Duration: d, Outcome: outcome},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	event := Event{
		Timestamp:    ts,
		SessionID:    "sess-1",
		Category:     CategoryNotification,
		Resource:     "sensor1",
		Feature:      "alarm",
		Kind:         FeatureKindNotification,
		Notification: &NotificationData{Type: "alarm", Sequence: 7, Delivered: true},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", got.Timestamp, ts)
	}
	if got.Resource != "sensor1" || got.Feature != "alarm" {
		t.Errorf("location: got %s/%s", got.Resource, got.Feature)
	}
	if got.Notification == nil || got.Notification.Sequence != 7 || !got.Notification.Delivered {
		t.Errorf("notification payload: got %+v", got.Notification)
	}
	if got.Access != nil || got.Registration != nil || got.Error != nil {
		t.Error("unexpected payloads decoded")
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.slog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(accessEvent("sensor1", "ok", time.Millisecond))
	logger.Log(accessEvent("sensor2", "not_found", 2*time.Millisecond))
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	logger.Log(accessEvent("ignored", "ok", 0))

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var resources []string
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		resources = append(resources, e.Resource)
	}
	if len(resources) != 2 || resources[0] != "sensor1" || resources[1] != "sensor2" {
		t.Errorf("got resources %v", resources)
	}
	if logger.Dropped() != 0 {
		t.Errorf("dropped: got %d", logger.Dropped())
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.slog")
	for i := 0; i < 2; i++ {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(accessEvent("sensor1", "ok", 0))
		logger.Close()
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	count := 0
	for {
		if _, err := r.Next(); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d events, want 2", count)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.slog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.Log(accessEvent("sensor1", "ok", 0))
			}
		}()
	}
	wg.Wait()
	logger.Close()

	stats, err := readStats(path, Filter{})
	if err != nil {
		t.Fatalf("readStats failed: %v", err)
	}
	if stats.Total != 100 {
		t.Errorf("got %d events, want 100", stats.Total)
	}
}

func TestNewFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.slog")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFilterMatches(t *testing.T) {
	access := CategoryAccess
	notif := CategoryNotification
	attr := FeatureKindAttribute
	now := time.Now()
	later := now.Add(time.Minute)
	e := accessEvent("sensor1", "ok", 0)
	e.Timestamp = now

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"resource match", Filter{Resource: "sensor1"}, true},
		{"resource mismatch", Filter{Resource: "sensor2"}, false},
		{"category match", Filter{Category: &access}, true},
		{"category mismatch", Filter{Category: &notif}, false},
		{"kind match", Filter{Kind: &attr}, true},
		{"feature mismatch", Filter{Feature: "humidity"}, false},
		{"session mismatch", Filter{SessionID: "other"}, false},
		{"registry match", Filter{Registry: "test"}, true},
		{"time window", Filter{TimeStart: &now, TimeEnd: &later}, true},
		{"before window", Filter{TimeStart: &later}, false},
		{"end exclusive", Filter{TimeEnd: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(e); got != tt.want {
				t.Errorf("Matches: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.slog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(accessEvent("sensor1", "ok", 0))
	logger.Log(accessEvent("sensor2", "ok", 0))
	logger.Log(accessEvent("sensor1", "internal", 0))
	logger.Close()

	stats, err := readStats(path, Filter{Resource: "sensor1"})
	if err != nil {
		t.Fatalf("readStats failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("got %d events, want 2", stats.Total)
	}
	if stats.Outcomes["internal"] != 1 {
		t.Errorf("internal outcomes: got %d", stats.Outcomes["internal"])
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(accessEvent("sensor1", "stale", 5*time.Millisecond))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	want := map[string]any{
		"msg":      "registry",
		"session":  "sess-1",
		"category": "ACCESS",
		"resource": "sensor1",
		"feature":  "temperature",
		"kind":     "ATTRIBUTE",
		"op":       "READ",
		"outcome":  "stale",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(accessEvent("sensor1", "ok", 0))
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestMultiLogger(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)
	if m.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", m.Len())
	}
	m.Log(accessEvent("sensor1", "ok", 0))
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("got %d and %d events", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	c := &captureLogger{}
	if OrNoop(c) != Logger(c) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestStats(t *testing.T) {
	s := NewStats()
	t0 := time.Now()
	e1 := accessEvent("sensor2", "ok", 2*time.Millisecond)
	e1.Timestamp = t0
	e2 := accessEvent("sensor1", "ok", 4*time.Millisecond)
	e2.Timestamp = t0.Add(time.Second)
	s.Add(e1)
	s.Add(e2)
	s.Add(Event{Timestamp: t0, Category: CategoryNotification, Notification: &NotificationData{Delivered: true}})
	s.Add(Event{Timestamp: t0, Category: CategoryNotification, Notification: &NotificationData{}})

	if s.Total != 4 {
		t.Errorf("Total: got %d", s.Total)
	}
	if s.MeanAccessTime() != 3*time.Millisecond {
		t.Errorf("MeanAccessTime: got %v", s.MeanAccessTime())
	}
	if s.Delivered != 1 || s.Dropped != 1 {
		t.Errorf("delivered/dropped: got %d/%d", s.Delivered, s.Dropped)
	}
	if names := s.ResourceNames(); len(names) != 2 || names[0] != "sensor1" {
		t.Errorf("ResourceNames: got %v", names)
	}
	if !s.Last.Equal(t0.Add(time.Second)) || !s.First.Equal(t0) {
		t.Errorf("window: %v - %v", s.First, s.Last)
	}
}

func TestCategoryNames(t *testing.T) {
	for c := CategoryRegistration; c <= CategoryError; c++ {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCategory("bogus"); ok {
		t.Error("ParseCategory accepted an unknown name")
	}
	if Category(99).String() != "UNKNOWN" {
		t.Error("unknown category name")
	}
}

func readStats(path string, filter Filter) (*Stats, error) {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s := NewStats()
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		s.Add(e)
	}
}
