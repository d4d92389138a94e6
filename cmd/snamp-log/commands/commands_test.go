package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/log"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testEvents() []log.Event {
	session := "5f0c2a9e-1111-2222-3333-444455556666"
	return []log.Event{
		{
			Timestamp:    baseTime,
			SessionID:    session,
			Registry:     "console",
			Category:     log.CategoryRegistration,
			Resource:     "sensor1",
			Feature:      "temperature",
			Kind:         log.FeatureKindAttribute,
			Registration: &log.RegistrationEvent{Action: log.ActionAdded},
		},
		{
			Timestamp: baseTime.Add(time.Second),
			SessionID: session,
			Registry:  "console",
			Category:  log.CategoryAccess,
			Resource:  "sensor1",
			Feature:   "temperature",
			Kind:      log.FeatureKindAttribute,
			Access:    &log.AccessEvent{Op: log.OpWrite, Duration: 2 * time.Millisecond, Outcome: "ok", Value: "99.5"},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			SessionID: session,
			Registry:  "console",
			Category:  log.CategoryAccess,
			Resource:  "sensor1",
			Feature:   "humidity",
			Kind:      log.FeatureKindAttribute,
			Access:    &log.AccessEvent{Op: log.OpRead, Duration: 4 * time.Millisecond, Outcome: "not_found"},
		},
		{
			Timestamp:    baseTime.Add(3 * time.Second),
			SessionID:    session,
			Registry:     "console",
			Category:     log.CategoryNotification,
			Resource:     "sensor1",
			Feature:      "alarm",
			Kind:         log.FeatureKindNotification,
			Notification: &log.NotificationData{Type: "alarm", Sequence: 1, Delivered: true, Message: "too hot"},
		},
		{
			Timestamp:    baseTime.Add(4 * time.Second),
			SessionID:    session,
			Registry:     "console",
			Category:     log.CategoryNotification,
			Resource:     "sensor2",
			Feature:      "alarm",
			Kind:         log.FeatureKindNotification,
			Notification: &log.NotificationData{Type: "alarm", Sequence: 2},
		},
		{
			Timestamp: baseTime.Add(5 * time.Second),
			SessionID: session,
			Registry:  "console",
			Category:  log.CategoryError,
			Resource:  "sensor2",
			Error:     &log.ErrorEventData{Message: "empty identity", Category: "invalid_value", Context: "add"},
		},
		{
			Timestamp:    baseTime.Add(6 * time.Second),
			SessionID:    session,
			Registry:     "console",
			Category:     log.CategoryRegistration,
			Resource:     "sensor1",
			Registration: &log.RegistrationEvent{Action: log.ActionCleared, Count: 5},
		},
	}
}

func writeLog(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.cbor")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestRunView(t *testing.T) {
	path := writeLog(t, testEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-03-14T09:30:00.000000Z [session:5f0c2a9e] REGISTRATION sensor1/temperature",
		"ADDED ATTRIBUTE",
		"WRITE ok in 2.000ms",
		"Value: 99.5",
		"READ not_found in 4.000ms",
		"alarm #1 delivered",
		"Message: too hot",
		"alarm #2 dropped",
		"Message: empty identity",
		"Context: add",
		"CLEARED NONE count=5",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := writeLog(t, testEvents())

	category := log.CategoryAccess
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Resource: "sensor1", Category: &category}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	output := buf.String()

	if got := strings.Count(output, "[session:"); got != 2 {
		t.Errorf("expected 2 events, got %d:\n%s", got, output)
	}
	if strings.Contains(output, "NOTIFICATION") {
		t.Errorf("unexpected notification event:\n%s", output)
	}

	kind := log.FeatureKindNotification
	buf.Reset()
	if err := RunView(path, ViewFilter{Kind: &kind}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if got := strings.Count(buf.String(), "[session:"); got != 2 {
		t.Errorf("expected 2 notification events, got %d", got)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(filepath.Join(t.TempDir(), "missing.cbor"), ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunStats(t *testing.T) {
	path := writeLog(t, testEvents())

	var buf bytes.Buffer
	if err := RunStats(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 7",
		"Sessions:     1",
		"REGISTRATION:  2",
		"ACCESS:        2",
		"NOTIFICATION:  2",
		"ERROR:         1",
		"Attribute Access: 2 (mean 3.000ms)",
		"not_found:     1",
		"ok:            1",
		"Notifications: 1 delivered, 1 dropped",
		"Resources: 2",
		"Errors: 1",
		"Duration:   6s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunStatsFiltered(t *testing.T) {
	path := writeLog(t, testEvents())

	var buf bytes.Buffer
	if err := RunStats(path, ViewFilter{Resource: "sensor2"}, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Total Events: 2") {
		t.Errorf("expected 2 events:\n%s", output)
	}
	if strings.Contains(output, "Attribute Access") {
		t.Errorf("unexpected access section:\n%s", output)
	}
}

func TestRunStatsEmpty(t *testing.T) {
	path := writeLog(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected empty stats:\n%s", buf.String())
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeLog(t, testEvents())
	out := filepath.Join(t.TempDir(), "events.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["Resource"] != "sensor1" {
		t.Errorf("expected Resource sensor1, got %v", first["Resource"])
	}
}

func TestRunExportCSV(t *testing.T) {
	path := writeLog(t, testEvents())
	out := filepath.Join(t.TempDir(), "events.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected header + 7 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id,registry,category") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "ACCESS,sensor1,temperature,ATTRIBUTE,WRITE,ok,2000000") {
		t.Errorf("unexpected access row: %s", lines[2])
	}
	if !strings.Contains(lines[5], "NOTIFICATION,sensor2,alarm,NOTIFICATION,alarm,dropped,") {
		t.Errorf("unexpected notification row: %s", lines[5])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeLog(t, testEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := writeLog(t, testEvents())
	out := filepath.Join(t.TempDir(), "filtered.cbor")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		Resource:  "sensor1",
		Kind:      "attribute",
		TimeStart: baseTime.Add(time.Second).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()
	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Access == nil || event.Access.Op != log.OpWrite {
		t.Errorf("expected write access event, got %+v", event)
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := writeLog(t, testEvents())
	out := filepath.Join(t.TempDir(), "filtered.cbor")

	for _, opts := range []FilterOptions{
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
		{Output: out, Category: "bogus"},
		{Output: out, Kind: "operation"},
	} {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestParseFlags(t *testing.T) {
	c, err := ParseCategoryFlag("Notification")
	if err != nil || c != log.CategoryNotification {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for unknown category")
	}

	k, err := ParseKindFlag("attr")
	if err != nil || k != log.FeatureKindAttribute {
		t.Errorf("ParseKindFlag = %v, %v", k, err)
	}
	if _, err := ParseKindFlag("operation"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		500 * time.Nanosecond:   "0.500us",
		1500 * time.Microsecond: "1.500ms",
		2 * time.Second:         "2.000s",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
