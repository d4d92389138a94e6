// Package commands implements the snamp-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Resource string
	Feature  string
	Category *log.Category
	Kind     *log.FeatureKind
}

func (f ViewFilter) filter() log.Filter {
	return log.Filter{
		Resource: f.Resource,
		Feature:  f.Feature,
		Category: f.Category,
		Kind:     f.Kind,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] CATEGORY resource/feature
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	target := event.Resource
	if event.Feature != "" {
		target += "/" + event.Feature
	}
	if target == "" {
		target = "-"
	}
	fmt.Fprintf(w, "%s [session:%s] %-12s %s\n", ts, shortenID(event.SessionID), event.Category, target)

	switch {
	case event.Registration != nil:
		formatRegistrationDetails(w, event)
	case event.Access != nil:
		formatAccessDetails(w, event.Access)
	case event.Notification != nil:
		formatNotificationDetails(w, event.Notification)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatRegistrationDetails(w io.Writer, event log.Event) {
	reg := event.Registration
	fmt.Fprintf(w, "  %s %s", reg.Action, event.Kind)
	if reg.Existing {
		fmt.Fprint(w, " (existing)")
	}
	if reg.Action == log.ActionCleared {
		fmt.Fprintf(w, " count=%d", reg.Count)
	}
	fmt.Fprintln(w)
}

func formatAccessDetails(w io.Writer, access *log.AccessEvent) {
	fmt.Fprintf(w, "  %s %s in %s\n", access.Op, access.Outcome, formatDuration(access.Duration))
	if access.Value != nil {
		fmt.Fprintf(w, "  Value: %v\n", access.Value)
	}
}

func formatNotificationDetails(w io.Writer, n *log.NotificationData) {
	state := "delivered"
	if !n.Delivered {
		state = "dropped"
	}
	fmt.Fprintf(w, "  %s #%d %s\n", n.Type, n.Sequence, state)
	if n.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", n.Message)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Category != "" {
		fmt.Fprintf(w, "  Category: %s\n", err.Category)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be registration, access, notification, or error)", s)
	}
	return c, nil
}

// ParseKindFlag parses a feature kind string from command-line flag (case-insensitive).
func ParseKindFlag(s string) (log.FeatureKind, error) {
	switch strings.ToLower(s) {
	case "attribute", "attr":
		return log.FeatureKindAttribute, nil
	case "notification", "notif":
		return log.FeatureKindNotification, nil
	default:
		return 0, fmt.Errorf("invalid kind: %s (must be attribute or notification)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
