package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/snamp-platform/snamp-go/pkg/log"
)

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, filter ViewFilter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := log.NewStats()
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.Add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *log.Stats) {
	fmt.Fprintln(w, "=== SNAMP Registry Log Statistics ===")
	fmt.Fprintln(w)

	if stats.Total > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.First.Format(time.RFC3339),
			stats.Last.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.Last.Sub(stats.First).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.Total)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryRegistration, log.CategoryAccess, log.CategoryNotification, log.CategoryError} {
		if count := stats.Categories[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if stats.Accesses > 0 {
		fmt.Fprintf(w, "Attribute Access: %d (mean %s)\n", stats.Accesses, formatDuration(stats.MeanAccessTime()))
		outcomes := make([]string, 0, len(stats.Outcomes))
		for o := range stats.Outcomes {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %-14s %d\n", o+":", stats.Outcomes[o])
		}
		fmt.Fprintln(w)
	}

	if stats.Delivered+stats.Dropped > 0 {
		fmt.Fprintf(w, "Notifications: %d delivered, %d dropped\n", stats.Delivered, stats.Dropped)
		fmt.Fprintln(w)
	}

	names := stats.ResourceNames()
	fmt.Fprintf(w, "Resources: %d\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %d events\n", name, stats.Resources[name])
	}

	if n := stats.Categories[log.CategoryError]; n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", n)
	}
}
