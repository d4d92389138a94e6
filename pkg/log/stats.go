package log

import (
	"sort"
	"time"
)

// Stats aggregates events, for summaries over a log file.
type Stats struct {
	Total      int
	First      time.Time
	Last       time.Time
	Sessions   map[string]int
	Categories map[Category]int
	Resources  map[string]int
	Outcomes   map[string]int
	Delivered  int
	Dropped    int

	// AccessTime sums the duration of every access event.
	AccessTime time.Duration
	Accesses   int
}

// NewStats returns empty Stats.
func NewStats() *Stats {
	return &Stats{
		Sessions:   make(map[string]int),
		Categories: make(map[Category]int),
		Resources:  make(map[string]int),
		Outcomes:   make(map[string]int),
	}
}

// Add accounts for event.
func (s *Stats) Add(event Event) {
	s.Total++
	if s.First.IsZero() || event.Timestamp.Before(s.First) {
		s.First = event.Timestamp
	}
	if event.Timestamp.After(s.Last) {
		s.Last = event.Timestamp
	}
	s.Sessions[event.SessionID]++
	s.Categories[event.Category]++
	if event.Resource != "" {
		s.Resources[event.Resource]++
	}

	switch {
	case event.Access != nil:
		s.Accesses++
		s.AccessTime += event.Access.Duration
		s.Outcomes[event.Access.Outcome]++
	case event.Notification != nil:
		if event.Notification.Delivered {
			s.Delivered++
		} else {
			s.Dropped++
		}
	}
}

// MeanAccessTime returns the average access duration.
func (s *Stats) MeanAccessTime() time.Duration {
	if s.Accesses == 0 {
		return 0
	}
	return s.AccessTime / time.Duration(s.Accesses)
}

// ResourceNames returns the resources seen, sorted.
func (s *Stats) ResourceNames() []string {
	names := make([]string, 0, len(s.Resources))
	for name := range s.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
