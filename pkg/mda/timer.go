package mda

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// AccessTimer tracks the time since a value slot was last written.
type AccessTimer interface {
	// Reset marks the slot as written now. The returned function restores
	// the previous state unless the timer was reset again in between.
	Reset() (undo func())

	// Elapsed returns the time since the last Reset.
	Elapsed() time.Duration

	// CompareTo returns -1, 0 or 1 as Elapsed is less than, equal to or
	// greater than d.
	CompareTo(d time.Duration) int
}

// LocalTimer is an in-process AccessTimer. It starts reset.
type LocalTimer struct {
	clock Clock
	last  atomic.Int64
}

// NewLocalTimer creates a LocalTimer reading clock. A nil clock selects
// SystemClock.
func NewLocalTimer(clock Clock) *LocalTimer {
	if clock == nil {
		clock = SystemClock
	}
	t := &LocalTimer{clock: clock}
	t.Reset()
	return t
}

// Reset marks the slot as written now.
func (t *LocalTimer) Reset() func() {
	now := t.clock.Now().UnixNano()
	prev := t.last.Swap(now)
	return func() { t.last.CompareAndSwap(now, prev) }
}

// Elapsed returns the time since the last Reset.
func (t *LocalTimer) Elapsed() time.Duration {
	return time.Duration(t.clock.Now().UnixNano() - t.last.Load())
}

// CompareTo compares Elapsed with d.
func (t *LocalTimer) CompareTo(d time.Duration) int {
	switch e := t.Elapsed(); {
	case e < d:
		return -1
	case e > d:
		return 1
	default:
		return 0
	}
}

// TimerMode selects how attributes of one acceptor share timers.
type TimerMode string

const (
	// TimerShared uses one timer for every attribute; a write to any
	// attribute refreshes all of them.
	TimerShared TimerMode = "shared"

	// TimerPerAttribute gives every attribute its own timer.
	TimerPerAttribute TimerMode = "per-attribute"
)

// ParseTimerMode validates a timer mode name. Empty selects TimerShared.
func ParseTimerMode(s string) (TimerMode, error) {
	switch TimerMode(s) {
	case "", TimerShared:
		return TimerShared, nil
	case TimerPerAttribute:
		return TimerPerAttribute, nil
	}
	return "", fmt.Errorf("unknown timer mode %q", s)
}

// TimerFactory hands out the timer for an attribute.
type TimerFactory struct {
	mode  TimerMode
	clock Clock

	mu     sync.Mutex
	shared *LocalTimer
	timers map[string]*LocalTimer
}

// NewTimerFactory creates a TimerFactory.
func NewTimerFactory(mode TimerMode, clock Clock) *TimerFactory {
	return &TimerFactory{
		mode:   mode,
		clock:  clock,
		timers: make(map[string]*LocalTimer),
	}
}

// Timer returns the timer for attribute, creating it on first use.
func (f *TimerFactory) Timer(attribute string) AccessTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != TimerPerAttribute {
		if f.shared == nil {
			f.shared = NewLocalTimer(f.clock)
		}
		return f.shared
	}
	t, ok := f.timers[attribute]
	if !ok {
		t = NewLocalTimer(f.clock)
		f.timers[attribute] = t
	}
	return t
}

// Release forgets the per-attribute timer of attribute.
func (f *TimerFactory) Release(attribute string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.timers, attribute)
}
