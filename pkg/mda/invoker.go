package mda

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Invoker runs notification dispatch work.
type Invoker interface {
	// Invoke schedules fn. It may run fn before returning.
	Invoke(fn func())

	// Wait blocks until every scheduled fn has returned.
	Wait()
}

// SyncInvoker runs work on the calling goroutine.
type SyncInvoker struct{}

// Invoke runs fn.
func (SyncInvoker) Invoke(fn func()) { fn() }

// Wait returns immediately.
func (SyncInvoker) Wait() {}

// ParallelInvoker runs work on at most a fixed number of goroutines.
// Invoke blocks while all workers are busy. Work submitted from different
// goroutines, or for the same resource, may complete in any order.
type ParallelInvoker struct {
	group  errgroup.Group
	logger *slog.Logger
}

// NewParallelInvoker creates a ParallelInvoker with the given number of
// workers. Fewer than one worker means one.
func NewParallelInvoker(workers int, logger *slog.Logger) *ParallelInvoker {
	if workers < 1 {
		workers = 1
	}
	p := &ParallelInvoker{logger: logger}
	p.group.SetLimit(workers)
	return p
}

// Invoke runs fn on a worker. A panic in fn is logged and discarded.
func (p *ParallelInvoker) Invoke(fn func()) {
	p.group.Go(func() error {
		defer func() {
			if r := recover(); r != nil && p.logger != nil {
				p.logger.Warn("notification dispatch panicked", "panic", r)
			}
		}()
		fn()
		return nil
	})
}

// Wait blocks until all invoked work has finished.
func (p *ParallelInvoker) Wait() {
	_ = p.group.Wait()
}

// Compile-time interface satisfaction checks.
var (
	_ Invoker = SyncInvoker{}
	_ Invoker = (*ParallelInvoker)(nil)
)
