package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Scheduler runs a work-item DAG: each Submit call starts its item on
// its own goroutine immediately (§5 "work items for disjoint slots may
// run in parallel"); an item whose read-set isn't published yet simply
// blocks inside Slot.Wait until its producer runs, so no topological
// sort is needed — the slot reads themselves encode the dependency
// order. A Scheduler is single-use: create one per compilation run.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup

	mu      sync.Mutex
	errs    []error
	stopped bool
}

// NewScheduler creates a Scheduler whose items are run under a child of
// ctx; cancelling ctx (or a fatal item error) cancels every item still
// blocked at a slot read.
func NewScheduler(ctx context.Context) *Scheduler {
	childCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{ctx: childCtx, cancel: cancel}
}

// Submit starts item on its own goroutine, unless the scheduler has
// already recorded a fatal error and stopped accepting new work (§5
// "on first fatal error the scheduler stops accepting new items").
// Submit itself never blocks.
func (s *Scheduler) Submit(item Item) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := item.Run(s.ctx); err != nil {
			s.recordFatal(item.Name(), err)
		}
	}()
}

func (s *Scheduler) recordFatal(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, fmt.Errorf("%s: %w", name, err))
	if !s.stopped {
		s.stopped = true
		s.cancel() // unblocks every item currently parked in a Slot.Wait
	}
}

// Wait joins every submitted item (§5 "joins outstanding workers") and
// reports the first fatal error recorded, if any. Items that
// were already running when cancellation occurred still finish and may
// contribute further errors, available from Errs.
func (s *Scheduler) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}

// Errs returns every fatal error recorded across all items, in the
// order each item's Run call returned it (§7 "aggregates errors").
func (s *Scheduler) Errs() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}
