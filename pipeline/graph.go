/*
Package pipeline implements the work-item DAG scheduler of §5: items
declare their read-set up front as slots, write exactly one output slot,
and block only at slot-read boundaries. The package is domain-agnostic —
it knows nothing about glyphs, fonts, or lookups, only about slots and
items — so the same scaffolding serves any producer/consumer graph; the
concrete Source Model → {Anchors, Kerning, FeatureAST} → Marks →
Kerning lookups → Layout Compiler wiring lives in the root package that
assembles a font.
*/
package pipeline

import (
	"context"
	"sync"
)

// Slot is a one-shot publication point: exactly one writer calls
// Publish, after which every reader's Wait returns the same value
// immediately (§5 "Writes exactly one output slot; once written the
// slot is immutable" / "publication is a one-shot happens-before").
// A Slot must not be copied after first use.
type Slot[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewSlot creates an unpublished slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{done: make(chan struct{})}
}

// Publish writes the slot's value. Only the first call has any effect;
// later calls are silently ignored, since a work item's output slot has
// exactly one writer by construction.
func (s *Slot[T]) Publish(value T, err error) {
	s.once.Do(func() {
		s.value, s.err = value, err
		close(s.done)
	})
}

// Wait blocks until the slot is published or ctx is cancelled, whichever
// comes first (§5 "a reader blocks until the writer publishes").
func (s *Slot[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.value, s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Item is one node of the work-item DAG. Run performs the item's work,
// reading whatever upstream slots it depends on (those reads are where
// it may block) and publishing to its own output slot before returning.
// Run's returned error is the item's own failure, independent of
// whatever it chooses to publish to its slot — an item may still
// publish a (possibly partial) value alongside a non-nil error so that
// best-effort downstream diagnostics can proceed, per §7's "workers
// already started run to completion and contribute additional
// diagnostics".
type Item interface {
	// Name identifies the item for diagnostics and error provenance.
	Name() string
	// Run executes the item. It must not be called more than once.
	Run(ctx context.Context) error
}

// funcItem adapts a plain function and name into an Item.
type funcItem struct {
	name string
	run  func(ctx context.Context) error
}

// NewItem builds an Item from a name and a run function, the common
// case where a work item is a closure over its read slots and its own
// output slot (e.g. `pipeline.NewItem("marks", func(ctx context.Context)
// error { font, err := fontSlot.Wait(ctx); ...; marksSlot.Publish(...);
// return err })`).
func NewItem(name string, run func(ctx context.Context) error) Item {
	return &funcItem{name: name, run: run}
}

func (f *funcItem) Name() string                  { return f.name }
func (f *funcItem) Run(ctx context.Context) error { return f.run(ctx) }
