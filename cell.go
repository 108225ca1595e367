// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

// Cell is a concurrent copy-on-write wrapper around one logical value of
// type T. Many goroutines may read the value concurrently via [ReadOnly];
// updates publish a freshly allocated replacement and retire the old value
// through the package's hazard-pointer reclamation engine. See the package
// doc for the full concurrency model.
//
// A Cell must be created with [NewCell] or [Builder.Build] and closed with
// [Cell.Close] once every [ReaderScope] and [WriterScope] derived from it
// has been closed. Using a scope after its Cell is closed, or closing a
// Cell while a scope is still open, is undefined behaviour — the caller is
// responsible for draining scopes first, exactly as spec.md documents for
// its RAII proxies.
type Cell[T any] struct {
	rootSlot  *slot[T] // slot id 0, the publication root; always USED until Close
	registry  *registry[T]
	allocator Allocator[T]
}

// NewCell constructs a Cell whose initial published value is a copy of
// initial, using options from opts (see [Option], [WithAllocator]).
func NewCell[T any](initial T, opts ...Option[T]) *Cell[T] {
	cfg := defaultConfig[T]()
	for _, opt := range opts {
		opt(cfg)
	}

	root := newSlot[T](0)
	c := &Cell[T]{
		rootSlot:  root,
		allocator: cfg.allocator,
	}
	c.registry = newRegistry[T](root, cfg.maxSlots)
	root.storePtr(c.allocator.Allocate(initial))
	return c
}

// Current returns the currently published payload pointer, for diagnostics
// (spec.md §6). The pointer is only safe to dereference while the caller
// holds an enclosing [ReaderScope] or [WriterScope] on this cell — without
// one, the reclamation engine may free it concurrently.
func (c *Cell[T]) Current() *T {
	return c.rootSlot.ptr()
}

// Stats reports the registry's slot-count counters: how many hazard slots
// have ever been created, how many are currently USED, and how many
// releases have happened since a release last triggered a scan (the
// amortisation counter that trigger resets to zero; slots a scan leaves
// RELEASED are not counted). It is diagnostics only, not part of
// the read/write API — in particular Slots and Used are a snapshot of
// values other goroutines may be changing concurrently, read with the same
// relaxed ordering the registry itself uses for them (spec.md §5: the
// amortisation counters' exactness is a heuristic, not a correctness
// requirement). Used never exceeds Slots, spec.md §8's counter-bounds
// invariant.
type Stats struct {
	Slots    int64
	Used     int64
	Released int64
}

// Stats returns the cell's current [Stats].
func (c *Cell[T]) Stats() Stats {
	return Stats{
		Slots:    c.registry.nSlots.LoadRelaxed(),
		Used:     c.registry.nUsed.LoadRelaxed(),
		Released: c.registry.nReleased.LoadRelaxed(),
	}
}

// ReadOnly acquires a hazard slot snapshotting the current publication and
// returns a scope valid for reading it. The caller must call
// [ReaderScope.Close] exactly once, typically via defer.
func (c *Cell[T]) ReadOnly() *ReaderScope[T] {
	s := c.acquire()
	return &ReaderScope[T]{cell: c, slot: s, object: s.ptr()}
}

// TryWrite acquires a hazard slot, allocates a candidate copy of the
// current payload, and returns a scope the caller mutates through
// [WriterScope.Get]. The candidate is published on [WriterScope.Close] via
// a single CAS against the publication this scope snapshotted; on a lost
// race Close discards the candidate and returns [ErrLostRace] instead of
// silently dropping the mutation (spec.md §9's acknowledged API gap,
// resolved here — see SPEC_FULL.md §4.5).
func (c *Cell[T]) TryWrite() *WriterScope[T] {
	s := c.acquire()
	expected := s.ptr()
	candidate := c.allocator.Allocate(*expected)
	return &WriterScope[T]{cell: c, slot: s, expected: expected, candidate: candidate}
}

// Update publishes newVal, CASing against whatever the cell currently
// publishes at the instant of the call. newVal must be a pointer the
// caller allocated (e.g. via the cell's [Allocator]) and no longer intends
// to mutate directly — ownership transfers to the cell on success.
//
// Update makes exactly one CAS attempt, like [Cell.CompareAndUpdate]; it
// differs only in reading the expected value itself instead of requiring
// the caller to supply it, protecting that read with a hazard slot so the
// reclamation engine cannot free the snapshotted value out from under the
// comparison. Returns false if the publication had already moved on by the
// time the CAS ran — the caller decides whether to retry.
func (c *Cell[T]) Update(newVal *T) bool {
	s := c.acquire()
	defer c.release(s)
	expected := s.ptr()
	return c.CompareAndUpdate(expected, newVal)
}

// CompareAndUpdate performs a single external CAS against the publication
// root: if the cell currently publishes expected, it is replaced by newVal
// and true is returned. Otherwise the cell is left untouched and false is
// returned — the caller decides whether and how to retry (spec.md §4.5).
func (c *Cell[T]) CompareAndUpdate(expected, newVal *T) bool {
	return c.rootSlot.protected.CompareAndSwap(expected, newVal)
}

// Invoke applies mutate to a private copy of the current payload and
// retries until the copy is published. It is a convenience wrapper around
// the package-level generic [Invoke] function for callers who don't need a
// value back from mutate.
func (c *Cell[T]) Invoke(mutate func(candidate *T)) {
	Invoke(c, func(candidate *T) struct{} {
		mutate(candidate)
		return struct{}{}
	})
}

// Close tears down the cell: it disables further hazard-slot growth, moves
// every USED slot (including the publication root) to RELEASED, and runs
// one final reclamation scan. The slots themselves are not freed by Close;
// they are garbage-collected with the Cell. Close assumes no
// [ReaderScope] or [WriterScope] derived from this cell is still open —
// the caller must drain them first (spec.md §4.7).
func (c *Cell[T]) Close() {
	c.registry.disableGrowth()

	for s := c.registry.loadHead(); s != nil; s = s.next {
		if s.loadState() == slotUsed {
			s.storeState(slotReleased)
		}
	}

	c.scan()
}
