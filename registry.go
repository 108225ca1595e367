// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// scanFactor is the amortisation heuristic from spec.md §4.2: once
// n_used*scanFactor <= n_released, release() resets n_released and
// triggers a reclamation scan.
const scanFactor = 0.3

// registry is the append-only singly linked list of hazard slots for one
// [Cell]. Once inserted a slot's next pointer never changes and the slot
// itself is never freed for the registry's lifetime — slots are recycled
// through slotState transitions, not deallocation, which is the whole
// point: a free-list-with-reuse-across-instances would introduce ABA on
// slot addresses (spec.md §9).
type registry[T any] struct {
	_    pad
	head atomic.Pointer[slot[T]] // append-at-head; a real *slot[T] so the GC traces live slots
	_    pad

	nSlots    atomix.Int64 // monotonically non-decreasing
	nUsed     atomix.Int64
	nReleased atomix.Int64

	canGrow atomix.Bool

	// maxSlots is the soft cap on registry growth, grounded on
	// original_source/include/minimal_lockfree_wrapper.hpp's
	// MAX_HAZARDS/canCreateHazardPointer pair: 0 means unbounded (the
	// default), set once at construction via [WithMaxSlots] and never
	// mutated afterward, so reading it from growRegistry needs no
	// synchronization of its own.
	maxSlots int64
}

func newRegistry[T any](root *slot[T], maxSlots int64) *registry[T] {
	r := &registry[T]{maxSlots: maxSlots}
	r.canGrow.StoreRelaxed(true)
	root.storeState(slotUsed)
	r.head.Store(root)
	r.nSlots.StoreRelaxed(1)
	r.nUsed.StoreRelaxed(1)
	return r
}

func (r *registry[T]) loadHead() *slot[T] {
	return r.head.Load()
}

// disableGrowth stops acquire from creating new slots. Called once, at the
// start of [Cell.Close].
func (r *registry[T]) disableGrowth() {
	r.canGrow.StoreRelease(false)
}

// snapshot installs the cell's current publication into s.protected,
// closing the load-store-reCAS window documented in spec.md §4.4: between
// loading root and storing it into s, root may already have advanced and
// the old target may already be retired. Looping until a no-op CAS on root
// succeeds guarantees s's protection was visible to root before root moved
// past it, which is exactly the barrier the reclamation engine needs to see
// the protection in time.
func (c *Cell[T]) snapshot(s *slot[T]) *T {
	root := &c.rootSlot.protected
	sw := spin.Wait{}
	for {
		p := root.Load()
		s.storePtr(p)
		if root.CompareAndSwap(p, p) {
			return p
		}
		sw.Once()
	}
}

// acquire returns a USED hazard slot snapshotting the cell's current
// publication. It first scans the registry for a FREE slot to recycle; if
// none is found and growth is permitted, it allocates and links a new one.
// If growth is disabled — teardown, or the registry has hit its configured
// [WithMaxSlots] cap — it spins on [iox.Backoff] until a slot frees, an
// accepted liveness hazard outside of teardown that only bites callers who
// opted into a cap (spec.md §4.2, §7, §9).
func (c *Cell[T]) acquire() *slot[T] {
	backoff := iox.Backoff{}
	for {
		for s := c.registry.loadHead(); s != nil; s = s.next {
			if s.casState(slotFree, slotUsed) {
				c.registry.nUsed.Add(1)
				c.snapshot(s)
				return s
			}
		}

		if !c.registry.canGrow.LoadAcquire() {
			backoff.Wait()
			continue
		}

		if s := c.growRegistry(); s != nil {
			return s
		}
	}
}

// growRegistry allocates a new slot, stamps it USED, and links it at the
// registry head via CAS, retrying until it wins. Returns nil (letting the
// caller re-scan) if growth was disabled between the check in acquire and
// here. If linking this slot brings the slot count to the registry's
// configured [WithMaxSlots] cap, growth is disabled for good before
// returning — the original's
// MAX_HAZARDS/canCreateHazardPointer mechanism, carried forward per
// spec.md §9.
func (c *Cell[T]) growRegistry() *slot[T] {
	if !c.registry.canGrow.LoadAcquire() {
		return nil
	}

	id := c.registry.nSlots.Add(1) - 1
	s := newSlot[T](uint64(id))
	s.storeState(slotUsed)

	for {
		head := c.registry.loadHead()
		s.next = head
		if c.registry.head.CompareAndSwap(head, s) {
			break
		}
	}

	c.registry.nUsed.Add(1)
	c.snapshot(s)

	if max := c.registry.maxSlots; max > 0 && id+1 >= max {
		c.registry.disableGrowth()
	}

	return s
}

// release marks s as no longer in use, bumps the amortisation counters, and
// triggers a reclamation scan once enough slots have been released
// relative to those in use (spec.md §4.2).
func (c *Cell[T]) release(s *slot[T]) {
	s.storeState(slotReleased)
	released := c.registry.nReleased.Add(1)
	used := c.registry.nUsed.Add(-1)

	if float64(used)*scanFactor <= float64(released) {
		for !c.registry.nReleased.CompareAndSwapRelaxed(released, 0) {
			released = c.registry.nReleased.Load()
		}
		c.scan()
	}
}
