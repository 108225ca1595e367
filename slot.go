// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// pad is cache line padding to prevent false sharing between a slot's hot
// fields, the same idiom the teacher's queue algorithms use to separate
// head/tail/threshold counters.
type pad [64]byte

// slotState is a hazard slot's position in its state machine.
//
//	               acquire
//	         FREE ─────────────→ USED
//	          ↑                    │ release
//	          │                    ▼
//	   ready→free              RELEASED
//	          │                    │ scan sees no USED holder of same ptr
//	          │                    ▼
//	          │              DELETE_CANDIDATE
//	          │                    │ chosen as the unique deleter for ptr
//	          │                    ▼
//	          └─────────────── READY_TO_DELETE
//	                              (reclaim latch → free payload → FREE)
//
// The publication root (slot id 0) is exempt from every transition beyond
// USED until the owning [Cell] is closed.
type slotState uint64

const (
	slotFree slotState = iota
	slotUsed
	slotReleased
	slotDeleteCandidate
	slotReadyToDelete
)

// slot is one reusable hazard-pointer protection record. Once linked into a
// [registry], a slot is never freed for the lifetime of the owning cell —
// it is recycled by cycling through slotState, not by deallocation, which
// sidesteps ABA on slot addresses entirely.
type slot[T any] struct {
	_         pad
	protected atomic.Pointer[T] // nil when not meaningful; a real *T so the GC keeps tracing it
	_         pad
	state     atomix.Uint64 // slotState
	_         pad
	latch     atomix.Bool // test-and-set, held by whichever goroutine physically frees protected
	_         pad

	next *slot[T] // set once before publication into the registry, read-only after
	id   uint64   // stable identifier, diagnostics only
}

func newSlot[T any](id uint64) *slot[T] {
	return &slot[T]{id: id}
}

// loadState returns the slot's current state with acquire ordering.
func (s *slot[T]) loadState() slotState {
	return slotState(s.state.LoadAcquire())
}

// casState attempts state: from -> to with acquire-release ordering.
func (s *slot[T]) casState(from, to slotState) bool {
	return s.state.CompareAndSwapAcqRel(uint64(from), uint64(to))
}

// storeState unconditionally sets the slot's state with release ordering.
// Used only by a slot's sole current owner (e.g. on release, or during
// cell teardown for a slot no protocol contends for).
func (s *slot[T]) storeState(to slotState) {
	s.state.StoreRelease(uint64(to))
}

// ptr returns the payload currently protected by this slot, or nil.
//
// protected is a sync/atomic.Pointer[T], not one of atomix's integer
// atomics: a hazard slot's whole job is to keep its payload reachable for
// the GC, and atomix has no generic atomic-pointer type to do that with —
// storing the pointer as a uintptr would hide it from the collector, which
// defeats the slot's purpose the moment stdAllocator.Free (a no-op relying
// on GC reachability) is in play.
func (s *slot[T]) ptr() *T {
	return s.protected.Load()
}

// storePtr records which payload this slot protects. sync/atomic.Pointer's
// Load/Store already give the sequentially-consistent ordering the
// reclamation scan needs to observe slotUsed and the correct protected
// pointer together.
func (s *slot[T]) storePtr(p *T) {
	s.protected.Store(p)
}

// acquireLatch attempts to become the sole owner of this slot's physical
// free, via test-and-set. Returns false if another goroutine already holds
// it.
func (s *slot[T]) acquireLatch() bool {
	return s.latch.CompareAndSwapAcqRel(false, true)
}

// releaseLatch releases the physical-free latch.
func (s *slot[T]) releaseLatch() {
	s.latch.StoreRelease(false)
}
