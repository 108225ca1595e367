// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import "unsafe"

// scan runs one reclamation pass over the registry: census, promotion,
// deduplication, physical free (spec.md §4.6). Scans are never serialised
// against each other — every transition below is a CAS on one slot's
// state, so contention between concurrent scans just means one of them
// finds the step already done and moves on.
func (c *Cell[T]) scan() {
	usedSet := make(map[unsafe.Pointer]struct{})
	var candidates []*slot[T]

	// Phase 1: census. A slot linked in after this point protects at
	// least the then-current root, which is safe to leave unconsidered.
	for s := c.registry.loadHead(); s != nil; s = s.next {
		switch s.loadState() {
		case slotUsed:
			usedSet[unsafe.Pointer(s.ptr())] = struct{}{}
		case slotReleased, slotDeleteCandidate:
			candidates = append(candidates, s)
		}
	}

	// Phase 2: promotion. A slot already observed as DELETE_CANDIDATE is
	// kept as deletable too — it is evidence of a scan that was
	// interrupted before phase 3 finished; treating it as not-deletable
	// here would leak its payload (spec.md §9).
	var deletable []*slot[T]
	for _, s := range candidates {
		if _, used := usedSet[unsafe.Pointer(s.ptr())]; used {
			continue
		}
		if s.casState(slotReleased, slotDeleteCandidate) || s.loadState() == slotDeleteCandidate {
			deletable = append(deletable, s)
		}
	}

	// Phase 3: deduplication. Exactly one slot per distinct retired
	// payload is promoted to READY_TO_DELETE; every other slot shadowing
	// the same payload steps back to FREE for recycling.
	seen := make(map[unsafe.Pointer]struct{})
	for _, s := range deletable {
		p := unsafe.Pointer(s.ptr())
		if _, ok := seen[p]; !ok {
			if s.casState(slotDeleteCandidate, slotReadyToDelete) {
				seen[p] = struct{}{}
			}
			continue
		}
		s.casState(slotDeleteCandidate, slotFree)
	}

	// Phase 4: physical free. The per-slot reclaim latch guarantees two
	// concurrent scans never free the same payload twice even if both
	// reach READY_TO_DELETE for it (spec.md §9's Open Question, resolved
	// in favor of the per-slot variant to preserve lock-freedom).
	for s := c.registry.loadHead(); s != nil; s = s.next {
		if s.loadState() != slotReadyToDelete {
			continue
		}
		if !s.acquireLatch() {
			continue // another scan already owns this slot's free
		}
		if s.loadState() == slotReadyToDelete {
			c.allocator.Free(s.ptr())
			s.storePtr(nil)
			s.storeState(slotFree)
		}
		s.releaseLatch()
	}
}
