// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import "code.hybscloud.com/spin"

// Invoke applies mutate to a private copy of c's current payload and
// retries until the copy is published, returning mutate's result from the
// winning attempt.
//
// Invoke is a package-level function, not a [Cell] method, because Go does
// not allow a generic method to introduce a type parameter beyond its
// receiver's — R has to live somewhere, and a free function is the
// idiomatic place for it (spec.md §9's "generic method taking a mutator
// closure" becomes a generic function here).
//
// Unlike [Cell.TryWrite], Invoke always eventually publishes: a lost CAS
// race frees the stale candidate and retries against the new publication.
// Use Invoke for any mutation whose success must be guaranteed; use
// [Cell.TryWrite] only when a best-effort, explicitly-reported outcome is
// acceptable.
func Invoke[T, R any](c *Cell[T], mutate func(candidate *T) R) R {
	h := c.acquire()
	expected := h.ptr()

	sw := spin.Wait{}
	for {
		candidate := c.allocator.Allocate(*expected)
		result := mutate(candidate)

		if c.rootSlot.protected.CompareAndSwap(expected, candidate) {
			c.release(h)
			return result
		}

		// Lost the race: the copy is useless, nothing else ever saw it.
		c.allocator.Free(candidate)

		// Re-snapshot the new publication into h and retry.
		expected = c.snapshot(h)
		sw.Once()
	}
}
