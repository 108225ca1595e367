// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfcell provides a concurrent copy-on-write cell: a single logical
// value that many goroutines read often and update seldom, without mutual
// exclusion on the read path.
//
// A [Cell] publishes its value through a single atomic pointer. Readers
// snapshot that pointer behind a hazard slot and may dereference it for as
// long as their [ReaderScope] is open — the cell never frees a payload a
// live scope still protects. Writers copy the current value, mutate the
// copy, and publish it with a compare-and-swap; on a lost race the
// candidate is discarded and, depending on the API used, either retried
// automatically ([Invoke]) or reported to the caller ([WriterScope.Close]).
//
// # Quick Start
//
//	c := lfcell.NewCell(Counter{})
//
//	// Read
//	r := c.ReadOnly()
//	n := r.Get().N
//	r.Close()
//
//	// Retry-until-published mutation
//	lfcell.Invoke(c, func(v *Counter) struct{} {
//	    v.N++
//	    return struct{}{}
//	})
//
//	// Best-effort mutation, explicit success/failure
//	w := c.TryWrite()
//	w.Get().N++
//	if err := w.Close(); lfcell.IsLostRace(err) {
//	    // another writer published first; w's mutation was discarded
//	}
//
// # Why not sync.RWMutex
//
// An RWMutex serializes readers against writers at the memory-access level:
// every reader pays for a shared-lock acquire/release, and a writer stalls
// every reader until it releases the exclusive lock. lfcell instead lets
// readers proceed with no synchronization beyond snapshotting a pointer;
// writers never block readers and never mutate memory a reader might be
// looking at. The trade-off is the hazard-pointer bookkeeping in the
// registry and reclamation engine, and a write path that copies the whole
// value on every attempt — appropriate when writes are rare and reads
// dominate, not when either assumption fails.
//
// # Hazard pointers
//
// Every open scope ([ReaderScope] or [WriterScope]) holds one hazard slot
// whose protected pointer the reclamation engine treats as still-live. A
// payload is only physically freed once a scan observes that no slot
// protects it and exactly one slot has won the right to delete it. This is
// the same read-mostly trade lock-free queues make for their ring buffers,
// just applied to a single published pointer instead of a circular buffer
// of slots.
//
// # Allocator
//
// [Cell] takes its payload allocator as a pluggable [Allocator] — the
// default allocates directly on the Go heap, [MonitoredAllocator] tracks
// outstanding pointers for leak/double-free detection (used by this
// package's own tests), and [PooledAllocator] recycles payload memory
// through a sync.Pool for write-heavy workloads. Configure with
// [NewBuilder] and [Builder.WithAllocator].
//
// # Concurrency
//
// Cell's root CAS is sequentially consistent with respect to readers that
// snapshot it afterward: a reader that begins snapshotting after a writer's
// publish is guaranteed to observe every write the winning writer made to
// the new payload before publishing. Slot-state transitions use
// acquire-release; the amortisation counters that decide when to trigger a
// reclamation scan use relaxed ordering, since their exactness is a
// heuristic, not a correctness requirement. See
// [code.hybscloud.com/atomix] for the explicit-ordering atomic types this
// package builds on, and [code.hybscloud.com/spin] /
// [code.hybscloud.com/iox] for the two retry policies used on,
// respectively, tight CAS-retry loops and coarser condition waits.
//
// lfcell is lock-free but not wait-free: an individual writer can be
// starved by a continuous stream of successful writers, and an individual
// reclamation scan can have all of its transitions stolen by a concurrent
// scan. Some thread always makes progress.
//
// # Race Detection
//
// Like the queue algorithms this package is modelled on, the hazard-pointer
// scheme protects non-atomic payload memory using happens-before edges
// established by acquire/release atomics on separate variables (the root
// pointer, slot state). Go's race detector cannot observe that
// relationship and may flag false positives in stress tests; such tests
// are excluded via //go:build !race and [RaceEnabled].
package lfcell
