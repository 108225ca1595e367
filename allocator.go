// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"code.hybscloud.com/atomix"
)

// Allocator constructs and releases payload instances on behalf of a
// [Cell]. The write path calls Allocate once per attempted update (to build
// the candidate copy); the reclamation engine calls Free exactly once per
// retired payload, never before every slot that protected it has moved on.
//
// Allocator is a parameter of Cell, not a global: swap it via
// [Builder.WithAllocator] to observe allocation traffic or to pool payload
// memory. A Cell built without an allocator option uses [stdAllocator],
// which allocates directly on the Go heap and relies on the garbage
// collector for Free.
type Allocator[T any] interface {
	// Allocate returns a new *T initialized to v (a copy).
	Allocate(v T) *T
	// Free releases p. p was previously returned by Allocate and is not
	// reachable through the cell or any open scope.
	Free(p *T)
}

// stdAllocator is the default [Allocator]: a thin wrapper over ordinary Go
// heap allocation. Free is a no-op — the garbage collector reclaims p once
// it becomes unreachable, which happens the instant the reclamation engine
// drops its last reference.
type stdAllocator[T any] struct{}

func (stdAllocator[T]) Allocate(v T) *T {
	p := new(T)
	*p = v
	return p
}

func (stdAllocator[T]) Free(p *T) {
	// Nothing to do: the GC reclaims p once unreachable.
}

// MonitoredAllocator is an [Allocator] that tracks every outstanding
// pointer it has handed out, for leak and double-free detection in tests.
//
// Grounded on original_source/include/allocator.hpp's Allocator type: a
// mutex-guarded map from address to liveness, plus an error counter for
// frees of unknown or already-freed addresses. The mutex here is
// intentionally not lock-free — it exists purely to make the surrounding
// lock-free cell falsifiable, exactly as the original's comment notes
// ("only for testing, must be removed together with the map to make it
// lock_free").
//
// Double-free and unknown-free are tracked as distinct fault classes
// (spec.md §4.1): everAllocated remembers every address this allocator has
// ever handed out, so a Free that misses outstanding can still tell a
// replayed address (double-free, [ErrDoubleFree]) apart from one this
// allocator never produced at all (unknown-free, [ErrUnknownFree]).
type MonitoredAllocator[T any] struct {
	mu            sync.Mutex
	outstanding   map[*T]struct{}
	everAllocated map[*T]struct{}
	doubleFrees   atomix.Int64
	unknownFrees  atomix.Int64
}

// NewMonitoredAllocator returns a ready-to-use [MonitoredAllocator].
func NewMonitoredAllocator[T any]() *MonitoredAllocator[T] {
	return &MonitoredAllocator[T]{
		outstanding:   make(map[*T]struct{}),
		everAllocated: make(map[*T]struct{}),
	}
}

// Allocate returns a new *T initialized to v and records it as outstanding.
func (a *MonitoredAllocator[T]) Allocate(v T) *T {
	p := new(T)
	*p = v
	a.mu.Lock()
	a.outstanding[p] = struct{}{}
	a.everAllocated[p] = struct{}{}
	a.mu.Unlock()
	return p
}

// Free releases p. If p was already freed, Free counts a double-free; if p
// was never allocated by this allocator at all, it counts an unknown-free.
// Either way Free reports the fault through the counters instead of
// panicking, so tests can assert on it directly via
// [MonitoredAllocator.CheckErrors].
func (a *MonitoredAllocator[T]) Free(p *T) {
	a.mu.Lock()
	if _, ok := a.outstanding[p]; ok {
		delete(a.outstanding, p)
		a.mu.Unlock()
		return
	}
	_, known := a.everAllocated[p]
	a.mu.Unlock()

	if known {
		a.doubleFrees.Add(1)
	} else {
		a.unknownFrees.Add(1)
	}
}

// Outstanding returns the number of pointers currently allocated and not
// yet freed.
func (a *MonitoredAllocator[T]) Outstanding() int64 {
	a.mu.Lock()
	n := int64(len(a.outstanding))
	a.mu.Unlock()
	return n
}

// Errors returns the total number of double-free and unknown-free reports
// seen so far.
func (a *MonitoredAllocator[T]) Errors() int64 {
	return a.doubleFrees.Load() + a.unknownFrees.Load()
}

// DoubleFrees returns the number of times Free observed a pointer this
// allocator had already freed.
func (a *MonitoredAllocator[T]) DoubleFrees() int64 {
	return a.doubleFrees.Load()
}

// UnknownFrees returns the number of times Free observed a pointer this
// allocator never allocated.
func (a *MonitoredAllocator[T]) UnknownFrees() int64 {
	return a.unknownFrees.Load()
}

// CheckErrors returns nil if no fault was ever reported. Otherwise it joins
// [ErrDoubleFree] and/or [ErrUnknownFree] — whichever classes actually
// occurred — so errors.Is against either sentinel still works even when
// both faults happened during the same run. Tests call this once at
// teardown instead of polling the counters directly.
func (a *MonitoredAllocator[T]) CheckErrors() error {
	var errs []error
	if a.doubleFrees.Load() > 0 {
		errs = append(errs, ErrDoubleFree)
	}
	if a.unknownFrees.Load() > 0 {
		errs = append(errs, ErrUnknownFree)
	}
	return errors.Join(errs...)
}

// Dump writes one line per outstanding allocation to w, for diagnostics.
func (a *MonitoredAllocator[T]) Dump(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(w, "MonitoredAllocator: %d outstanding, %d double frees, %d unknown frees\n",
		len(a.outstanding), a.doubleFrees.Load(), a.unknownFrees.Load())
	for p := range a.outstanding {
		fmt.Fprintf(w, "  %p\n", p)
	}
}

// PooledAllocator is an [Allocator] that recycles payload memory through a
// sync.Pool instead of handing it back to the garbage collector.
//
// Grounded on other_examples/UmarFarooq-MP-Loki__order_pool.go's
// GenericPool[T]: a type-agnostic sync.Pool wrapper. lfcell's write path
// allocates one candidate per attempted update, which makes allocation the
// hottest path in the library under write contention — PooledAllocator
// exists for callers who have measured that cost and want to amortize it.
//
// It is never the default. Pooling reintroduces exactly the kind of reuse
// hazard hazard pointers exist to prevent: Free must not be called, and the
// object must not re-enter the pool, until the reclamation engine has
// confirmed no hazard slot still protects it. Cell calls Allocator.Free
// for a retired payload only from inside [scan]'s physical-free phase,
// after the per-slot reclaim latch and the READY_TO_DELETE state transition
// have established that no other slot shadows the same pointer; the only
// other call is on the write path, for a candidate whose publish CAS lost
// and which no other goroutine ever saw — so by the time
// PooledAllocator.Free runs, reuse is safe.
type PooledAllocator[T any] struct {
	pool *sync.Pool
}

// NewPooledAllocator returns a [PooledAllocator] backed by a fresh
// sync.Pool.
func NewPooledAllocator[T any]() *PooledAllocator[T] {
	return &PooledAllocator[T]{
		pool: &sync.Pool{New: func() any { return new(T) }},
	}
}

// Allocate returns a *T initialized to v, reusing pooled memory when
// available.
func (a *PooledAllocator[T]) Allocate(v T) *T {
	p := a.pool.Get().(*T)
	*p = v
	return p
}

// Free returns p to the pool. Callers must guarantee p is unreachable from
// every hazard slot before calling Free — lfcell does so from inside the
// reclamation engine, and for never-published candidates that lost their
// publish race.
func (a *PooledAllocator[T]) Free(p *T) {
	var zero T
	*p = zero
	a.pool.Put(p)
}
