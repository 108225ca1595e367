// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

// cellConfig holds the resolved construction-time configuration for a
// [Cell]. It mirrors the teacher package's Options struct in spirit: a
// small, private, value-holding type that Option functions and the
// fluent [Builder] both mutate before construction.
type cellConfig[T any] struct {
	allocator Allocator[T]
	maxSlots  int64
}

func defaultConfig[T any]() *cellConfig[T] {
	return &cellConfig[T]{allocator: stdAllocator[T]{}}
}

// Option configures a [Cell] at construction time. See [WithAllocator],
// [WithMaxSlots].
type Option[T any] func(*cellConfig[T])

// WithAllocator overrides the cell's [Allocator]. The default allocates
// directly on the Go heap ([stdAllocator]); pass [NewMonitoredAllocator]
// for leak/double-free tracking or [NewPooledAllocator] for a
// sync.Pool-backed write path.
func WithAllocator[T any](a Allocator[T]) Option[T] {
	return func(cfg *cellConfig[T]) {
		cfg.allocator = a
	}
}

// WithMaxSlots caps the hazard-slot registry at n slots: once the n-th slot
// has been created, growth is disabled and further [Cell.ReadOnly] /
// [Cell.TryWrite] / [Invoke] calls that find every slot occupied spin on
// [code.hybscloud.com/iox]'s backoff until one frees, instead of growing
// the registry without bound. n must be positive; the default, from
// omitting this option, is unbounded growth.
//
// Grounded on original_source/include/minimal_lockfree_wrapper.hpp's
// MAX_HAZARDS constant and canCreateHazardPointer flag (spec.md §9).
func WithMaxSlots[T any](n int64) Option[T] {
	return func(cfg *cellConfig[T]) {
		cfg.maxSlots = n
	}
}

// Builder creates a [Cell] with fluent configuration, the same pattern the
// teacher package uses for queue construction (New(...).SingleProducer()...).
// Here capacity constraints don't apply — a Cell always holds exactly one
// logical value — so the builder configures only the allocator and the
// hazard-slot cap, but the fluent shape is kept because it is how this
// codebase's constructors read.
//
// Example:
//
//	c := lfcell.NewBuilder(Counter{}).
//	        WithAllocator(lfcell.NewMonitoredAllocator[Counter]()).
//	        Build()
type Builder[T any] struct {
	initial T
	opts    []Option[T]
}

// NewBuilder starts a [Builder] whose cell will publish a copy of initial.
func NewBuilder[T any](initial T) *Builder[T] {
	return &Builder[T]{initial: initial}
}

// WithAllocator overrides the allocator the built cell will use.
func (b *Builder[T]) WithAllocator(a Allocator[T]) *Builder[T] {
	b.opts = append(b.opts, WithAllocator[T](a))
	return b
}

// WithMaxSlots caps the built cell's hazard-slot registry at n slots. See
// [WithMaxSlots].
func (b *Builder[T]) WithMaxSlots(n int64) *Builder[T] {
	b.opts = append(b.opts, WithMaxSlots[T](n))
	return b
}

// Build constructs the configured [Cell].
func (b *Builder[T]) Build() *Cell[T] {
	return NewCell(b.initial, b.opts...)
}
