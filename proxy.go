// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

// ReaderScope is a handle returned by [Cell.ReadOnly]. While open, the
// payload returned by [ReaderScope.Get] is guaranteed not to be freed by
// the reclamation engine, even if the cell publishes many replacements in
// the meantime — the scope always sees the snapshot it took at
// acquisition.
//
// ReaderScope substitutes for the RAII read proxy spec.md describes: Go has
// no destructors, so the caller must call [ReaderScope.Close] exactly once
// (typically via defer) to release the underlying hazard slot.
type ReaderScope[T any] struct {
	cell   *Cell[T]
	slot   *slot[T]
	object *T
}

// Get returns the payload this scope snapshotted. The returned pointer is
// valid only until Close.
func (r *ReaderScope[T]) Get() *T {
	return r.object
}

// Close releases the scope's hazard slot, making its protected payload
// eligible for reclamation once no other slot shadows it. Close must be
// called exactly once; calling it again, or using the scope afterward, is
// undefined behaviour.
func (r *ReaderScope[T]) Close() {
	r.cell.release(r.slot)
}

// WriterScope is a handle returned by [Cell.TryWrite]. The caller mutates
// the candidate returned by [WriterScope.Get] freely — it is private until
// Close attempts to publish it.
type WriterScope[T any] struct {
	cell      *Cell[T]
	slot      *slot[T]
	expected  *T
	candidate *T
}

// Get returns the private candidate payload. Mutate it directly; there is
// no separate commit step beyond Close.
func (w *WriterScope[T]) Get() *T {
	return w.candidate
}

// Close attempts to publish the candidate with a single CAS against the
// publication this scope snapshotted at acquisition, then releases the
// scope's hazard slot. On success it returns nil. On a lost race — some
// other writer published first — the candidate is freed immediately
// (nothing else ever observed it) and Close returns [ErrLostRace]: this
// replaces spec.md §9's acknowledged silent-failure gap in the original
// try_write design with an explicit, checkable outcome. Callers that don't
// care can ignore the return value; callers that must guarantee the
// mutation lands should use [Invoke] instead of [Cell.TryWrite].
func (w *WriterScope[T]) Close() error {
	defer w.cell.release(w.slot)

	if w.cell.CompareAndUpdate(w.expected, w.candidate) {
		return nil
	}
	w.cell.allocator.Free(w.candidate)
	return ErrLostRace
}
