// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrLostRace indicates a writer scope's publish CAS lost to a concurrent
// writer. The candidate mutation did not land; the cell still holds
// whatever the winning writer published.
//
// ErrLostRace is a control flow signal, not a failure — races on the write
// path are expected under contention. Callers that must guarantee their
// mutation lands should use [Invoke] instead of [Cell.TryWrite], which
// retries automatically.
//
// This mirrors [iox.ErrWouldBlock]'s role in the wider atomix/iox/spin
// ecosystem: a classified, retryable signal rather than an application
// error.
var ErrLostRace = errors.New("lfcell: writer lost the publish race")

// ErrDoubleFree is reported by [MonitoredAllocator] when Free is called
// twice on the same pointer.
var ErrDoubleFree = errors.New("lfcell: double free")

// ErrUnknownFree is reported by [MonitoredAllocator] when Free is called on
// a pointer it never allocated. Distinct from [ErrDoubleFree] because the
// two indicate different faults in the caller: a stale reference replayed
// through the reclamation path versus a pointer the allocator has no record
// of at all.
var ErrUnknownFree = errors.New("lfcell: free of a pointer never allocated")

// IsLostRace reports whether err is (or wraps) [ErrLostRace].
func IsLostRace(err error) bool {
	return errors.Is(err, ErrLostRace)
}

// IsSemantic reports whether err is a control flow signal rather than a
// failure. ErrLostRace classifies the same way [iox.ErrWouldBlock] does for
// the queue package this library is modelled on; anything [iox] itself
// recognizes as semantic (a wrapped [iox.ErrWouldBlock] surfacing through a
// shared backoff helper, for instance) classifies the same way here.
func IsSemantic(err error) bool {
	return IsLostRace(err) || iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition: nil,
// or a control flow signal such as [ErrLostRace]. [ErrDoubleFree] and
// [ErrUnknownFree] are never non-failures — both indicate a caller bug in
// how payload pointers were handled. Delegates to [iox.IsNonFailure] for
// anything not recognized locally, the same reuse the teacher package's own
// IsNonFailure makes of it.
func IsNonFailure(err error) bool {
	if err == nil || IsLostRace(err) {
		return true
	}
	return iox.IsNonFailure(err)
}
