// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrViewLimit is returned by [Strong.Weaken] when the allocator that would
// issue the weak view has reached its live-view limit.
//
// This is the only failure a handle operation can report. Copying, moving,
// dropping and promoting handles never allocate and never fail.
var ErrViewLimit = errors.New("ref: weak view limit reached")

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// The view free list reports it when it has no node to hand out or no room
// to take one back. The allocator absorbs it by falling back to the heap or
// to the garbage collector, so it never reaches handle callers.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support. The allocator
// uses it to tell an empty or full free list from a real failure.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// assert panics with msg when cond is false and DebugEnabled is set.
// With DebugEnabled false the call compiles away.
func assert(cond bool, msg string) {
	if DebugEnabled && !cond {
		panic("ref: " + msg)
	}
}
