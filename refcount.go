// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// dead is the stored value of a count that has reached zero.
// The stored value is the count minus one, so it wraps to all ones.
const dead = ^uint64(0)

// RefCount is an atomic, non-negative reference count.
//
// The zero value holds exactly one reference, owned by whoever created it.
// This lets a managed object start life with a count of one without an
// explicit initializer.
//
// Once the count has reached zero it is never incremented again: [TryAddRef]
// fails and [AddRef] is a programmer error.
//
// Memory ordering: increments and the decrement are acquire-release, so the
// goroutine that observes the zero-transition sees every write made by the
// other owners before they dropped.
//
// [TryAddRef]: RefCount.TryAddRef
// [AddRef]: RefCount.AddRef
type RefCount struct {
	n atomix.Uint64 // count - 1
}

// Get returns the current count.
// Relaxed read: the value may be stale by the time it is used, so it is
// meant for diagnostics, never for control flow.
func (c *RefCount) Get() uint64 {
	return c.n.LoadRelaxed() + 1
}

// IsUnique reports whether the count is exactly one.
func (c *RefCount) IsUnique() bool {
	return c.Get() == 1
}

// AddRef increments the count.
// The caller must already hold a reference, so the count cannot be zero.
func (c *RefCount) AddRef() {
	old := c.n.AddAcqRel(1) - 1
	assert(old != dead, "AddRef on a released count")
	assert(old != dead-1, "reference count overflow")
}

// TryAddRef increments the count unless it is zero.
//
// Returns false if the count has reached zero, in which case the object is
// being or has been destroyed. A successful TryAddRef never follows a
// zero-transition on the same count.
func (c *RefCount) TryAddRef() bool {
	sw := spin.Wait{}
	for {
		old := c.n.LoadAcquire()
		if old == dead {
			return false
		}
		assert(old != dead-1, "reference count overflow")
		if c.n.CompareAndSwapAcqRel(old, old+1) {
			return true
		}
		sw.Once()
	}
}

// DropRef decrements the count and reports whether it reached zero.
//
// The goroutine that receives true is solely responsible for destroying
// the object, exactly once.
func (c *RefCount) DropRef() bool {
	n := c.n.AddAcqRel(^uint64(0))
	assert(n != dead-1, "reference count underflow")
	return n == dead
}

// reset restores the zero value, one reference.
// Only valid on a count nobody else can reach.
func (c *RefCount) reset() {
	c.n.StoreRelaxed(0)
}
