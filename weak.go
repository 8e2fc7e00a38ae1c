// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"cmp"
	"unsafe"
)

// Weak observes a managed object without keeping it alive.
//
// A non-nil Weak owns one unit of the object's weak view, not of the object.
// It must be promoted with [Weak.Lock] before the object can be used, and
// promotion fails once the last strong owner has dropped.
//
// Ownership rules mirror [Strong]: [Weak.Share] forks, [Weak.Move]
// transfers, [Weak.Reset] gives the unit back exactly once.
//
// The zero value is a nil handle.
type Weak[P Ownable, D Deleter] struct {
	v *weakView
}

// WeakPtr is a weak handle with the default destruction policy.
type WeakPtr[P Ownable] = Weak[P, DefaultDeleter]

// IsNil reports whether w observes no object.
func (w Weak[P, D]) IsNil() bool {
	return w.v == nil
}

// IsAlive reports whether the observed object has not been destroyed.
//
// Advisory only: the answer may be stale as soon as it is returned.
// Use [Weak.Lock] to get an object that is guaranteed to stay alive.
// Returns false for a nil handle.
func (w Weak[P, D]) IsAlive() bool {
	return w.v != nil && w.v.isOwnerAlive()
}

// WeakRefs returns the number of weak handles observing the object,
// 0 for a nil handle. Diagnostic only.
func (w Weak[P, D]) WeakRefs() uint64 {
	if w.v == nil {
		return 0
	}
	return w.v.weakCount()
}

// Lock promotes w to a strong handle.
//
// Returns (nil handle, false) if the object is gone or is being destroyed
// concurrently. A failed promotion is an expected outcome, not an error.
// A successful one keeps the object alive until the returned handle is
// reset.
func (w Weak[P, D]) Lock() (Strong[P, D], bool) {
	if w.v == nil {
		return Strong[P, D]{}, false
	}
	return lockOwner[P, D](w.v)
}

// Share returns a new weak handle to the same object.
func (w Weak[P, D]) Share() Weak[P, D] {
	if w.v != nil {
		w.v.refs.AddRef()
	}
	return w
}

// Move transfers w's unit to the returned handle and leaves w nil.
func (w *Weak[P, D]) Move() Weak[P, D] {
	t := *w
	*w = Weak[P, D]{}
	return t
}

// Reset drops w's unit and leaves w nil.
// Resetting a nil handle does nothing.
func (w *Weak[P, D]) Reset() {
	if w.v != nil {
		w.v.release()
	}
	*w = Weak[P, D]{}
}

// Swap exchanges the objects of w and o.
func (w *Weak[P, D]) Swap(o *Weak[P, D]) {
	*w, *o = *o, *w
}

// Equal reports whether w and o observe the same object.
// Handles weakened from the same object share one view and compare equal,
// including after the object is gone.
func (w Weak[P, D]) Equal(o Weak[P, D]) bool {
	return w.v == o.v
}

// Compare orders handles by view address. Nil sorts first.
func (w Weak[P, D]) Compare(o Weak[P, D]) int {
	return compareView(w.v, o.v)
}

func compareView(a, b *weakView) int {
	return cmp.Compare(uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b)))
}
