// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"cmp"
	"unsafe"
)

// Strong is a shared-ownership handle to a managed object.
//
// A non-nil Strong owns exactly one unit of the object's reference count.
// The object lives until the last unit is dropped; the goroutine that drops
// it detaches the weak view and runs D's Delete, exactly once.
//
// Go has no destructors, so ownership is explicit:
//   - Assigning a Strong copies the pointer, not the ownership. Use
//     [Strong.Share] to fork a unit and [Strong.Move] to transfer one.
//   - Every unit must be given back with [Strong.Reset] (or handed on to a
//     cast, [Strong.Release], or another owner) exactly once.
//
// Dropping the same unit twice is a programmer error. It panics when built
// with -tags refdebug and is undefined behaviour otherwise: the object may
// be destroyed while other owners still use it.
//
// The zero value is a nil handle. Copy, move and drop never allocate.
type Strong[P Ownable, D Deleter] struct {
	p P
	b *Base
}

// Ptr is a strong handle with the default destruction policy.
type Ptr[P Ownable] = Strong[P, DefaultDeleter]

// MakeOwned allocates a T, runs init on it (if non-nil) and returns the
// handle owning its first reference.
//
// Example:
//
//	conn := ref.MakeOwned(func(c *Conn) { c.fd = fd })
//	defer conn.Reset()
func MakeOwned[T any, P interface {
	*T
	Ownable
}](init func(P)) Ptr[P] {
	return MakeOwnedWith[DefaultDeleter, T, P](init)
}

// MakeOwnedWith is [MakeOwned] with the destruction policy D.
//
//	buf := ref.MakeOwnedWith[poolDeleter](func(b *Buffer) { b.data = get() })
func MakeOwnedWith[D Deleter, T any, P interface {
	*T
	Ownable
}](init func(P)) Strong[P, D] {
	p := P(new(T))
	if init != nil {
		init(p)
	}
	return Strong[P, D]{p: p, b: p.ownableBase()}
}

// Adopt wraps p, taking over one reference the caller already holds:
// the one an object is created with, or one obtained from
// [Strong.Release]. The count is not incremented.
//
// p must not be nil.
func Adopt[P Ownable, D Deleter](p P) Strong[P, D] {
	b := p.ownableBase()
	assert(b.refs.Get() != 0, "Adopt of a released object")
	return Strong[P, D]{p: p, b: b}
}

// ShareFrom returns a new handle to p, adding a reference.
//
// The caller must already hold a reference to p. It lets an object hand
// out handles to itself from its own methods.
func ShareFrom[D Deleter, P Ownable](p P) Strong[P, D] {
	b := p.ownableBase()
	b.refs.AddRef()
	return Strong[P, D]{p: p, b: b}
}

// WeakenFrom returns a weak handle to p, the weak counterpart of
// [ShareFrom]. It lets an object register itself with observers without
// keeping itself alive.
//
// The caller must hold a strong reference to p. Returns [ErrViewLimit]
// under the same conditions as [Strong.Weaken].
func WeakenFrom[D Deleter, P Ownable](p P) (Weak[P, D], error) {
	v, err := p.ownableBase().viewFor(p)
	if err != nil {
		return Weak[P, D]{}, err
	}
	return Weak[P, D]{v: v}, nil
}

// Get returns the managed object.
// Calling Get on a nil handle is a programmer error.
func (s Strong[P, D]) Get() P {
	assert(s.b != nil, "Get on a nil handle")
	return s.p
}

// IsNil reports whether s refers to no object.
func (s Strong[P, D]) IsNil() bool {
	return s.b == nil
}

// IsUnique reports whether s is the only strong owner.
// Returns false for a nil handle.
func (s Strong[P, D]) IsUnique() bool {
	return s.b != nil && s.b.refs.IsUnique()
}

// Refs returns the object's strong reference count, 0 for a nil handle.
// Diagnostic only.
func (s Strong[P, D]) Refs() uint64 {
	if s.b == nil {
		return 0
	}
	return s.b.refs.Get()
}

// WeakRefs returns the number of weak handles observing the object,
// 0 for a nil handle or an object never weakened. Diagnostic only.
func (s Strong[P, D]) WeakRefs() uint64 {
	if s.b == nil {
		return 0
	}
	return s.b.weakRefs()
}

// Share returns a new handle to the same object, adding a reference.
// Sharing a nil handle returns a nil handle.
func (s Strong[P, D]) Share() Strong[P, D] {
	if s.b != nil {
		s.b.refs.AddRef()
	}
	return s
}

// Move transfers s's reference to the returned handle and leaves s nil.
func (s *Strong[P, D]) Move() Strong[P, D] {
	t := *s
	*s = Strong[P, D]{}
	return t
}

// Release leaves s nil and returns the object without dropping the
// reference. The caller becomes responsible for it, typically by passing
// it to [Adopt] later.
func (s *Strong[P, D]) Release() P {
	p := s.p
	*s = Strong[P, D]{}
	return p
}

// Reset drops s's reference and leaves s nil.
// If it was the last reference, the object is destroyed before Reset
// returns. Resetting a nil handle does nothing.
func (s *Strong[P, D]) Reset() {
	if s.b != nil {
		drop[D](s.b, s.p)
	}
	*s = Strong[P, D]{}
}

// Swap exchanges the objects of s and o.
func (s *Strong[P, D]) Swap(o *Strong[P, D]) {
	*s, *o = *o, *s
}

// Equal reports whether s and o refer to the same object.
func (s Strong[P, D]) Equal(o Strong[P, D]) bool {
	return s.b == o.b
}

// Compare orders handles by object address. Nil sorts first.
func (s Strong[P, D]) Compare(o Strong[P, D]) int {
	return compareBase(s.b, o.b)
}

// Weaken returns a weak handle observing s's object.
//
// The first call on an object allocates its weak view; later calls, from
// any goroutine, reuse it. Returns [ErrViewLimit] if the view allocator's
// limit is reached. Weakening a nil handle returns a nil weak handle.
func (s Strong[P, D]) Weaken() (Weak[P, D], error) {
	if s.b == nil {
		return Weak[P, D]{}, nil
	}
	v, err := s.b.viewFor(s.p)
	if err != nil {
		return Weak[P, D]{}, err
	}
	return Weak[P, D]{v: v}, nil
}

// Same reports whether a and b refer to the same object, whatever their
// handle types.
func Same[P, Q Ownable, D, E Deleter](a Strong[P, D], b Strong[Q, E]) bool {
	return a.b == b.b
}

func compareBase(a, b *Base) int {
	return cmp.Compare(uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b)))
}
