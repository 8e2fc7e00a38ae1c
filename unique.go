// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

// Unique is a single-owner handle to a managed object.
//
// It holds the object's one and only reference and cannot be shared or
// weakened. Convert it with [FromUnique] once shared ownership is needed;
// the conversion adopts the reference without touching the count.
//
// The zero value is a nil handle.
type Unique[P Ownable, D Deleter] struct {
	p P
	b *Base
}

// UniquePtr is a unique handle with the default destruction policy.
type UniquePtr[P Ownable] = Unique[P, DefaultDeleter]

// MakeUnique allocates a T, runs init on it (if non-nil) and returns its
// sole owner.
func MakeUnique[T any, P interface {
	*T
	Ownable
}](init func(P)) UniquePtr[P] {
	s := MakeOwnedWith[DefaultDeleter, T, P](init)
	return Unique[P, DefaultDeleter]{p: s.p, b: s.b}
}

// AdoptUnique wraps p, taking over its only reference.
// p must not be nil and must not be referenced by anything else.
func AdoptUnique[P Ownable, D Deleter](p P) Unique[P, D] {
	b := p.ownableBase()
	assert(b.refs.IsUnique(), "AdoptUnique of a shared object")
	return Unique[P, D]{p: p, b: b}
}

// FromUnique converts u into a strong handle and leaves u nil.
func FromUnique[P Ownable, D Deleter](u *Unique[P, D]) Strong[P, D] {
	s := Strong[P, D]{p: u.p, b: u.b}
	*u = Unique[P, D]{}
	return s
}

// Get returns the managed object.
// Calling Get on a nil handle is a programmer error.
func (u Unique[P, D]) Get() P {
	assert(u.b != nil, "Get on a nil handle")
	return u.p
}

// IsNil reports whether u owns no object.
func (u Unique[P, D]) IsNil() bool {
	return u.b == nil
}

// Move transfers ownership to the returned handle and leaves u nil.
func (u *Unique[P, D]) Move() Unique[P, D] {
	t := *u
	*u = Unique[P, D]{}
	return t
}

// Release leaves u nil and returns the object with its reference, for a
// later [Adopt] or [AdoptUnique].
func (u *Unique[P, D]) Release() P {
	p := u.p
	*u = Unique[P, D]{}
	return p
}

// Reset destroys the owned object, if any, and leaves u nil.
func (u *Unique[P, D]) Reset() {
	if u.b != nil {
		drop[D](u.b, u.p)
	}
	*u = Unique[P, D]{}
}
