// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

// Casts re-type a handle while sharing the same reference count: the
// result refers to the same object, compares equal under [Same], and the
// count is unchanged.
//
// Every cast consumes its argument. The argument's unit now belongs to the
// result, so the caller must not reset the argument afterwards. Pass
// s.Share() to keep using s.
//
// Go expresses "related types" through interface satisfaction. A cast to a
// type the object provably satisfies cannot fail; a cast that might fail
// must be a [DynamicCast].

// StaticCast re-types s to Q.
//
// The object must be a Q. A StaticCast whose precondition does not hold
// panics with a runtime type-assertion error, like any failed Go assertion.
// A nil handle casts to a nil handle.
//
// Example:
//
//	var s ref.Ptr[Stream] = ref.StaticCast[Stream](conn)  // *Conn implements Stream
//	c := ref.StaticCast[*Conn](s)                          // and back again
func StaticCast[Q, P Ownable, D Deleter](s Strong[P, D]) Strong[Q, D] {
	if s.b == nil {
		return Strong[Q, D]{}
	}
	return Strong[Q, D]{p: any(s.p).(Q), b: s.b}
}

// ConstCast re-types s to a narrower view Q of the same object, typically
// an interface exposing only read methods.
//
// Go has no const qualifier; restricting the method set is how a handle
// loses or regains mutating access. The precondition and failure mode are
// those of [StaticCast].
func ConstCast[Q, P Ownable, D Deleter](s Strong[P, D]) Strong[Q, D] {
	return StaticCast[Q](s)
}

// DynamicCast re-types s to Q if the object is a Q.
//
// On failure the consumed reference is dropped, which destroys the object
// if it was the last one, and (nil handle, false) is returned.
// A nil handle casts to a nil handle and reports true.
func DynamicCast[Q, P Ownable, D Deleter](s Strong[P, D]) (Strong[Q, D], bool) {
	if s.b == nil {
		return Strong[Q, D]{}, true
	}
	q, ok := any(s.p).(Q)
	if !ok {
		s.Reset()
		return Strong[Q, D]{}, false
	}
	return Strong[Q, D]{p: q, b: s.b}, true
}

// WeakCast re-types w to observe its object as a Q, consuming w.
//
// The object may already be gone, so nothing is checked here: a later
// [Weak.Lock] on the result fails if the object is not a Q.
func WeakCast[Q, P Ownable, D Deleter](w Weak[P, D]) Weak[Q, D] {
	return Weak[Q, D]{v: w.v}
}

// LockAs promotes w to a strong handle of type Q.
//
// Returns (nil handle, false) if the object is gone, is being destroyed,
// or is not a Q. w is not consumed.
func LockAs[Q, P Ownable, D Deleter](w Weak[P, D]) (Strong[Q, D], bool) {
	if w.v == nil {
		return Strong[Q, D]{}, false
	}
	return lockOwner[Q, D](w.v)
}
