// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ref provides intrusive, thread-safe shared ownership with weak
// references.
//
// Memory is still reclaimed by the garbage collector. What ref adds is a
// deterministic release point: a managed object's destruction policy runs
// exactly once, on the goroutine that drops the last strong reference.
// That is what buffers, descriptors, and pooled objects shared between
// goroutines need and what finalizers cannot promise.
//
// The count lives inside the object, so the strong path needs no separate
// control block:
//
//   - [RefCount]: the embedded atomic count
//   - [Base]: the mixin that makes a type managed (count + weak-view slot)
//   - [Strong]: shared-ownership handle, one reference per handle
//   - [Weak]: observing handle, promoted to [Strong] on demand
//   - [Unique]: single-owner handle, convertible to [Strong]
//   - [Allocator]: recycling allocator for weak views
//
// # Quick Start
//
// Embed [Base] and create objects through [MakeOwned]:
//
//	type Conn struct {
//	    ref.Base
//	    fd int
//	}
//
//	func (c *Conn) Destroy() { syscall.Close(c.fd) }  // runs exactly once
//
//	c := ref.MakeOwned(func(c *Conn) { c.fd = fd })   // count 1
//	d := c.Share()                                    // count 2
//	c.Reset()                                         // count 1
//	d.Reset()                                         // count 0, Destroy runs
//
// # Ownership Rules
//
// Go has no destructors, so every reference is given back explicitly:
//
//   - Assigning a handle copies the pointer, not the ownership.
//   - [Strong.Share] forks a reference, [Strong.Move] transfers one.
//   - [Strong.Reset] drops one; each reference is dropped exactly once.
//   - Casts consume their argument; pass s.Share() to keep s.
//
// # Weak References
//
// [Strong.Weaken] lazily creates the object's weak view, at most one per
// object however many goroutines race to create it:
//
//	w, err := c.Weaken()
//	if err != nil {
//	    return err  // ErrViewLimit: allocator limit reached
//	}
//	defer w.Reset()
//
//	if s, ok := w.Lock(); ok {
//	    defer s.Reset()
//	    use(s.Get())
//	}
//
// A failed Lock is a normal outcome: the object was destroyed, or is being
// destroyed on another goroutine. A successful Lock keeps the object alive
// until the returned handle is reset. [Weak.IsAlive] is advisory only.
//
// # Destruction Policy
//
// The second type parameter of [Strong] and [Weak] is a [Deleter], fixed at
// the type level and called through its zero value. [Ptr], [WeakPtr] and
// [UniquePtr] use [DefaultDeleter], which calls Destroy on objects
// implementing [Destroyer]:
//
//	type recycle struct{}
//
//	func (recycle) Delete(obj ref.Ownable) { bufPool.Put(obj) }
//
//	b := ref.MakeOwnedWith[recycle](func(b *Buffer) { ... })
//
// By the time Delete runs the weak view is already detached: no [Weak.Lock]
// can succeed any more.
//
// # Casts
//
// Handles convert between related types while sharing one count. Related
// means interface satisfaction:
//
//	s := ref.StaticCast[Stream](c)                   // cannot fail
//	r := ref.ConstCast[Reader](s.Share())            // narrower method set
//	t, ok := ref.DynamicCast[*TLSConn](r)            // checked
//
// # Error Handling
//
// Failures come in three kinds:
//
//   - Expected races (promotion of a dying object, failed dynamic cast)
//     return an ok of false. They are control flow, not errors.
//   - Allocation failure of a weak view returns [ErrViewLimit] from
//     [Strong.Weaken]. It is the only error the handles report.
//   - Programmer errors (double drop, count underflow, Get on a nil handle)
//     panic when built with -tags refdebug and are undefined behaviour
//     otherwise. See [DebugEnabled].
//
// # Memory Ordering
//
// Increments and the zero-transition decrement are acquire-release, so the
// destroying goroutine observes every write other owners made before
// dropping. [RefCount.TryAddRef] is a compare-and-swap loop that never
// succeeds after the count has reached zero.
//
// The weak view's back-pointer is guarded by a mutex held for constant
// work: reading the pointer and one conditional increment. Destruction
// clears it before the deleter runs and never holds the mutex while user
// code executes.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for CPU pause in
// compare-and-swap retry loops, and [code.hybscloud.com/iox] for semantic
// errors.
package ref
