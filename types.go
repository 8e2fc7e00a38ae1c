// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

// Ownable is implemented by every type that embeds [Base].
//
// The interface is sealed: its only method is unexported and promoted from
// Base, so embedding Base is the one way to become eligible for [Strong]
// and [Weak] management.
//
// Ownable is also the constraint on handle type parameters. An interface
// that embeds Ownable works as well as a concrete pointer type:
//
//	type Conn struct {
//	    ref.Base
//	    fd int
//	}
//
//	type Stream interface {
//	    ref.Ownable
//	    Read(p []byte) (int, error)
//	}
//
//	c := ref.MakeOwned(func(c *Conn) { c.fd = fd })  // ref.Ptr[*Conn]
//	s := ref.StaticCast[Stream](c)                   // ref.Ptr[Stream]
type Ownable interface {
	ownableBase() *Base
}

// Deleter is the destruction policy of a handle type.
//
// Delete is called exactly once per object, on the goroutine whose drop
// took the reference count to zero, after the weak view has been detached.
// The object's memory is reclaimed by the garbage collector afterwards;
// Delete releases whatever else the object owns.
//
// The policy is fixed by the handle's type parameter and invoked through
// its zero value, so implementations are normally empty structs.
// Delete must not panic and must not resurrect the object.
type Deleter interface {
	Delete(obj Ownable)
}

// Destroyer is implemented by managed types that release resources when
// their last strong owner lets go. [DefaultDeleter] calls Destroy.
type Destroyer interface {
	Destroy()
}

// DefaultDeleter calls Destroy on objects that implement [Destroyer] and
// does nothing for the others.
type DefaultDeleter struct{}

// Delete implements [Deleter].
func (DefaultDeleter) Delete(obj Ownable) {
	if d, ok := obj.(Destroyer); ok {
		d.Destroy()
	}
}
