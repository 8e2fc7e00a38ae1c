// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Base makes the embedding type a managed object.
//
// It carries the object's reference count and the slot holding its weak
// view, created on the first [Strong.Weaken]. The zero value is a live
// object with one reference, which the creating handle owns:
//
//	type Buffer struct {
//	    ref.Base
//	    data []byte
//	}
//
// A Base must not be copied after first use.
type Base struct {
	refs RefCount
	view atomix.Pointer[weakView]
}

func (b *Base) ownableBase() *Base { return b }

// viewFor returns the object's weak view with one unit added for the caller,
// creating and installing it first if the object has none.
//
// The caller must hold a strong reference, which keeps the object's own
// unit of the view alive between the load and the AddRef.
//
// Racing goroutines converge on one view: losers of the install CAS
// return their speculative node to the allocator and retry.
func (b *Base) viewFor(owner Ownable) (*weakView, error) {
	sw := spin.Wait{}
	for {
		if v := b.view.LoadAcquire(); v != nil {
			v.refs.AddRef()
			return v, nil
		}
		nv, err := currentAllocator().alloc(owner)
		if err != nil {
			return nil, err
		}
		if b.view.CompareAndSwapAcqRel(nil, nv) {
			nv.refs.AddRef()
			return nv, nil
		}
		nv.release()
		sw.Once()
	}
}

// detach runs after the zero-transition of the object's count.
// The back-pointer is cleared together with the drop of the object's
// unit: once that unit is gone, the last weak handle may recycle the node
// at any moment.
func (b *Base) detach() {
	v := b.view.SwapAcqRel(nil)
	if v == nil {
		return
	}
	v.clearOwner()
}

// weakRefs returns the number of weak handles observing the object.
func (b *Base) weakRefs() uint64 {
	v := b.view.LoadAcquire()
	if v == nil {
		return 0
	}
	return v.weakCount()
}

// drop releases one strong unit and destroys the object when it was the
// last one.
func drop[D Deleter](b *Base, obj Ownable) {
	if !b.refs.DropRef() {
		return
	}
	b.detach()
	var d D
	d.Delete(obj)
}
