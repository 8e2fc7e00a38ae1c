// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import "sync"

// weakView is the weak-reference node of one managed object.
//
// The object holds one unit of refs for as long as it is alive; every
// [Weak] handle holds one more. Whoever drops the last unit returns the
// node to pool.
//
// owner is a non-owning back-pointer: it does not count as a reference and
// is non-nil exactly until the owner's count reaches zero. mu makes reading
// owner and incrementing the owner's count atomic with respect to
// clearOwner. owner and pool are only touched under mu; the view itself is
// published through atomix operations the race detector cannot see, so the
// mutex is also what orders a recycled view's reuse after its release.
type weakView struct {
	refs  RefCount
	mu    sync.Mutex
	owner Ownable
	pool  *Allocator
}

// attach binds a fresh or recycled view to owner.
func (v *weakView) attach(owner Ownable) {
	v.mu.Lock()
	v.owner = owner
	v.mu.Unlock()
}

// isOwnerAlive reports whether the owner has not been destroyed yet.
func (v *weakView) isOwnerAlive() bool {
	v.mu.Lock()
	alive := v.owner != nil
	v.mu.Unlock()
	return alive
}

// clearOwner detaches the view from its owner and drops the owner's unit
// in one critical section, so weakCount never sees one without the other.
// Called on the destruction path after the zero-transition and before
// the deleter runs. Recycles the node if no weak handle is left.
func (v *weakView) clearOwner() {
	v.mu.Lock()
	v.owner = nil
	last := v.refs.DropRef()
	pool := v.pool
	v.mu.Unlock()
	if last {
		pool.free(v)
	}
}

// weakCount returns the number of weak handles, excluding the unit the
// owner holds while it is alive. Both are read under mu, and clearOwner
// changes both under mu, so a concurrent detach is never counted twice.
func (v *weakView) weakCount() uint64 {
	v.mu.Lock()
	n := v.refs.Get()
	if v.owner != nil {
		n--
	}
	v.mu.Unlock()
	return n
}

// release drops one unit of the view's own count and recycles the node
// when it was the last.
func (v *weakView) release() {
	if !v.refs.DropRef() {
		return
	}
	v.mu.Lock()
	v.owner = nil
	pool := v.pool
	v.mu.Unlock()
	pool.free(v)
}

// lockOwner promotes the view to a strong handle of type Q.
// Returns false if the owner is gone, is being destroyed, or is not a Q.
func lockOwner[Q Ownable, D Deleter](v *weakView) (Strong[Q, D], bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.owner == nil {
		return Strong[Q, D]{}, false
	}
	q, ok := v.owner.(Q)
	if !ok {
		return Strong[Q, D]{}, false
	}
	b := v.owner.ownableBase()
	if !b.refs.TryAddRef() {
		return Strong[Q, D]{}, false
	}
	return Strong[Q, D]{p: q, b: b}, true
}
