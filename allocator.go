// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

// Allocator issues and recycles weak views.
//
// Released views go back to a bounded free list and are reissued without
// touching the heap, which keeps weak-pointer-heavy workloads from churning
// the garbage collector. When the free list is empty a fresh view is
// allocated; when it is full the released view is left to the collector.
// Recycling is a throughput optimization only: handles behave the same
// with any capacity.
//
// Every view remembers the allocator that issued it and returns there,
// so allocators can be swapped with [SetAllocator] while views are live.
type Allocator struct {
	ring  *freeList
	limit int64

	_         cpu.CacheLinePad
	live      atomix.Int64
	_         cpu.CacheLinePad
	fresh     atomix.Int64
	reused    atomix.Int64
	recycled  atomix.Int64
	discarded atomix.Int64
	rejected  atomix.Int64
}

func newAllocator(opts Options) *Allocator {
	return &Allocator{
		ring:  newFreeList(opts.capacity),
		limit: opts.limit,
	}
}

// alloc returns a view attached to owner, holding one reference for it.
// Returns ErrViewLimit if the live-view limit is reached.
func (a *Allocator) alloc(owner Ownable) (*weakView, error) {
	if n := a.live.AddAcqRel(1); a.limit > 0 && n > a.limit {
		a.live.AddAcqRel(-1)
		a.rejected.Add(1)
		return nil, ErrViewLimit
	}

	v, err := a.ring.pop()
	if IsWouldBlock(err) {
		v = &weakView{pool: a}
		a.fresh.Add(1)
	} else {
		a.reused.Add(1)
	}
	v.attach(owner)
	return v, nil
}

// free takes back a view nobody references any more.
// The view's owner has already been cleared under its mutex.
func (a *Allocator) free(v *weakView) {
	v.refs.reset()
	a.live.AddAcqRel(-1)

	if err := a.ring.push(v); IsWouldBlock(err) {
		a.discarded.Add(1)
		return
	}
	a.recycled.Add(1)
}

// Cap returns the free-list capacity.
func (a *Allocator) Cap() int {
	return a.ring.size()
}

// Stats returns a snapshot of the allocator's counters.
// Counters are read independently and may be mutually inconsistent
// under concurrent use.
func (a *Allocator) Stats() Stats {
	return Stats{
		Live:      a.live.Load(),
		Fresh:     a.fresh.Load(),
		Reused:    a.reused.Load(),
		Recycled:  a.recycled.Load(),
		Discarded: a.discarded.Load(),
		Rejected:  a.rejected.Load(),
	}
}

var defaultAllocator atomix.Pointer[Allocator]

func init() {
	defaultAllocator.StoreRelease(Views(DefaultViewCapacity).Build())
}

// SetAllocator makes a the allocator for views created from now on and
// returns the previous one. Views already issued keep returning to the
// allocator that issued them.
//
// Panics if a is nil.
func SetAllocator(a *Allocator) *Allocator {
	if a == nil {
		panic("ref: nil allocator")
	}
	return defaultAllocator.SwapAcqRel(a)
}

func currentAllocator() *Allocator {
	return defaultAllocator.LoadAcquire()
}
