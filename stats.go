// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

// Stats is a snapshot of an [Allocator]'s counters.
type Stats struct {
	Live      int64 // views issued and not yet released
	Fresh     int64 // views allocated from the heap
	Reused    int64 // views taken from the free list
	Recycled  int64 // released views kept on the free list
	Discarded int64 // released views left to the GC, free list full
	Rejected  int64 // allocations refused by the live-view limit
}

// Issued returns the total number of views handed out.
func (s Stats) Issued() int64 {
	return s.Fresh + s.Reused
}
