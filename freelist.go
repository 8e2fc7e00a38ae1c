// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// freeList is a bounded multi-producer multi-consumer ring of recycled
// view nodes.
//
// Each slot carries a sequence number that encodes whose turn it is:
// seq == pos means free for the push claiming pos, seq == pos+1 means
// filled for the pop claiming pos. The sequence check gives ABA safety
// without tagging pointers.
//
// Memory: n slots for capacity n.
type freeList struct {
	_        cpu.CacheLinePad
	tail     atomix.Uint64 // push index
	_        cpu.CacheLinePad
	head     atomix.Uint64 // pop index
	_        cpu.CacheLinePad
	slots    []freeSlot
	mask     uint64
	capacity uint64
}

// node is atomic: the race detector cannot see the seq handoff and would
// report a plain field.
type freeSlot struct {
	seq  atomix.Uint64
	node atomix.Pointer[weakView]
	_    [64 - 16]byte
}

func newFreeList(capacity int) *freeList {
	n := uint64(roundToPow2(capacity))
	l := &freeList{
		slots:    make([]freeSlot, n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		l.slots[i].seq.StoreRelaxed(i)
	}
	return l
}

// push returns a node to the ring.
// Returns ErrWouldBlock if the ring is full.
func (l *freeList) push(v *weakView) error {
	sw := spin.Wait{}
	for {
		tail := l.tail.LoadAcquire()
		slot := &l.slots[tail&l.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if l.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.node.StoreRelaxed(v)
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// pop takes a node from the ring.
// Returns (nil, ErrWouldBlock) if the ring is empty.
func (l *freeList) pop() (*weakView, error) {
	sw := spin.Wait{}
	for {
		head := l.head.LoadAcquire()
		slot := &l.slots[head&l.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if l.head.CompareAndSwapAcqRel(head, head+1) {
				v := slot.node.LoadRelaxed()
				slot.node.StoreRelaxed(nil)
				slot.seq.StoreRelease(head + l.capacity)
				return v, nil
			}
		} else if diff < 0 {
			return nil, ErrWouldBlock
		}
		sw.Once()
	}
}

func (l *freeList) size() int {
	return int(l.capacity)
}
