// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref_test

import (
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/ref"
)

// =============================================================================
// Strong Handles
// =============================================================================

// TestShareWeakenDrop walks one object through its whole life:
// count 1 → share twice (3) → drop two (1) → weaken → drop last (0) →
// weak handle can no longer promote.
func TestShareWeakenDrop(t *testing.T) {
	var destroyed atomix.Int32
	a := newConn(1, &destroyed)

	if got := a.Refs(); got != 1 {
		t.Fatalf("Refs after MakeOwned: got %d, want 1", got)
	}
	if !a.IsUnique() {
		t.Fatalf("IsUnique after MakeOwned: got false, want true")
	}

	b := a.Share()
	c := a.Share()
	if got := a.Refs(); got != 3 {
		t.Fatalf("Refs after 2 Share: got %d, want 3", got)
	}
	if !b.Equal(a) || !c.Equal(a) {
		t.Fatalf("Share: copies must refer to the same object")
	}

	b.Reset()
	c.Reset()
	if got := a.Refs(); got != 1 {
		t.Fatalf("Refs after 2 Reset: got %d, want 1", got)
	}
	if !b.IsNil() || !c.IsNil() {
		t.Fatalf("Reset: handles must be nil afterwards")
	}

	w, err := a.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	if !w.IsAlive() {
		t.Fatalf("IsAlive before last drop: got false, want true")
	}
	if got := destroyed.Load(); got != 0 {
		t.Fatalf("destroyed before last drop: got %d, want 0", got)
	}

	a.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed after last drop: got %d, want 1", got)
	}
	if w.IsAlive() {
		t.Fatalf("IsAlive after last drop: got true, want false")
	}
	if s, ok := w.Lock(); ok || !s.IsNil() {
		t.Fatalf("Lock after last drop: got (%v, %v), want (nil, false)", s.IsNil(), ok)
	}
	w.Reset()

	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed after weak reset: got %d, want 1", got)
	}
}

// TestStrongNil tests that every operation on a nil handle is a no-op.
func TestStrongNil(t *testing.T) {
	var s ref.Ptr[*conn]

	if !s.IsNil() {
		t.Fatalf("IsNil: got false, want true")
	}
	if s.IsUnique() {
		t.Fatalf("IsUnique: got true, want false")
	}
	if got := s.Refs(); got != 0 {
		t.Fatalf("Refs: got %d, want 0", got)
	}
	if got := s.WeakRefs(); got != 0 {
		t.Fatalf("WeakRefs: got %d, want 0", got)
	}
	if !s.Share().IsNil() {
		t.Fatalf("Share: got non-nil, want nil")
	}

	w, err := s.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	if !w.IsNil() {
		t.Fatalf("Weaken: got non-nil weak handle, want nil")
	}

	s.Reset()
	s.Reset()
}

// TestStrongMoveSwap tests ownership transfer without count changes.
func TestStrongMoveSwap(t *testing.T) {
	var destroyed atomix.Int32
	a := newConn(1, &destroyed)
	b := newConn(2, &destroyed)

	m := a.Move()
	if !a.IsNil() {
		t.Fatalf("Move: source must be nil")
	}
	if got := m.Refs(); got != 1 {
		t.Fatalf("Refs after Move: got %d, want 1", got)
	}

	m.Swap(&b)
	if got := m.Get().ID(); got != 2 {
		t.Fatalf("Swap: got id %d, want 2", got)
	}
	if got := b.Get().ID(); got != 1 {
		t.Fatalf("Swap: got id %d, want 1", got)
	}

	m.Reset()
	b.Reset()
	if got := destroyed.Load(); got != 2 {
		t.Fatalf("destroyed: got %d, want 2", got)
	}
}

// TestReleaseAdopt tests handing a reference out of and back into a handle.
func TestReleaseAdopt(t *testing.T) {
	var destroyed atomix.Int32
	s := newConn(7, &destroyed)

	raw := s.Release()
	if !s.IsNil() {
		t.Fatalf("Release: handle must be nil")
	}
	if got := destroyed.Load(); got != 0 {
		t.Fatalf("Release must not drop: destroyed %d", got)
	}

	a := ref.Adopt[*conn, ref.DefaultDeleter](raw)
	if got := a.Refs(); got != 1 {
		t.Fatalf("Refs after Adopt: got %d, want 1", got)
	}
	if a.Get() != raw {
		t.Fatalf("Adopt: got a different object")
	}

	a.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed: got %d, want 1", got)
	}
}

// TestShareFrom tests an object forking a handle to itself.
func TestShareFrom(t *testing.T) {
	s := newConn(3, nil)
	defer s.Reset()

	self := ref.ShareFrom[ref.DefaultDeleter](s.Get())
	if got := s.Refs(); got != 2 {
		t.Fatalf("Refs after ShareFrom: got %d, want 2", got)
	}
	if !self.Equal(s) {
		t.Fatalf("ShareFrom: got a different object")
	}
	self.Reset()
	if got := s.Refs(); got != 1 {
		t.Fatalf("Refs after reset: got %d, want 1", got)
	}
}

// TestStrongCompare tests identity ordering.
func TestStrongCompare(t *testing.T) {
	a := newConn(1, nil)
	b := newConn(2, nil)
	defer a.Reset()
	defer b.Reset()

	var none ref.Ptr[*conn]

	c := a.Share()
	defer c.Reset()
	if got := a.Compare(c); got != 0 {
		t.Fatalf("Compare(shared copy): got %d, want 0", got)
	}
	if got, rev := a.Compare(b), b.Compare(a); got == 0 || got != -rev {
		t.Fatalf("Compare: got %d and %d, want opposite non-zero", got, rev)
	}
	if got := none.Compare(a); got != -1 {
		t.Fatalf("Compare(nil, a): got %d, want -1", got)
	}
	if got := none.Compare(none); got != 0 {
		t.Fatalf("Compare(nil, nil): got %d, want 0", got)
	}
}

// =============================================================================
// Weak Handles
// =============================================================================

// TestWeakNil tests that a nil weak handle is dead and never promotes.
func TestWeakNil(t *testing.T) {
	var w ref.WeakPtr[*conn]

	if !w.IsNil() {
		t.Fatalf("IsNil: got false, want true")
	}
	if w.IsAlive() {
		t.Fatalf("IsAlive: got true, want false")
	}
	if _, ok := w.Lock(); ok {
		t.Fatalf("Lock: got true, want false")
	}
	if got := w.WeakRefs(); got != 0 {
		t.Fatalf("WeakRefs: got %d, want 0", got)
	}
	w.Reset()
}

// TestWeakLock tests promotion while the object is alive.
func TestWeakLock(t *testing.T) {
	var destroyed atomix.Int32
	s := newConn(5, &destroyed)

	w, err := s.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	defer w.Reset()

	p, ok := w.Lock()
	if !ok {
		t.Fatalf("Lock: got false, want true")
	}
	if got := s.Refs(); got != 2 {
		t.Fatalf("Refs after Lock: got %d, want 2", got)
	}
	if !p.Equal(s) {
		t.Fatalf("Lock: got a different object")
	}

	// The promoted handle keeps the object alive on its own
	s.Reset()
	if got := destroyed.Load(); got != 0 {
		t.Fatalf("destroyed while promoted handle held: got %d, want 0", got)
	}
	if got := p.Get().ID(); got != 5 {
		t.Fatalf("ID: got %d, want 5", got)
	}

	p.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed: got %d, want 1", got)
	}
	if w.IsAlive() {
		t.Fatalf("IsAlive after destruction: got true, want false")
	}
}

// TestWeakSharedView tests that every weak handle of an object shares one view.
func TestWeakSharedView(t *testing.T) {
	s := newConn(1, nil)

	w1, err := s.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	w2, err := s.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	w3 := w1.Share()

	if !w1.Equal(w2) || !w1.Equal(w3) {
		t.Fatalf("weak handles of one object must share one view")
	}
	if got := s.WeakRefs(); got != 3 {
		t.Fatalf("Strong.WeakRefs: got %d, want 3", got)
	}
	if got := w1.WeakRefs(); got != 3 {
		t.Fatalf("Weak.WeakRefs: got %d, want 3", got)
	}

	w3.Reset()
	if got := s.WeakRefs(); got != 2 {
		t.Fatalf("WeakRefs after reset: got %d, want 2", got)
	}

	// Still the same view after the object is gone
	s.Reset()
	if !w1.Equal(w2) {
		t.Fatalf("weak handles must stay equal after destruction")
	}
	if got := w1.WeakRefs(); got != 2 {
		t.Fatalf("WeakRefs after destruction: got %d, want 2", got)
	}
	w1.Reset()
	w2.Reset()
}

// TestWeakenFrom tests an object handing out a weak handle to itself.
func TestWeakenFrom(t *testing.T) {
	var destroyed atomix.Int32
	s := newConn(4, &destroyed)

	w, err := ref.WeakenFrom[ref.DefaultDeleter](s.Get())
	if err != nil {
		t.Fatalf("WeakenFrom: %v", err)
	}
	defer w.Reset()

	if got := s.Refs(); got != 1 {
		t.Fatalf("Refs after WeakenFrom: got %d, want 1", got)
	}
	if got := s.WeakRefs(); got != 1 {
		t.Fatalf("WeakRefs after WeakenFrom: got %d, want 1", got)
	}
	other, _ := s.Weaken()
	if !other.Equal(w) {
		t.Fatalf("WeakenFrom: got a second view")
	}
	other.Reset()

	s.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed: got %d, want 1", got)
	}
	if _, ok := w.Lock(); ok {
		t.Fatalf("Lock after destruction: got true, want false")
	}
}

// TestWeakRefsAfterDetach tests that the owner's unit stops being
// subtracted once the object is gone.
func TestWeakRefsAfterDetach(t *testing.T) {
	s := newConn(1, nil)
	w, _ := s.Weaken()
	defer w.Reset()

	if got := w.WeakRefs(); got != 1 {
		t.Fatalf("WeakRefs while alive: got %d, want 1", got)
	}
	s.Reset()
	if got := w.WeakRefs(); got != 1 {
		t.Fatalf("WeakRefs after destruction: got %d, want 1", got)
	}
}

// TestWeakMoveSwap tests weak ownership transfer.
func TestWeakMoveSwap(t *testing.T) {
	a := newConn(1, nil)
	b := newConn(2, nil)
	defer a.Reset()
	defer b.Reset()

	wa, _ := a.Weaken()
	wb, _ := b.Weaken()

	m := wa.Move()
	if !wa.IsNil() {
		t.Fatalf("Move: source must be nil")
	}
	m.Swap(&wb)

	pa, ok := wb.Lock()
	if !ok || pa.Get().ID() != 1 {
		t.Fatalf("Swap: weak handle does not observe object 1")
	}
	pa.Reset()
	if m.Compare(wb) == 0 {
		t.Fatalf("Compare: distinct views compare equal")
	}

	m.Reset()
	wb.Reset()
	if got := a.WeakRefs(); got != 0 {
		t.Fatalf("WeakRefs: got %d, want 0", got)
	}
}

// =============================================================================
// Destruction Policy
// =============================================================================

// buffer runs inspect from inside its deleter.
type buffer struct {
	ref.Base
	inspect func()
	deleted *atomix.Int32
}

type inspectDeleter struct{}

func (inspectDeleter) Delete(obj ref.Ownable) {
	b := obj.(*buffer)
	if b.inspect != nil {
		b.inspect()
	}
	b.deleted.Add(1)
}

// TestDeleterPolicy tests that a custom deleter runs once, after the weak
// view is detached.
func TestDeleterPolicy(t *testing.T) {
	var deleted atomix.Int32
	s := ref.MakeOwnedWith[inspectDeleter](func(b *buffer) { b.deleted = &deleted })

	w, err := s.Weaken()
	if err != nil {
		t.Fatalf("Weaken: %v", err)
	}
	defer w.Reset()

	var sawAlive, locked bool
	s.Get().inspect = func() {
		sawAlive = w.IsAlive()
		if p, ok := w.Lock(); ok {
			locked = true
			p.Release()
		}
	}

	s.Reset()

	if got := deleted.Load(); got != 1 {
		t.Fatalf("deleted: got %d, want 1", got)
	}
	if sawAlive {
		t.Fatalf("deleter saw a live weak view")
	}
	if locked {
		t.Fatalf("deleter promoted a weak handle of a dying object")
	}
	if _, ok := w.Lock(); ok {
		t.Fatalf("Lock after deletion: got true, want false")
	}
}

// TestDefaultDeleterWithoutDestroyer tests objects with no Destroy hook.
func TestDefaultDeleterWithoutDestroyer(t *testing.T) {
	s := ref.MakeOwned[plain](nil)
	w, _ := s.Weaken()

	s.Reset()
	if w.IsAlive() {
		t.Fatalf("IsAlive: got true, want false")
	}
	w.Reset()
}

// =============================================================================
// Unique Handles
// =============================================================================

// TestUniqueToStrong tests converting a sole owner into shared ownership.
func TestUniqueToStrong(t *testing.T) {
	var destroyed atomix.Int32
	u := ref.MakeUnique(func(c *conn) { c.id = 9; c.destroyed = &destroyed })

	if u.IsNil() {
		t.Fatalf("MakeUnique: got nil handle")
	}
	obj := u.Get()

	s := ref.FromUnique(&u)
	if !u.IsNil() {
		t.Fatalf("FromUnique: unique handle must be nil")
	}
	if got := s.Refs(); got != 1 {
		t.Fatalf("Refs after FromUnique: got %d, want 1", got)
	}
	if s.Get() != obj {
		t.Fatalf("FromUnique: got a different object")
	}

	s.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed: got %d, want 1", got)
	}
}

// TestUniqueReset tests that resetting a sole owner destroys the object.
func TestUniqueReset(t *testing.T) {
	var destroyed atomix.Int32
	u := ref.MakeUnique(func(c *conn) { c.destroyed = &destroyed })

	m := u.Move()
	if !u.IsNil() {
		t.Fatalf("Move: source must be nil")
	}
	u.Reset()
	if got := destroyed.Load(); got != 0 {
		t.Fatalf("Reset of moved-from handle destroyed the object")
	}

	m.Reset()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed: got %d, want 1", got)
	}
}

// TestUniqueReleaseAdopt tests round-tripping the single reference.
func TestUniqueReleaseAdopt(t *testing.T) {
	u := ref.MakeUnique(func(c *conn) { c.id = 4 })
	raw := u.Release()

	v := ref.AdoptUnique[*conn, ref.DefaultDeleter](raw)
	if got := v.Get().ID(); got != 4 {
		t.Fatalf("ID: got %d, want 4", got)
	}
	v.Reset()
	if !raw.dead.Load() {
		t.Fatalf("Reset: object not destroyed")
	}
}
