// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stress

import (
	"context"
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/ref"
	"golang.org/x/sync/errgroup"
)

// object is the managed type every scenario shares.
type object struct {
	ref.Base
	destroyed *atomix.Int64
	dead      atomix.Bool
}

func (o *object) Destroy() {
	o.dead.StoreRelease(true)
	o.destroyed.Add(1)
}

func newObject(destroyed *atomix.Int64) ref.Ptr[*object] {
	return ref.MakeOwned(func(o *object) { o.destroyed = destroyed })
}

// await blocks until the round's start flag is raised, so workers hit the
// contended operation together. It returns early once ctx is done; the
// caller still gives back whatever units it holds.
func await(ctx context.Context, start *atomix.Bool) {
	bo := iox.Backoff{}
	for !start.LoadAcquire() {
		if ctx.Err() != nil {
			return
		}
		bo.Wait()
	}
}

// dropRound hands one strong unit to every worker and lets them race the
// last drop. A bare RefCount carrying the same number of units is dropped
// alongside to check that exactly one DropRef reports the zero-transition.
func dropRound(ctx context.Context, rep *Report, workers int) error {
	var destroyed, winners atomix.Int64
	var start atomix.Bool
	var rc ref.RefCount
	for range workers - 1 {
		rc.AddRef()
	}

	root := newObject(&destroyed)
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		h := root.Share()
		g.Go(func() error {
			await(gctx, &start)
			if rc.DropRef() {
				winners.Add(1)
			}
			h.Reset()
			return nil
		})
	}
	root.Reset()
	start.StoreRelease(true)
	_ = g.Wait()

	rep.Destroyed += destroyed.Load()
	if n := destroyed.Load(); n != 1 {
		return fmt.Errorf("%w: destroyed %d times", ErrViolation, n)
	}
	if n := winners.Load(); n != 1 {
		return fmt.Errorf("%w: %d drops reported the zero-transition", ErrViolation, n)
	}
	return nil
}

// weakenRound lets every worker weaken the same fresh object at once.
// All of them must end up sharing one view.
func weakenRound(ctx context.Context, rep *Report, workers int) error {
	var destroyed, limited atomix.Int64
	var start atomix.Bool

	root := newObject(&destroyed)
	weaks := make([]ref.WeakPtr[*object], workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		h := root.Share()
		g.Go(func() error {
			defer h.Reset()
			await(gctx, &start)
			w, err := h.Weaken()
			if errors.Is(err, ref.ErrViewLimit) {
				limited.Add(1)
				return nil
			}
			if err != nil {
				return err
			}
			weaks[i] = w
			return nil
		})
	}
	start.StoreRelease(true)
	err := g.Wait()

	var first ref.WeakPtr[*object]
	var holders uint64
	for i := range weaks {
		if weaks[i].IsNil() {
			continue
		}
		holders++
		if first.IsNil() {
			first = weaks[i]
		} else if !weaks[i].Equal(first) && err == nil {
			err = fmt.Errorf("%w: worker %d weakened into a second view", ErrViolation, i)
		}
	}
	if got := root.WeakRefs(); got != holders && err == nil {
		err = fmt.Errorf("%w: weak count %d, want %d", ErrViolation, got, holders)
	}

	root.Reset()
	for i := range weaks {
		weaks[i].Reset()
	}

	rep.Limited += limited.Load()
	rep.Destroyed += destroyed.Load()
	if err == nil && destroyed.Load() != 1 {
		err = fmt.Errorf("%w: destroyed %d times", ErrViolation, destroyed.Load())
	}
	return err
}

// promoteRound races half the workers promoting a weak handle against the
// other half dropping the object's strong units. A promotion must never
// yield a destroyed object, and none may succeed once it is gone.
func promoteRound(ctx context.Context, rep *Report, workers int) error {
	var destroyed, promoted, failed atomix.Int64
	var start atomix.Bool

	root := newObject(&destroyed)
	w, err := root.Weaken()
	if errors.Is(err, ref.ErrViewLimit) {
		rep.Limited++
		root.Reset()
		rep.Destroyed += destroyed.Load()
		return nil
	}
	if err != nil {
		root.Reset()
		return err
	}
	defer w.Reset()

	droppers := workers / 2
	lockers := workers - droppers

	g, gctx := errgroup.WithContext(ctx)
	for range droppers {
		h := root.Share()
		g.Go(func() error {
			await(gctx, &start)
			h.Reset()
			return nil
		})
	}
	for range lockers {
		lw := w.Share()
		g.Go(func() error {
			defer lw.Reset()
			await(gctx, &start)
			for {
				s, ok := lw.Lock()
				if !ok {
					failed.Add(1)
					return nil
				}
				promoted.Add(1)
				if s.Get().dead.LoadAcquire() {
					s.Release()
					return fmt.Errorf("%w: promoted a destroyed object", ErrViolation)
				}
				s.Reset()
			}
		})
	}
	root.Reset()
	start.StoreRelease(true)
	err = g.Wait()

	rep.Promotions += promoted.Load()
	rep.Failed += failed.Load()
	rep.Destroyed += destroyed.Load()

	if err != nil {
		return err
	}
	if n := destroyed.Load(); n != 1 {
		return fmt.Errorf("%w: destroyed %d times", ErrViolation, n)
	}
	if _, ok := w.Lock(); ok {
		return fmt.Errorf("%w: promotion succeeded after destruction", ErrViolation)
	}
	return nil
}
