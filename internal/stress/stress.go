// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stress drives concurrent ownership scenarios against package ref
// and checks their invariants round by round.
package stress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/ref"
	"github.com/go-logr/logr"
)

// Scenario names one stress workload.
type Scenario string

const (
	// Drop races the last strong drops of one object.
	Drop Scenario = "drop"
	// Weaken races the first weakening of one object.
	Weaken Scenario = "weaken"
	// Promote races weak promotion against destruction.
	Promote Scenario = "promote"
)

// Scenarios lists every scenario in the order "all" runs them.
var Scenarios = []Scenario{Drop, Weaken, Promote}

// ErrViolation is returned by [Run] when a round broke an invariant.
var ErrViolation = errors.New("stress: invariant violated")

// Config selects and sizes a run.
type Config struct {
	Scenario     Scenario
	Goroutines   int // workers per round
	Rounds       int
	ViewCapacity int // free-list capacity of the run's allocator
	ViewLimit    int // live-view limit, 0 for none
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Scenario {
	case Drop, Weaken, Promote:
	default:
		return fmt.Errorf("stress: unknown scenario %q", c.Scenario)
	}
	if c.Goroutines < 2 {
		return fmt.Errorf("stress: goroutines must be >= 2, got %d", c.Goroutines)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("stress: rounds must be >= 1, got %d", c.Rounds)
	}
	if c.ViewCapacity < 2 {
		return fmt.Errorf("stress: view capacity must be >= 2, got %d", c.ViewCapacity)
	}
	if c.ViewLimit < 0 {
		return fmt.Errorf("stress: view limit must be >= 0, got %d", c.ViewLimit)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Scenario   Scenario
	Rounds     int   // rounds completed
	Destroyed  int64 // objects destroyed
	Promotions int64 // successful weak promotions
	Failed     int64 // failed weak promotions
	Limited    int64 // Weaken calls refused with ErrViewLimit
	Violations int64
	Views      ref.Stats
	Elapsed    time.Duration
}

// progressEvery is how many rounds pass between progress log lines.
const progressEvery = 1000

// Run executes cfg.Rounds rounds of cfg.Scenario.
//
// The run installs its own view allocator for its duration, so it must not
// overlap with other code that calls [ref.SetAllocator].
// Returns early with ctx's error when ctx is cancelled, and ErrViolation
// when any round broke an invariant. The report is valid in both cases.
func Run(ctx context.Context, cfg Config, log logr.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	alloc := ref.Views(cfg.ViewCapacity).Limit(cfg.ViewLimit).Build()
	prev := ref.SetAllocator(alloc)
	defer ref.SetAllocator(prev)

	log = log.WithValues("scenario", cfg.Scenario)
	log.Info("starting", "goroutines", cfg.Goroutines, "rounds", cfg.Rounds,
		"viewCapacity", alloc.Cap(), "viewLimit", cfg.ViewLimit)

	var round func(context.Context, *Report, int) error
	switch cfg.Scenario {
	case Drop:
		round = dropRound
	case Weaken:
		round = weakenRound
	case Promote:
		round = promoteRound
	}

	rep := Report{Scenario: cfg.Scenario}
	start := time.Now()
	var err error
	for r := range cfg.Rounds {
		if err = ctx.Err(); err != nil {
			break
		}
		if rerr := round(ctx, &rep, cfg.Goroutines); rerr != nil {
			rep.Violations++
			log.Error(rerr, "round failed", "round", r)
		}
		rep.Rounds++
		if rep.Rounds%progressEvery == 0 {
			log.V(1).Info("progress", "rounds", rep.Rounds, "violations", rep.Violations)
		}
	}
	rep.Elapsed = time.Since(start)
	rep.Views = alloc.Stats()

	if rep.Views.Live != 0 {
		rep.Violations++
		log.Error(ErrViolation, "views leaked", "live", rep.Views.Live)
	}

	log.Info("finished", "rounds", rep.Rounds, "destroyed", rep.Destroyed,
		"promotions", rep.Promotions, "failed", rep.Failed, "limited", rep.Limited,
		"violations", rep.Violations, "elapsed", rep.Elapsed)

	if err != nil {
		return rep, err
	}
	if rep.Violations > 0 {
		return rep, fmt.Errorf("%w: %d violations in %d rounds", ErrViolation, rep.Violations, rep.Rounds)
	}
	return rep, nil
}
