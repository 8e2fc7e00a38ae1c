// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"code.hybscloud.com/ref/internal/stress"
)

// NewRefStressCommand returns the refstress root command.
func NewRefStressCommand(ctx context.Context) *cobra.Command {
	options := NewOptions()

	cmd := &cobra.Command{
		Use:   "refstress",
		Short: "Stress intrusive reference counting and weak promotion",
		Long: `refstress races goroutines over shared objects and checks, round by
round, that every object is destroyed exactly once, that weakening converges
on one view, and that no weak promotion ever yields a destroyed object.`,
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			options.out = cmd.ErrOrStderr()
			if err := options.Complete(); err != nil {
				return err
			}
			return options.run(ctx)
		},
	}

	options.AddFlags(cmd.Flags())

	return cmd
}

func (o *options) run(ctx context.Context) error {
	var failed []stress.Scenario
	for _, sc := range o.scenarios {
		cfg := stress.Config{
			Scenario:     sc,
			Goroutines:   o.goroutines,
			Rounds:       o.rounds,
			ViewCapacity: o.viewCapacity,
			ViewLimit:    o.viewLimit,
		}
		rep, err := stress.Run(ctx, cfg, o.log)
		if errors.Is(err, stress.ErrViolation) {
			failed = append(failed, sc)
			continue
		}
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc, err)
		}
		o.log.V(1).Info("views", "scenario", sc,
			"fresh", rep.Views.Fresh, "reused", rep.Views.Reused,
			"recycled", rep.Views.Recycled, "discarded", rep.Views.Discarded,
			"rejected", rep.Views.Rejected)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w in %v", stress.ErrViolation, failed)
	}
	o.log.Info("all scenarios passed", "scenarios", o.scenarios)
	return nil
}
