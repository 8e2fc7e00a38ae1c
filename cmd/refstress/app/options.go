// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"code.hybscloud.com/ref"
	"code.hybscloud.com/ref/internal/stress"
)

type options struct {
	log logr.Logger
	out io.Writer

	scenario     string
	goroutines   int
	rounds       int
	viewCapacity int
	viewLimit    int
	logFormat    string
	verbosity    int

	scenarios []stress.Scenario
}

// NewOptions returns options with their defaults.
func NewOptions() *options {
	return &options{out: os.Stderr}
}

func (o *options) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.scenario, "scenario", "all", "Scenario to run: drop, weaken, promote or all")
	fs.IntVar(&o.goroutines, "goroutines", 2*runtime.GOMAXPROCS(0), "Racing goroutines per round")
	fs.IntVar(&o.rounds, "rounds", 10000, "Rounds per scenario")
	fs.IntVar(&o.viewCapacity, "view-capacity", ref.DefaultViewCapacity, "Free-list capacity of the weak view allocator")
	fs.IntVar(&o.viewLimit, "view-limit", 0, "Maximum live weak views, 0 for no limit")
	fs.StringVar(&o.logFormat, "log-format", "text", "Log format: text, json or console")
	fs.IntVar(&o.verbosity, "v", 0, "Log verbosity; 1 logs progress and allocator counters")
}

// Complete parses all options and flags and initializes the logger.
func (o *options) Complete() error {
	if err := o.validate(); err != nil {
		return err
	}

	if o.scenario == "all" {
		o.scenarios = stress.Scenarios
	} else {
		o.scenarios = []stress.Scenario{stress.Scenario(o.scenario)}
	}

	o.log = newLogger(o.out, o.logFormat, o.verbosity)
	return nil
}

var consoleEncoderConfig = zapcore.EncoderConfig{
	LevelKey:       "level",
	NameKey:        "logger",
	MessageKey:     "msg",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
}

// newLogger returns a logger writing to w. Verbosity v enables V(1..v).
// text and json log through log/slog, console through zap.
func newLogger(w io.Writer, format string, v int) logr.Logger {
	switch format {
	case "console":
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig),
			zapcore.AddSync(w),
			zap.NewAtomicLevelAt(zapcore.Level(-v)),
		)
		return zapr.NewLogger(zap.New(core))
	case "json":
		return logr.FromSlogHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(-v)}))
	default:
		return logr.FromSlogHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(-v)}))
	}
}

// validates the options
func (o *options) validate() error {
	switch o.scenario {
	case "all", string(stress.Drop), string(stress.Weaken), string(stress.Promote):
	default:
		return fmt.Errorf("unknown scenario %q", o.scenario)
	}
	switch o.logFormat {
	case "text", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", o.logFormat)
	}
	if o.verbosity < 0 {
		return fmt.Errorf("verbosity must be >= 0, got %d", o.verbosity)
	}
	if o.goroutines < 2 {
		return fmt.Errorf("goroutines must be >= 2, got %d", o.goroutines)
	}
	if o.rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", o.rounds)
	}
	if o.viewCapacity < 2 {
		return fmt.Errorf("view capacity must be >= 2, got %d", o.viewCapacity)
	}
	if o.viewLimit < 0 {
		return fmt.Errorf("view limit must be >= 0, got %d", o.viewLimit)
	}
	return nil
}
