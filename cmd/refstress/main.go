// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command refstress hammers package ref with racing owners and reports any
// broken ownership invariant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"code.hybscloud.com/ref/cmd/refstress/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := app.NewRefStressCommand(ctx)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
