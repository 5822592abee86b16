// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// am2320 reads an AM2320 temperature/humidity sensor.
//
// It can print a single reading, draw a live gauge on the terminal or export
// readings as Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/sensors/am2320"
	chlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type options struct {
	bus     string
	verbose bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("am2320 failed", "err", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "am2320",
		Short:         "AM2320 temperature/humidity sensor tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), o.verbose))
		},
	}
	root.PersistentFlags().StringVar(&o.bus, "bus", "", "I²C bus name or number, empty for the first one available")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newReadCmd(o), newWatchCmd(o), newServeCmd(o))
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	charm := chlog.NewWithOptions(w, chlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "am2320",
	})
	charm.SetLevel(chlog.InfoLevel)
	if verbose {
		charm.SetLevel(chlog.DebugLevel)
	}
	return slog.New(charm)
}

// openSensor initializes the host and returns the sensor along with the bus
// that must be closed once done.
func openSensor(o *options) (*am2320.Dev, io.Closer, error) {
	state, err := host.Init()
	if err != nil {
		return nil, nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(o.bus)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open i2c bus %q: %w", o.bus, err)
	}
	dev := am2320.New(bus, nil)
	slog.Debug("sensor opened", "dev", dev.String())
	return dev, bus, nil
}
