// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/sensors/am2320"
	"github.com/GermanBionicSystems/sensors/meter"
	"github.com/spf13/cobra"
)

func newWatchCmd(o *options) *cobra.Command {
	var (
		interval time.Duration
		width    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Draw a live gauge of the readings on the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInterval(interval); err != nil {
				return err
			}
			dev, bus, err := openSensor(o)
			if err != nil {
				return err
			}
			defer bus.Close()

			m := meter.New(&meter.Opts{Width: width})
			defer m.Halt()
			poll(cmd.Context(), dev, interval, func(v am2320.Measurement, err error) {
				if err != nil {
					return
				}
				if err := m.Draw(v); err != nil {
					slog.Error("draw failed", "err", err)
				}
			})
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "time between readings")
	cmd.Flags().IntVar(&width, "width", 20, "width of each bar")
	return cmd
}
