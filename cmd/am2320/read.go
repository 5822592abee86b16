// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newReadCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Take a single reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, bus, err := openSensor(o)
			if err != nil {
				return err
			}
			defer bus.Close()

			m, err := dev.Read()
			if err != nil {
				return fmt.Errorf("read failed: %w", err)
			}
			slog.Debug("reading", "temperature", m.Temperature, "humidity", m.Humidity)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m)
			return err
		},
	}
}
