// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/sensors/am2320"
)

// The sensor only refreshes its registers every 2 seconds.
const minInterval = 2 * time.Second

type reader interface {
	Read() (am2320.Measurement, error)
}

// poll reads r immediately and then every interval until ctx is done. Every
// outcome, including failures, is passed to fn. Failed readings are not
// retried before the next tick.
func poll(ctx context.Context, r reader, interval time.Duration, fn func(am2320.Measurement, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m, err := r.Read()
		if err != nil {
			slog.Warn("reading failed", "kind", errorKind(err), "err", err)
		} else {
			slog.Debug("reading", "temperature", m.Temperature, "humidity", m.Humidity)
		}
		fn(m, err)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// errorKind classifies a Read error for logs and metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, am2320.ErrWrite):
		return "write"
	case errors.Is(err, am2320.ErrRead):
		return "read"
	case errors.Is(err, am2320.ErrProtocol):
		return "protocol"
	default:
		return "other"
	}
}

func checkInterval(interval time.Duration) error {
	if interval < minInterval {
		return errors.New("interval must be at least " + minInterval.String())
	}
	return nil
}
