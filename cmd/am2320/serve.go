// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/GermanBionicSystems/sensors/am2320"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// exporter holds the Prometheus metrics fed by the poll loop.
type exporter struct {
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	errors      *prometheus.CounterVec
}

func newExporter(reg prometheus.Registerer) *exporter {
	e := &exporter{
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "am2320_temperature_celsius",
			Help: "Air temperature (units: degrees Celsius)",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "am2320_humidity_percent",
			Help: "Relative humidity (units: %)",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "am2320_read_errors_total",
			Help: "Failed sensor reads by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(e.temperature, e.humidity, e.errors)
	return e
}

// observe records one poll outcome. On failure the gauges keep their last
// value.
func (e *exporter) observe(m am2320.Measurement, err error) {
	if err != nil {
		e.errors.WithLabelValues(errorKind(err)).Inc()
		return
	}
	e.temperature.Set(float64(m.Temperature))
	e.humidity.Set(float64(m.Humidity))
}

func newServeCmd(o *options) *cobra.Command {
	var (
		interval time.Duration
		listen   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Export readings as Prometheus metrics",
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

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewBuildInfoCollector())
			e := newExporter(reg)

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
				EnableOpenMetrics: true,
			}))
			srv := &http.Server{Addr: listen, Handler: mux}

			ctx, cancel := context.WithCancel(cmd.Context())
			polled := make(chan struct{})
			go func() {
				defer close(polled)
				poll(ctx, dev, interval, e.observe)
			}()
			defer func() {
				cancel()
				<-polled
			}()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			slog.Info("serving metrics", "addr", listen, "interval", interval)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between sensor reads")
	cmd.Flags().StringVar(&listen, "listen", ":9320", "the address to listen on for HTTP requests")
	return cmd
}
