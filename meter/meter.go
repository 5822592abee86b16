// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package meter renders AM2320 measurements as a pair of bar graphs on a
// terminal using ANSI color codes.
//
// Each call to Draw rewrites the current line, so a stream of readings looks
// like a live gauge.
package meter

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/GermanBionicSystems/sensors/am2320"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
)

// Scale of the bars. The AM2320 operating range.
const (
	minTemperature = -40
	maxTemperature = 80
	minHumidity    = 0
	maxHumidity    = 100
)

var (
	cold  = color.NRGBA{0x00, 0x40, 0xff, 0xff}
	hot   = color.NRGBA{0xff, 0x20, 0x00, 0xff}
	dry   = color.NRGBA{0xa0, 0x60, 0x20, 0xff}
	wet   = color.NRGBA{0x20, 0x60, 0xff, 0xff}
	empty = color.NRGBA{0x28, 0x28, 0x28, 0xff}
)

// Opts represents the options available for the meter.
type Opts struct {
	// W defaults to stdout.
	W io.Writer
	// Width is the number of cells of each bar. Defaults to 20.
	Width   int
	Palette *ansi256.Palette

	_ struct{}
}

// Meter draws measurements to a terminal.
type Meter struct {
	w       io.Writer
	width   int
	palette ansi256.Palette

	buf bytes.Buffer
}

// New returns a Meter that displays at the console.
func New(opts *Opts) *Meter {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 20
	}
	return &Meter{w: w, width: width, palette: *p}
}

func (m *Meter) String() string {
	return "Meter"
}

// Halt implements conn.Resource.
//
// It ends the line and resets the colors so the terminal is not corrupted.
func (m *Meter) Halt() error {
	_, err := m.w.Write([]byte("\n\033[0m"))
	return err
}

// Draw overwrites the current line with the measurement.
func (m *Meter) Draw(v am2320.Measurement) error {
	m.buf.Reset()
	_, _ = m.buf.WriteString("\r\033[0m")
	m.bar(fraction(float64(v.Temperature), minTemperature, maxTemperature), cold, hot)
	_, _ = m.buf.WriteString("\033[0m ")
	m.bar(fraction(float64(v.Humidity), minHumidity, maxHumidity), dry, wet)
	_, _ = fmt.Fprintf(&m.buf, "\033[0m %5.1f°C %5.1f%%RH", v.Temperature, v.Humidity)
	_, err := m.buf.WriteTo(m.w)
	return err
}

// bar appends width cells to the buffer. The first f*width cells are filled
// with a gradient from c0 to c1, the rest are empty.
func (m *Meter) bar(f float64, c0, c1 color.NRGBA) {
	filled := int(math.Round(f * float64(m.width)))
	for i := range m.width {
		c := empty
		if i < filled {
			c = lerp(c0, c1, float64(i)/float64(max(m.width-1, 1)))
		}
		_, _ = io.WriteString(&m.buf, m.palette.Block(c))
	}
}

// fraction returns where v sits between lo and hi, clamped to [0, 1].
func fraction(v, lo, hi float64) float64 {
	f := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, f))
}

func lerp(c0, c1 color.NRGBA, f float64) color.NRGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
	}
	return color.NRGBA{mix(c0.R, c1.R), mix(c0.G, c1.G), mix(c0.B, c1.B), 0xff}
}

var _ conn.Resource = &Meter{}
var _ fmt.Stringer = &Meter{}
