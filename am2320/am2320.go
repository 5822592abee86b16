// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package am2320 provides a driver for the AOSONG AM2320 Temperature/Humidity
// Sensor. This sensor is a basic, inexpensive i2c sensor with reasonably good
// accuracy for both temperature and humidity.
//
// The sensor spends most of its time asleep to avoid self-heating. Every read
// wakes it up, sends a Modbus style "read registers" command and validates the
// CRC16 of the response, so a single Read() takes about 3ms.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/product-files/3721/AM2320.pdf
package am2320

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/sensors/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/cpu"
)

// The address of this device is fixed. Note that the datasheet states the
// value is 0xb8, which is the 8-bit form of the same address.
const SensorAddress uint16 = 0x5c

const (
	// Modbus style "read holding registers" function code.
	cmdReadRegisters byte = 0x03
	// Humidity is at 0x00-0x01, temperature at 0x02-0x03.
	humidityRegisters byte = 0x00
	registerCount     byte = 0x04

	// {function, count, rh hi, rh lo, t hi, t lo, crc lo, crc hi}
	frameSize = 8

	// The sensor needs at least 800µs, at most 3ms, to wake up.
	wakeDelay = 900
	// At least 1.5ms before the result can be read.
	measureDelay = 1600

	temperatureSign byte = 0x80
)

var (
	// ErrWrite is returned when the read command could not be written to the
	// sensor.
	ErrWrite = errors.New("am2320: write failed")
	// ErrRead is returned when the response could not be read from the
	// sensor.
	ErrRead = errors.New("am2320: read failed")
	// ErrProtocol is returned when the sensor answered with an unexpected
	// header or a frame whose CRC doesn't match.
	ErrProtocol = errors.New("am2320: invalid response from sensor")
)

// Delayer blocks the caller for at least the requested number of
// microseconds.
type Delayer interface {
	DelayMicroseconds(us uint32)
}

// DelayFunc adapts a function to the Delayer interface.
type DelayFunc func(us uint32)

// DelayMicroseconds implements Delayer.
func (f DelayFunc) DelayMicroseconds(us uint32) {
	f(us)
}

// SpinDelay implements Delayer by busy looping on the CPU. It is the default
// used when no Delayer is supplied to New.
type SpinDelay struct{}

// DelayMicroseconds implements Delayer.
func (SpinDelay) DelayMicroseconds(us uint32) {
	cpu.Nanospin(time.Duration(us) * time.Microsecond)
}

// Measurement is a single reading from the sensor.
type Measurement struct {
	// Temperature in degrees Celsius, with a 0.1°C resolution.
	Temperature float32
	// Relative humidity in percent, with a 0.1% resolution.
	Humidity float32
}

func (m Measurement) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%RH", m.Temperature, m.Humidity)
}

// Dev represents an am2320 temperature/humidity sensor.
type Dev struct {
	d        *i2c.Dev
	delay    Delayer
	mu       sync.Mutex
	shutdown chan struct{}
}

// New returns a Dev that talks to the sensor on bus b. If delay is nil,
// SpinDelay is used.
func New(b i2c.Bus, delay Delayer) *Dev {
	if delay == nil {
		delay = SpinDelay{}
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: SensorAddress}, delay: delay}
}

// Read performs one complete wake, command and read cycle and returns the
// decoded measurement.
//
// The operation blocks for about 3ms. It is never retried, so on error it is
// up to the caller to decide when to try again. The sensor refreshes its
// values every 2 seconds.
func (dev *Dev) Read() (Measurement, error) {
	rh, t, err := dev.readRaw()
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		Temperature: float32(t) / 10,
		Humidity:    float32(rh) / 10,
	}, nil
}

// readRaw returns the humidity in 0.1%RH and the temperature in 0.1°C as
// transmitted by the sensor.
func (dev *Dev) readRaw() (uint16, int16, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	// The sensor sleeps between reads to avoid self heating and won't ACK
	// this write. The only purpose is to wake it up, so the result is
	// ignored.
	_ = dev.d.Tx([]byte{0x00}, nil)
	dev.delay.DelayMicroseconds(wakeDelay)

	if err := dev.d.Tx([]byte{cmdReadRegisters, humidityRegisters, registerCount}, nil); err != nil {
		return 0, 0, ErrWrite
	}
	dev.delay.DelayMicroseconds(measureDelay)

	var r [frameSize]byte
	if err := dev.d.Tx(nil, r[:]); err != nil {
		return 0, 0, ErrRead
	}
	return decode(&r)
}

// decode validates a response frame and extracts the raw values.
func decode(r *[frameSize]byte) (uint16, int16, error) {
	if r[0] != cmdReadRegisters || r[1] != registerCount {
		return 0, 0, ErrProtocol
	}
	if common.CRC16(r[:6]) != uint16(r[6])|uint16(r[7])<<8 {
		return 0, 0, ErrProtocol
	}
	rh := uint16(r[2])<<8 | uint16(r[3])
	// Temperature is sign and magnitude, not two's complement.
	t := int16(r[4]&^temperatureSign)<<8 | int16(r[5])
	if r[4]&temperatureSign != 0 {
		t = -t
	}
	return rh, t, nil
}

// Sense queries the sensor for the current temperature and humidity. Pressure
// is not measured and is always set to 0.
func (dev *Dev) Sense(env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0

	rh, t, err := dev.readRaw()
	if err != nil {
		return err
	}
	env.Humidity = physic.RelativeHumidity(rh) * physic.MilliRH
	env.Temperature = physic.ZeroCelsius + physic.Temperature(t)*(physic.Celsius/10)
	return nil
}

// SenseContinuous returns a channel that receives a reading every interval.
// Failed readings are skipped. The sensor doesn't produce new values more
// than once every 2 seconds, so shorter intervals return repeated values. To
// end the read, call Halt().
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval <= 0 {
		return nil, errors.New("am2320: invalid duration")
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("am2320: sense continuous already running")
	}

	shutdown := make(chan struct{})
	dev.shutdown = shutdown
	ch := make(chan physic.Env, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := dev.Sense(&e); err != nil {
					continue
				}
				select {
				case ch <- e:
				case <-shutdown:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Halt interrupts a running SenseContinuous() operation.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	return nil
}

// Precision returns the resolution of the device for its measured parameters.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Celsius / 10
	env.Pressure = 0
	env.Humidity = physic.MilliRH
}

func (dev *Dev) String() string {
	return fmt.Sprintf("am2320: %s", dev.d)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
