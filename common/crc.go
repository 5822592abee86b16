// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC16 calculation used to validate sensor frames.
package common

// CRC16 calculates the reflected 16-bit CRC (polynomial 0xa001, initial value
// 0xffff) of the byte slice parameter and returns the calculated value. This
// is the Modbus style CRC used by AOSONG sensors such as the AM2320. The
// result is transmitted low byte first.
//
// An empty slice returns 0xffff.
func CRC16(bytes []byte) uint16 {
	crc := uint16(0xffff)
	for _, val := range bytes {
		crc ^= uint16(val)
		for range 8 {
			if (crc & 0x01) == 0x01 {
				crc = (crc >> 1) ^ 0xa001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
