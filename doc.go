// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensors is a container for the AM2320 temperature/humidity driver
// and the tools built around it.
//
// The driver lives in am2320, the CRC it relies on in common, a terminal
// renderer in meter and the command line tool in cmd/am2320.
package sensors
