// go-regbridge
// Copyright (c) 2025 The go-regbridge Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-regbridge.
//
// go-regbridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-regbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-regbridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package serialline provides the line-oriented serial plumbing shared by the
// bridge transports: opening ports at the bridge settings, reading reply
// lines under a read timeout, and probing candidate ports for a device.
package serialline

import (
	"fmt"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"go.bug.st/serial"
)

const (
	// BaudRate is the line rate of every supported bridge.
	BaudRate = 115200

	// ReadTimeout bounds every read from the bridge.
	ReadTimeout = time.Second
)

// Open opens name at 115200 8N1 with a 1s read timeout.
func Open(name string) (regbridge.SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return port, nil
}

var _ regbridge.SerialOpener = Open
