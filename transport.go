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

package regbridge

import (
	"io"
	"time"
)

// SerialPort is the subset of go.bug.st/serial.Port the bridges use.
type SerialPort interface {
	io.ReadWriteCloser

	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error

	// SetReadTimeout bounds every Read; a timed-out Read returns 0, nil.
	SetReadTimeout(t time.Duration) error
}

// SerialOpener opens a serial port by name at the bridge line settings.
type SerialOpener func(name string) (SerialPort, error)

// Exchanger is a full-duplex SPI exchange: every byte written clocks one
// byte back. Exchange returns exactly len(w) bytes, or fails with
// ErrLengthMismatch when the reply came back short.
type Exchanger interface {
	Exchange(w []byte) ([]byte, error)
}

// RegisterBus is an I2C bridge that addresses byte-wide registers on a
// 7-bit target address.
type RegisterBus interface {
	// WriteRegisters writes values to consecutive registers starting at regAddr.
	WriteRegisters(busAddr, regAddr uint8, values []byte) error

	// ReadRegisters reads count consecutive registers starting at regAddr.
	ReadRegisters(busAddr, regAddr uint8, count int) ([]byte, error)
}

// Transport is the lifecycle shared by every serial bridge handle.
type Transport interface {
	// Close releases the serial port. The handle is not usable afterwards.
	Close() error

	// IsConnected returns true if discovery found a device and the handle
	// has not been closed.
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType

	// Port returns the serial port the handle is bound to, or "" when
	// not connected.
	Port() string
}

// TransportType represents the bus a bridge speaks on the device side.
type TransportType string

const (
	// TransportSPI is an SPI bridge such as the Linduino / DC590.
	TransportSPI TransportType = "spi"
	// TransportI2C is an I2C bridge such as the MAXPICO2PMB.
	TransportI2C TransportType = "i2c"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)
