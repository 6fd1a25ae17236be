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

package native

import (
	"fmt"

	regbridge "github.com/benchlab/go-regbridge"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// DefaultI2CSpeed is standard-mode I2C.
const DefaultI2CSpeed = 100 * physic.KiloHertz

const maxReadCount = 0xFF

// I2COptions configures a host I2C bus.
type I2COptions struct {
	Speed physic.Frequency
}

// I2C is a host I2C bus implementing regbridge.RegisterBus with the same
// addressing rules as the serial bridges.
type I2C struct {
	bus  i2c.Bus
	bc   i2c.BusCloser
	name string
}

// OpenI2C opens the host I2C bus name, e.g. "/dev/i2c-1" or "1"; "" selects
// the first one found.
func OpenI2C(name string, opts I2COptions) (*I2C, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}

	b := NewI2C(bc, opts)
	b.bc = bc
	return b, nil
}

// NewI2C wraps an already opened periph bus. The bus is not closed by Close.
func NewI2C(bus i2c.Bus, opts I2COptions) *I2C {
	if opts.Speed == 0 {
		opts.Speed = DefaultI2CSpeed
	}
	if err := bus.SetSpeed(opts.Speed); err != nil {
		// Not every bus driver can change speed; keep its default.
		regbridge.Logger().Sugar().Debugf("I2C bus %s kept its default speed: %v", bus, err)
	}
	return &I2C{bus: bus, name: bus.String()}
}

// WriteRegisters writes values to consecutive registers starting at regAddr.
func (b *I2C) WriteRegisters(busAddr, regAddr uint8, values []byte) error {
	if err := checkAddr(busAddr); err != nil {
		return err
	}
	if len(values) < 1 {
		return fmt.Errorf("%w: must write at least 1 value", regbridge.ErrInvalidArgument)
	}
	if b.bus == nil {
		return regbridge.NewTransportError("WriteRegisters", b.name, regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	w := append([]byte{regAddr}, values...)
	if err := b.bus.Tx(uint16(busAddr), w, nil); err != nil {
		return regbridge.NewTransportError("WriteRegisters", b.name,
			fmt.Errorf("%w: %w", regbridge.ErrTransportWrite, err), regbridge.ErrorTypeTransient)
	}
	return nil
}

// ReadRegisters reads count consecutive registers starting at regAddr with
// a repeated-start register read.
func (b *I2C) ReadRegisters(busAddr, regAddr uint8, count int) ([]byte, error) {
	if err := checkAddr(busAddr); err != nil {
		return nil, err
	}
	if count < 1 || count > maxReadCount {
		return nil, fmt.Errorf("%w: register read count %d outside 1..%d",
			regbridge.ErrInvalidArgument, count, maxReadCount)
	}
	if b.bus == nil {
		return nil, regbridge.NewTransportError("ReadRegisters", b.name, regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	r := make([]byte, count)
	if err := b.bus.Tx(uint16(busAddr), []byte{regAddr}, r); err != nil {
		return nil, regbridge.NewTransportError("ReadRegisters", b.name,
			fmt.Errorf("%w: %w", regbridge.ErrTransportRead, err), regbridge.ErrorTypeTransient)
	}
	return r, nil
}

// Bus returns the underlying periph bus.
func (b *I2C) Bus() i2c.Bus {
	return b.bus
}

// Close releases the bus if OpenI2C opened it.
func (b *I2C) Close() error {
	b.bus = nil
	if b.bc == nil {
		return nil
	}
	err := b.bc.Close()
	b.bc = nil
	return err
}

// IsConnected returns true until Close.
func (b *I2C) IsConnected() bool {
	return b.bus != nil
}

// Type returns the transport type
func (*I2C) Type() regbridge.TransportType {
	return regbridge.TransportI2C
}

// Port returns the bus name.
func (b *I2C) Port() string {
	return b.name
}

func checkAddr(busAddr uint8) error {
	if busAddr > 0x7F {
		return fmt.Errorf("%w: bus address 0x%02X is not 7-bit", regbridge.ErrInvalidArgument, busAddr)
	}
	return nil
}

var (
	_ regbridge.Transport   = (*I2C)(nil)
	_ regbridge.RegisterBus = (*I2C)(nil)
)
