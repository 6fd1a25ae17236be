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
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// I2CBus exposes a RegisterBus as a periph.io i2c.Bus so existing periph
// device drivers can run through a serial bridge.
//
// Only register-style transactions can be expressed by the bridges:
// a write of [reg, values...] with no read, or a write of [reg] followed
// by a read. Anything else fails with ErrUnsupported.
type I2CBus struct {
	bus  RegisterBus
	name string
}

// NewI2CBus wraps bus. name is returned by String.
func NewI2CBus(bus RegisterBus, name string) *I2CBus {
	return &I2CBus{bus: bus, name: name}
}

func (b *I2CBus) String() string {
	return b.name
}

// Tx implements i2c.Bus.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: 10-bit address 0x%X", ErrUnsupported, addr)
	}
	busAddr := uint8(addr)

	switch {
	case len(w) >= 2 && len(r) == 0:
		return b.bus.WriteRegisters(busAddr, w[0], w[1:])
	case len(w) == 1 && len(r) > 0:
		data, err := b.bus.ReadRegisters(busAddr, w[0], len(r))
		if err != nil {
			return err
		}
		copy(r, data)
		return nil
	default:
		debugf("%s: rejecting %d/%d byte transaction to 0x%02X", b.name, len(w), len(r), addr)
		return fmt.Errorf("%w: transaction with %d write and %d read bytes",
			ErrUnsupported, len(w), len(r))
	}
}

// SetSpeed implements i2c.Bus. The bridge firmware owns the bus clock.
func (*I2CBus) SetSpeed(physic.Frequency) error {
	return fmt.Errorf("%w: bus speed is fixed by the bridge", ErrUnsupported)
}

// spiExchanger adapts a periph.io SPI connection to Exchanger.
type spiExchanger struct {
	conn spi.Conn
}

// ExchangerFromSPI lets a register driver run on a native SPI port, such as
// a Linux spidev opened through periph.io, instead of a serial bridge.
func ExchangerFromSPI(conn spi.Conn) Exchanger {
	return &spiExchanger{conn: conn}
}

func (s *spiExchanger) Exchange(w []byte) ([]byte, error) {
	r := make([]byte, len(w))
	if err := s.conn.Tx(w, r); err != nil {
		return nil, NewTransportError("Exchange", s.conn.String(),
			fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypeTransient)
	}
	return r, nil
}

var _ i2c.Bus = (*I2CBus)(nil)
