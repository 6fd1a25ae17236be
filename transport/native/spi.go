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
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultSPIFrequency is well inside the LTC2688's 50MHz limit and safe on
// long jumper wires.
const DefaultSPIFrequency = physic.MegaHertz

// SPIOptions configures a host SPI port.
type SPIOptions struct {
	Frequency physic.Frequency
	Mode      spi.Mode
}

// SPI is a host SPI port implementing regbridge.Exchanger.
type SPI struct {
	port regbridge.Exchanger
	conn spi.Conn
	pc   spi.PortCloser
	name string
}

// OpenSPI opens the host SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0";
// "" selects the first one found.
func OpenSPI(name string, opts SPIOptions) (*SPI, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	pc, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", name, err)
	}

	s, err := NewSPI(pc, opts)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI connects an already opened periph SPI port.
func NewSPI(pc spi.PortCloser, opts SPIOptions) (*SPI, error) {
	if opts.Frequency == 0 {
		opts.Frequency = DefaultSPIFrequency
	}

	c, err := pc.Connect(opts.Frequency, opts.Mode, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", pc, err)
	}

	regbridge.Logger().Sugar().Debugf("opened SPI port %s at %s", pc, opts.Frequency)
	return &SPI{
		port: regbridge.ExchangerFromSPI(c),
		conn: c,
		pc:   pc,
		name: pc.String(),
	}, nil
}

// Exchange clocks w out and returns the bytes clocked back.
func (s *SPI) Exchange(w []byte) ([]byte, error) {
	if s.pc == nil {
		return nil, regbridge.NewTransportError("Exchange", s.name, regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}
	return s.port.Exchange(w)
}

// Conn returns the underlying periph connection.
func (s *SPI) Conn() spi.Conn {
	return s.conn
}

// Close releases the port.
func (s *SPI) Close() error {
	if s.pc == nil {
		return nil
	}
	err := s.pc.Close()
	s.pc = nil
	return err
}

// IsConnected returns true until Close.
func (s *SPI) IsConnected() bool {
	return s.pc != nil
}

// Type returns the transport type
func (*SPI) Type() regbridge.TransportType {
	return regbridge.TransportSPI
}

// Port returns the SPI port name.
func (s *SPI) Port() string {
	return s.name
}

var (
	_ regbridge.Transport = (*SPI)(nil)
	_ regbridge.Exchanger = (*SPI)(nil)
)
