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

// Package maxpico provides an I2C transport over a MAXPICO2PMB adapter,
// which takes ASCII register commands on a USB serial port.
package maxpico

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/detection/serialports"
	"github.com/benchlab/go-regbridge/internal/serialline"
)

// DefaultSettleDelay lets the adapter finish printing anything queued
// before the port was opened.
const DefaultSettleDelay = 500 * time.Millisecond

// Options configures discovery.
type Options struct {
	// Open opens candidate ports. Defaults to a real serial port at
	// 115200 baud with a 1s read timeout.
	Open regbridge.SerialOpener

	// Port pins discovery to a single port; empty scans every port.
	Port string

	// Blocklist holds VID:PID pairs never probed during a scan.
	Blocklist []string

	// IgnorePaths holds port paths never probed during a scan.
	IgnorePaths []string

	// SettleDelay is the wait between opening a port and probing it.
	SettleDelay time.Duration
}

// DefaultOptions returns scan-everything options.
func DefaultOptions() Options {
	return Options{SettleDelay: DefaultSettleDelay}
}

// Transport is an I2C bridge handle implementing regbridge.RegisterBus.
// It is not safe for concurrent use.
type Transport struct {
	line    *serialline.Line
	version string
}

// NewProbeConfig returns the identification exchange for MAXPICO2PMB adapters.
func NewProbeConfig(opts *Options) serialline.ProbeConfig {
	return serialline.ProbeConfig{
		Open:        opts.Open,
		Device:      "MAXPICO2PMB",
		Command:     cmdVersion,
		Accept:      IsVersion,
		SettleDelay: opts.SettleDelay,
	}
}

// Discover looks for a MAXPICO2PMB on the pinned port, or on every port if
// none is pinned, and binds to the first that reports its version.
//
// Finding nothing is not an error: the returned transport reports
// IsConnected() == false. An error is returned only if the port list could
// not be read or ctx ended the search.
func Discover(ctx context.Context, opts *Options) (*Transport, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	candidates := []string{opts.Port}
	if opts.Port == "" {
		var err error
		candidates, err = serialports.Candidates(ctx, opts.Blocklist, opts.IgnorePaths)
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
	}

	result, err := serialline.Scan(ctx, candidates, NewProbeConfig(opts))
	if err != nil {
		return nil, err
	}
	if !result.Accepted() {
		return &Transport{}, nil
	}

	return &Transport{
		line:    result.Line,
		version: string(bytes.TrimSpace(result.Reply)),
	}, nil
}

// New binds to the MAXPICO2PMB on portName. Check IsConnected before use.
func New(portName string) (*Transport, error) {
	opts := DefaultOptions()
	opts.Port = portName
	return Discover(context.Background(), &opts)
}

// Version returns the version string the adapter reported.
func (t *Transport) Version() string {
	return t.version
}

// WriteRegister writes one register on the target at busAddr.
func (t *Transport) WriteRegister(busAddr, regAddr, value uint8) error {
	return t.WriteRegisters(busAddr, regAddr, []byte{value})
}

// WriteRegisters writes values to consecutive registers starting at regAddr.
// A reply other than "ack" fails with regbridge.ErrBusNack.
func (t *Transport) WriteRegisters(busAddr, regAddr uint8, values []byte) error {
	frame, err := EncodeWrite(busAddr, regAddr, values)
	if err != nil {
		return err
	}
	if t.line == nil {
		return regbridge.NewTransportError("WriteRegisters", "", regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	if err := t.send(frame); err != nil {
		return err
	}
	reply, err := t.line.ReadLine()
	if err != nil {
		return err
	}

	if !IsAck(reply) {
		regbridge.Logger().Sugar().Debugf("write to 0x%02X rejected on %s: %q", busAddr, t.line.Name(), reply)
		return regbridge.NewBusNackError("WriteRegisters", t.line.Name(), busAddr)
	}
	return nil
}

// ReadRegister reads one register on the target at busAddr.
func (t *Transport) ReadRegister(busAddr, regAddr uint8) (uint8, error) {
	values, err := t.ReadRegisters(busAddr, regAddr, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// ReadRegisters reads count consecutive registers starting at regAddr. The
// adapter answers one line per register; any "nack" line fails the whole
// read with regbridge.ErrBusNack.
func (t *Transport) ReadRegisters(busAddr, regAddr uint8, count int) ([]byte, error) {
	frame, err := EncodeRead(busAddr, regAddr, count)
	if err != nil {
		return nil, err
	}
	if t.line == nil {
		return nil, regbridge.NewTransportError("ReadRegisters", "", regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	if err := t.send(frame); err != nil {
		return nil, err
	}

	values := make([]byte, count)
	for i := range values {
		line, err := t.line.ReadLine()
		if err != nil {
			return nil, err
		}

		v, err := parseValue(line)
		switch {
		case errors.Is(err, regbridge.ErrBusNack):
			t.drain(count - i - 1)
			return nil, regbridge.NewBusNackError("ReadRegisters", t.line.Name(), busAddr)
		case errors.Is(err, regbridge.ErrLengthMismatch):
			return nil, regbridge.NewLengthMismatchError("ReadRegisters", t.line.Name(), i, count)
		case err != nil:
			return nil, regbridge.NewTransportError("ReadRegisters", t.line.Name(), err, regbridge.ErrorTypeTransient)
		}
		values[i] = v
	}
	return values, nil
}

// send flushes input left over from an earlier command before writing frame.
func (t *Transport) send(frame []byte) error {
	if err := t.line.Discard(); err != nil {
		return err
	}
	return t.line.Write(frame)
}

// drain consumes up to n remaining reply lines of a read the adapter is
// still answering. A timed-out read ends it early.
func (t *Transport) drain(n int) {
	for ; n > 0; n-- {
		line, err := t.line.ReadLine()
		if err != nil || len(line) == 0 {
			return
		}
	}
}

// Bus exposes the adapter as a periph.io i2c.Bus.
func (t *Transport) Bus() *regbridge.I2CBus {
	return regbridge.NewI2CBus(t, t.String())
}

func (t *Transport) String() string {
	if t.line == nil {
		return "maxpico(not connected)"
	}
	return fmt.Sprintf("maxpico(%s)", t.line.Name())
}

// Close releases the serial port.
func (t *Transport) Close() error {
	if t.line == nil {
		return nil
	}
	err := t.line.Close()
	t.line = nil
	return err
}

// IsConnected returns true if an adapter was found and the handle is open.
func (t *Transport) IsConnected() bool {
	return t.line != nil
}

// Type returns the transport type
func (*Transport) Type() regbridge.TransportType {
	return regbridge.TransportI2C
}

// Port returns the serial port name, or "" when not connected.
func (t *Transport) Port() string {
	if t.line == nil {
		return ""
	}
	return t.line.Name()
}

var (
	_ regbridge.Transport   = (*Transport)(nil)
	_ regbridge.RegisterBus = (*Transport)(nil)
)
