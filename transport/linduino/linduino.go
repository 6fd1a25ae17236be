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

// Package linduino provides an SPI transport over a Linduino or DC590 board
// running the DC590 command interpreter on a USB serial port.
package linduino

import (
	"bytes"
	"context"
	"fmt"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/detection/serialports"
	"github.com/benchlab/go-regbridge/internal/serialline"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

const (
	// DefaultSettleDelay covers the bootloader delay of boards that reset
	// when the port is opened.
	DefaultSettleDelay = 2 * time.Second

	// identityTag is found at identityOffset in the identification line.
	identityTag    = "DC590"
	identityOffset = 20
)

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

// Transport is an SPI bridge handle. It implements regbridge.Exchanger and
// periph's spi.Conn. It is not safe for concurrent use.
type Transport struct {
	line     *serialline.Line
	identity string
}

// IsIdentity reports whether reply is a DC590 identification line.
func IsIdentity(reply []byte) bool {
	return len(reply) >= identityOffset+len(identityTag) &&
		bytes.Equal(reply[identityOffset:identityOffset+len(identityTag)], []byte(identityTag))
}

// NewProbeConfig returns the identification exchange for DC590 boards.
func NewProbeConfig(opts *Options) serialline.ProbeConfig {
	return serialline.ProbeConfig{
		Open:        opts.Open,
		Device:      "DC590",
		Command:     cmdIdentify,
		Accept:      IsIdentity,
		SettleDelay: opts.SettleDelay,
	}
}

// Discover looks for a DC590 board on the pinned port, or on every port
// if none is pinned, and binds to the first that identifies itself.
//
// Finding nothing is not an error: the returned transport reports
// IsConnected() == false and its operations fail with
// regbridge.ErrNotConnected. An error is returned only if the port list
// could not be read or ctx ended the search.
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
		line:     result.Line,
		identity: string(bytes.TrimSpace(result.Reply)),
	}, nil
}

// New binds to the DC590 board on portName. Check IsConnected before use.
func New(portName string) (*Transport, error) {
	opts := DefaultOptions()
	opts.Port = portName
	return Discover(context.Background(), &opts)
}

// Exchange clocks w out within one chip-select frame and returns the
// len(w) bytes clocked back.
func (t *Transport) Exchange(w []byte) ([]byte, error) {
	if t.line == nil {
		return nil, regbridge.NewTransportError("Exchange", "", regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	reply, err := t.roundTrip(EncodeFrame(w))
	if err != nil {
		return nil, err
	}

	data, err := DecodeReply(reply, len(w))
	if err != nil {
		regbridge.Logger().Sugar().Debugf("short reply on %s: %q", t.line.Name(), reply)
		return nil, regbridge.NewTransportError("Exchange", t.line.Name(), err, regbridge.GetErrorType(err))
	}
	return data, nil
}

// Tx implements conn.Conn. r may be nil or must match len(w).
func (t *Transport) Tx(w, r []byte) error {
	return t.TxPackets([]spi.Packet{{W: w, R: r}})
}

// TxPackets implements spi.Conn. Packets setting KeepCS share a chip-select
// frame with the packet that follows them.
func (t *Transport) TxPackets(packets []spi.Packet) error {
	if t.line == nil {
		return regbridge.NewTransportError("TxPackets", "", regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	frame, total, err := EncodePackets(packets)
	if err != nil {
		return err
	}

	reply, err := t.roundTrip(frame)
	if err != nil {
		return err
	}

	data, err := DecodeReply(reply, total)
	if err != nil {
		return regbridge.NewTransportError("TxPackets", t.line.Name(), err, regbridge.GetErrorType(err))
	}

	for _, p := range packets {
		n, _ := packetLen(p)
		copy(p.R, data[:n])
		data = data[n:]
	}
	return nil
}

// roundTrip flushes input left over from an earlier frame, such as a reply
// that arrived after its read timed out, before sending frame.
func (t *Transport) roundTrip(frame []byte) ([]byte, error) {
	if err := t.line.Discard(); err != nil {
		return nil, err
	}
	if err := t.line.Write(frame); err != nil {
		return nil, err
	}
	return t.line.ReadLine()
}

// Duplex implements conn.Conn.
func (*Transport) Duplex() conn.Duplex {
	return conn.Full
}

func (t *Transport) String() string {
	if t.line == nil {
		return "linduino(not connected)"
	}
	return fmt.Sprintf("linduino(%s)", t.line.Name())
}

// Identity returns the identification line the board answered with.
func (t *Transport) Identity() string {
	return t.identity
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

// IsConnected returns true if a board was found and the handle is open.
func (t *Transport) IsConnected() bool {
	return t.line != nil
}

// Type returns the transport type
func (*Transport) Type() regbridge.TransportType {
	return regbridge.TransportSPI
}

// Port returns the serial port name, or "" when not connected.
func (t *Transport) Port() string {
	if t.line == nil {
		return ""
	}
	return t.line.Name()
}

var (
	_ regbridge.Transport = (*Transport)(nil)
	_ regbridge.Exchanger = (*Transport)(nil)
	_ spi.Conn            = (*Transport)(nil)
)
