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

package serialline

import (
	"bytes"
	"fmt"

	regbridge "github.com/benchlab/go-regbridge"
)

const (
	readChunk = 64

	// maxLineLength stops a babbling port from growing a line forever.
	maxLineLength = 4096
)

// Line wraps an open serial port with newline-delimited reads.
// It is not safe for concurrent use.
type Line struct {
	port   regbridge.SerialPort
	name   string
	buf    []byte
	closed bool
}

// NewLine wraps an already opened port.
func NewLine(port regbridge.SerialPort, name string) *Line {
	return &Line{port: port, name: name}
}

// Name returns the port name.
func (l *Line) Name() string {
	return l.name
}

// Write sends b in full.
func (l *Line) Write(b []byte) error {
	if l.closed {
		return regbridge.NewTransportError("write", l.name, regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	for len(b) > 0 {
		n, err := l.port.Write(b)
		if err != nil {
			return regbridge.NewTransportError("write", l.name,
				fmt.Errorf("%w: %w", regbridge.ErrTransportWrite, err), regbridge.ErrorTypeTransient)
		}
		if n == 0 {
			return regbridge.NewTransportError("write", l.name,
				fmt.Errorf("%w: port accepted no bytes", regbridge.ErrTransportWrite), regbridge.ErrorTypeTransient)
		}
		b = b[n:]
	}
	return nil
}

// WriteString sends s in full.
func (l *Line) WriteString(s string) error {
	return l.Write([]byte(s))
}

// ReadLine returns the next line including its trailing '\n'. If a read times
// out first, whatever arrived so far is returned without error, so callers
// see a short reply rather than a failure.
func (l *Line) ReadLine() ([]byte, error) {
	if l.closed {
		return nil, regbridge.NewTransportError("read", l.name, regbridge.ErrNotConnected, regbridge.ErrorTypePermanent)
	}

	chunk := make([]byte, readChunk)
	for {
		if idx := bytes.IndexByte(l.buf, '\n'); idx >= 0 {
			return l.take(idx + 1), nil
		}
		if len(l.buf) >= maxLineLength {
			return l.take(len(l.buf)), nil
		}

		n, err := l.port.Read(chunk)
		if err != nil {
			return nil, regbridge.NewTransportError("read", l.name,
				fmt.Errorf("%w: %w", regbridge.ErrTransportRead, err), regbridge.ErrorTypeTransient)
		}
		if n == 0 {
			// read timeout
			return l.take(len(l.buf)), nil
		}
		l.buf = append(l.buf, chunk[:n]...)
	}
}

func (l *Line) take(n int) []byte {
	line := make([]byte, n)
	copy(line, l.buf[:n])
	l.buf = l.buf[n:]
	if len(l.buf) == 0 {
		l.buf = nil
	}
	return line
}

// Discard drops everything received so far, buffered or pending.
func (l *Line) Discard() error {
	l.buf = nil
	if err := l.port.ResetInputBuffer(); err != nil {
		return regbridge.NewTransportError("flush", l.name,
			fmt.Errorf("%w: %w", regbridge.ErrTransportRead, err), regbridge.ErrorTypeTransient)
	}
	return nil
}

// Close closes the port. Calling Close more than once is a no-op.
func (l *Line) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.buf = nil
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", l.name, err)
	}
	return nil
}
