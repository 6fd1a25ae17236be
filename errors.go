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
	"errors"
	"fmt"
)

// Sentinel errors returned by the bridges and the device drivers. Callers
// should test for them with errors.Is, since most are wrapped with context.
var (
	// ErrNotConnected is returned when an operation is attempted on a
	// transport that did not find a device during discovery, or was closed.
	ErrNotConnected = errors.New("transport not connected")

	// ErrLengthMismatch is returned when the device reply carries fewer
	// bytes than were clocked out. A timed-out read surfaces this way too.
	ErrLengthMismatch = errors.New("reply length mismatch")

	// ErrBusNack is returned when the addressed I2C target rejected a
	// transaction. It is never retried by the library.
	ErrBusNack = errors.New("bus nack")

	// ErrInvalidArgument is returned before any I/O for out-of-range
	// channels, spans, addresses and empty register lists.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfig is returned by constructors given an unknown device
	// variant or resolution.
	ErrInvalidConfig = errors.New("invalid configuration")

	ErrTransportRead  = errors.New("transport read failed")
	ErrTransportWrite = errors.New("transport write failed")

	// ErrDeviceNotFound is returned by detection when no candidate port
	// answered the identification exchange.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrUnsupported is returned for operations the bridge firmware cannot
	// express, such as changing the bus clock.
	ErrUnsupported = errors.New("operation not supported")
)

// ErrorType classifies an error for callers that implement their own retry
// policy. The library itself never retries.
type ErrorType int

const (
	// ErrorTypePermanent errors will fail again with the same inputs.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed if the operation is repeated.
	ErrorTypeTransient
	// ErrorTypeTimeout errors came from a read that ran out of time.
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError carries the operation and port on which a transport
// failure happened.
type TransportError struct {
	Err  error
	Op   string
	Port string
	Type ErrorType
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError builds a TransportError for the given operation and port.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Err:  err,
		Type: errType,
	}
}

// NewLengthMismatchError reports a reply that carried got bytes when want
// were expected.
func NewLengthMismatchError(op, port string, got, want int) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Err:  fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, got, want),
		Type: ErrorTypeTimeout,
	}
}

// NewBusNackError reports a rejected I2C transaction against busAddr.
func NewBusNackError(op, port string, busAddr uint8) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Err:  fmt.Errorf("%w: address 0x%02X", ErrBusNack, busAddr),
		Type: ErrorTypePermanent,
	}
}

// GetErrorType returns the classification of err.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrLengthMismatch):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead), errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// IsRetryable reports whether repeating the operation could succeed.
// Bus nacks and argument errors are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return GetErrorType(err) != ErrorTypePermanent
}
