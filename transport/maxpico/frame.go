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

package maxpico

import (
	"bytes"
	"fmt"
	"strconv"

	regbridge "github.com/benchlab/go-regbridge"
)

const (
	cmdVersion = "G 2\r\n"

	versionPrefix = "MAXPICO2PMB"
	ackPrefix     = "ack"
	nackPrefix    = "nack"

	maxAddress   = 0x7F
	maxReadCount = 0xFF
)

// EncodeWrite builds the write command for values starting at regAddr on
// the 7-bit target busAddr. The bridge takes the 8-bit write address.
func EncodeWrite(busAddr, regAddr uint8, values []byte) ([]byte, error) {
	if busAddr > maxAddress {
		return nil, fmt.Errorf("%w: bus address 0x%02X is not 7-bit", regbridge.ErrInvalidArgument, busAddr)
	}
	if len(values) < 1 {
		return nil, fmt.Errorf("%w: must write at least 1 value", regbridge.ErrInvalidArgument)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "w %02X %02X ", busAddr<<1, regAddr)
	for _, v := range values {
		fmt.Fprintf(&b, "%02X", v)
	}
	b.WriteString("\r\n")
	return b.Bytes(), nil
}

// EncodeRead builds the read command for count registers starting at regAddr.
func EncodeRead(busAddr, regAddr uint8, count int) ([]byte, error) {
	if busAddr > maxAddress {
		return nil, fmt.Errorf("%w: bus address 0x%02X is not 7-bit", regbridge.ErrInvalidArgument, busAddr)
	}
	if count < 1 || count > maxReadCount {
		return nil, fmt.Errorf("%w: register read count %d outside 1..%d",
			regbridge.ErrInvalidArgument, count, maxReadCount)
	}
	return []byte(fmt.Sprintf("r %02X %02X %02X\r\n", busAddr<<1, regAddr, count)), nil
}

// IsAck reports whether a write reply acknowledged the transaction.
func IsAck(reply []byte) bool {
	return bytes.HasPrefix(reply, []byte(ackPrefix))
}

// IsVersion reports whether reply is a MAXPICO2PMB version string.
func IsVersion(reply []byte) bool {
	return bytes.HasPrefix(reply, []byte(versionPrefix))
}

// parseValue decodes one line of a read reply.
func parseValue(line []byte) (byte, error) {
	if bytes.HasPrefix(line, []byte(nackPrefix)) {
		return 0, regbridge.ErrBusNack
	}

	field := bytes.TrimSpace(line)
	if len(field) == 0 {
		return 0, regbridge.ErrLengthMismatch
	}

	v, err := strconv.ParseUint(string(field), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: bad register value %q", regbridge.ErrTransportRead, field)
	}
	return byte(v), nil
}
