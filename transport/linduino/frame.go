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

package linduino

import (
	"encoding/hex"
	"fmt"

	regbridge "github.com/benchlab/go-regbridge"
	"periph.io/x/conn/v3/spi"
)

// DC590 command characters.
const (
	cmdSelect   = 'x' // drive chip select low
	cmdDeselect = 'X' // release chip select
	cmdTransfer = 'T' // clock one byte, followed by two hex digits
	cmdNewline  = 'Z' // terminate the reply line
	cmdIdentify = "i"
)

// EncodeFrame builds the command line that clocks data out inside a single
// chip-select frame: x, T<hh> per byte, then XZ.
func EncodeFrame(data []byte) []byte {
	frame := make([]byte, 0, 3+3*len(data))
	frame = append(frame, cmdSelect)
	frame = appendTransfers(frame, data, len(data))
	return append(frame, cmdDeselect, cmdNewline)
}

// EncodePackets builds one command line for a sequence of SPI packets.
// Chip select stays asserted between packets that set KeepCS. It returns
// the number of bytes the line clocks.
func EncodePackets(packets []spi.Packet) ([]byte, int, error) {
	var frame []byte
	total := 0
	selected := false

	for i, p := range packets {
		if p.BitsPerWord != 0 && p.BitsPerWord != 8 {
			return nil, 0, fmt.Errorf("%w: %d bits per word", regbridge.ErrUnsupported, p.BitsPerWord)
		}
		n, err := packetLen(p)
		if err != nil {
			return nil, 0, err
		}

		if !selected {
			frame = append(frame, cmdSelect)
			selected = true
		}
		frame = appendTransfers(frame, p.W, n)
		total += n

		if !p.KeepCS || i == len(packets)-1 {
			frame = append(frame, cmdDeselect)
			selected = false
		}
	}

	return append(frame, cmdNewline), total, nil
}

// appendTransfers appends n T<hh> tokens; bytes past the end of data are
// clocked as zero.
func appendTransfers(frame, data []byte, n int) []byte {
	const digits = "0123456789ABCDEF"
	for i := 0; i < n; i++ {
		var b byte
		if i < len(data) {
			b = data[i]
		}
		frame = append(frame, cmdTransfer, digits[b>>4], digits[b&0x0F])
	}
	return frame
}

func packetLen(p spi.Packet) (int, error) {
	switch {
	case p.W != nil && p.R != nil && len(p.W) != len(p.R):
		return 0, fmt.Errorf("%w: write %d bytes but read %d", regbridge.ErrInvalidArgument, len(p.W), len(p.R))
	case len(p.W) > 0:
		return len(p.W), nil
	default:
		return len(p.R), nil
	}
}

// DecodeReply extracts n bytes from a reply line. Everything that is not a
// hex digit is dropped first, since the firmware may print escape bytes
// ahead of the data. The data is the trailing 2n digits; fewer than 2n
// digits fails with ErrLengthMismatch.
func DecodeReply(reply []byte, n int) ([]byte, error) {
	digits := make([]byte, 0, len(reply))
	for _, c := range reply {
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}

	if len(digits) < 2*n {
		return nil, fmt.Errorf("%w: got %d hex digits, want %d", regbridge.ErrLengthMismatch, len(digits), 2*n)
	}

	out := make([]byte, n)
	if _, err := hex.Decode(out, digits[len(digits)-2*n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", regbridge.ErrTransportRead, err)
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
