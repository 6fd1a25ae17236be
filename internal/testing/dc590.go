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

package testing

import (
	"fmt"
	"sync"
)

// DC590ID is the identification line a Linduino running the DC590 sketch
// prints in answer to "i". Bytes 20-24 spell DC590.
const DC590ID = "USBSPI,PIC,01,01,DC,DC590,----------------------\n"

// DC590 emulates the Linduino DC590 command interpreter: x/X drive chip
// select, T<hh> clocks a byte and prints the byte read back, Z prints a
// newline and i prints the identification line.
type DC590 struct {
	// MISO returns the byte the target drives while mosi is clocked out.
	// Defaults to echoing mosi.
	MISO func(mosi byte) byte

	// ID replaces DC590ID when set.
	ID string

	// Prefix is printed when chip select is asserted, like the stray
	// escape bytes some firmware builds emit.
	Prefix string

	// MaxReplyBytes limits how many read-back bytes are printed per frame;
	// zero means no limit.
	MaxReplyBytes int

	frames   [][]byte
	current  []byte
	pending  []byte
	replied  int
	selected bool
	mu       sync.Mutex
}

// Respond implements Responder.
func (d *DC590) Respond(w []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []byte
	for _, c := range w {
		if len(d.pending) > 0 {
			d.pending = append(d.pending, c)
			if len(d.pending) == 3 {
				out = append(out, d.clock(d.pending[1:])...)
				d.pending = nil
			}
			continue
		}

		switch c {
		case 'i':
			id := d.ID
			if id == "" {
				id = DC590ID
			}
			out = append(out, id...)
		case 'x':
			d.selected = true
			d.current = nil
			d.replied = 0
			out = append(out, d.Prefix...)
		case 'X':
			if d.selected {
				d.frames = append(d.frames, d.current)
			}
			d.selected = false
			d.current = nil
		case 'T':
			d.pending = []byte{c}
		case 'Z':
			out = append(out, '\n')
		}
	}
	return out
}

func (d *DC590) clock(hex []byte) []byte {
	var mosi byte
	if _, err := fmt.Sscanf(string(hex), "%02X", &mosi); err != nil {
		return []byte("??")
	}
	d.current = append(d.current, mosi)

	miso := mosi
	if d.MISO != nil {
		miso = d.MISO(mosi)
	}
	if d.MaxReplyBytes > 0 && d.replied >= d.MaxReplyBytes {
		return nil
	}
	d.replied++
	return []byte(fmt.Sprintf("%02X", miso))
}

// Frames returns the MOSI bytes of every completed chip-select frame.
func (d *DC590) Frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.frames))
	for i, f := range d.frames {
		out[i] = append([]byte(nil), f...)
	}
	return out
}
