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
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MAXPICO2PMBVersion is the default answer to "G 2".
const MAXPICO2PMBVersion = "MAXPICO2PMB v1.0.3"

// MAXPICO2PMB emulates the MAXPICO2PMB command interpreter with a register
// file per 7-bit target address. Addresses without a target nack.
type MAXPICO2PMB struct {
	targets map[uint8]*[256]byte

	// Version replaces MAXPICO2PMBVersion when set.
	Version string

	// WriteReply replaces the "ack" sent after a successful write when set.
	WriteReply string

	commands []string
	partial  []byte
	mu       sync.Mutex
}

// NewMAXPICO2PMB creates a bridge with no targets on its bus.
func NewMAXPICO2PMB() *MAXPICO2PMB {
	return &MAXPICO2PMB{targets: make(map[uint8]*[256]byte)}
}

// AddTarget attaches a target at the 7-bit address addr and returns its
// register file.
func (m *MAXPICO2PMB) AddTarget(addr uint8) *[256]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	regs := &[256]byte{}
	m.targets[addr] = regs
	return regs
}

// Commands returns every command line received, without line endings.
func (m *MAXPICO2PMB) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Respond implements Responder.
func (m *MAXPICO2PMB) Respond(w []byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.partial = append(m.partial, w...)
	var out bytes.Buffer
	for {
		idx := bytes.IndexByte(m.partial, '\n')
		if idx < 0 {
			break
		}
		cmd := strings.TrimRight(string(m.partial[:idx]), "\r")
		m.partial = m.partial[idx+1:]
		m.commands = append(m.commands, cmd)
		m.handle(&out, cmd)
	}
	return out.Bytes()
}

func (m *MAXPICO2PMB) handle(out *bytes.Buffer, cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "G":
		version := m.Version
		if version == "" {
			version = MAXPICO2PMBVersion
		}
		out.WriteString(version + "\r\n")
	case "w":
		m.handleWrite(out, fields)
	case "r":
		m.handleRead(out, fields)
	default:
		out.WriteString("?\r\n")
	}
}

func (m *MAXPICO2PMB) handleWrite(out *bytes.Buffer, fields []string) {
	if len(fields) != 4 || len(fields[3])%2 != 0 {
		out.WriteString("nack\r\n")
		return
	}
	regs, reg, ok := m.lookup(fields[1], fields[2])
	if !ok {
		out.WriteString("nack\r\n")
		return
	}
	for i := 0; i < len(fields[3]); i += 2 {
		v, err := strconv.ParseUint(fields[3][i:i+2], 16, 8)
		if err != nil {
			out.WriteString("nack\r\n")
			return
		}
		regs[(reg+i/2)&0xFF] = byte(v)
	}
	if m.WriteReply != "" {
		out.WriteString(m.WriteReply + "\r\n")
		return
	}
	out.WriteString("ack\r\n")
}

func (m *MAXPICO2PMB) handleRead(out *bytes.Buffer, fields []string) {
	if len(fields) != 4 {
		out.WriteString("nack\r\n")
		return
	}
	count, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		out.WriteString("nack\r\n")
		return
	}
	regs, reg, ok := m.lookup(fields[1], fields[2])
	for i := 0; i < int(count); i++ {
		if !ok {
			out.WriteString("nack\r\n")
			continue
		}
		fmt.Fprintf(out, "%02X\r\n", regs[(reg+i)&0xFF])
	}
}

// lookup resolves the 8-bit address field and register field of a command.
func (m *MAXPICO2PMB) lookup(addrField, regField string) (*[256]byte, int, bool) {
	addr, err := strconv.ParseUint(addrField, 16, 8)
	if err != nil {
		return nil, 0, false
	}
	reg, err := strconv.ParseUint(regField, 16, 8)
	if err != nil {
		return nil, 0, false
	}
	regs, ok := m.targets[uint8(addr>>1)]
	return regs, int(reg), ok
}
