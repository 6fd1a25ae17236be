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

// Package testing provides emulated bridge boards behind in-memory serial
// ports, so transports and detectors can be tested without hardware.
package testing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
)

// Responder is the firmware side of a FakePort: it sees every write and
// returns the bytes the board sends back.
type Responder interface {
	Respond(w []byte) []byte
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(w []byte) []byte

// Respond implements Responder.
func (f ResponderFunc) Respond(w []byte) []byte {
	return f(w)
}

// FakePort is an in-memory serial port. Reads return 0, nil when nothing is
// pending, which is how a timed-out read looks on a real port.
type FakePort struct {
	responder Responder
	ReadErr   error
	WriteErr  error
	rx        []byte
	written   []byte
	mu        sync.Mutex
	resets    int
	closed    bool
}

// NewFakePort creates a port answered by r. A nil r never answers.
func NewFakePort(r Responder) *FakePort {
	return &FakePort{responder: r}
}

// Read implements io.Reader.
func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.ReadErr != nil {
		return 0, p.ReadErr
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	p.written = append(p.written, b...)
	if p.responder != nil {
		p.rx = append(p.rx, p.responder.Respond(b)...)
	}
	return len(b), nil
}

// ResetInputBuffer drops pending input.
func (p *FakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = nil
	p.resets++
	return nil
}

// SetReadTimeout is accepted and ignored.
func (*FakePort) SetReadTimeout(time.Duration) error {
	return nil
}

// Close marks the port closed.
func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Inject queues bytes as if the board had sent them unprompted.
func (p *FakePort) Inject(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = append(p.rx, b...)
}

// Written returns everything written to the port so far.
func (p *FakePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}

// ClearWritten forgets the write log.
func (p *FakePort) ClearWritten() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = nil
}

// Closed reports whether Close was called.
func (p *FakePort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Resets returns how many times the input buffer was flushed.
func (p *FakePort) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

// PortSet hands out fake ports by name, like a machine with several USB
// serial adapters plugged in.
type PortSet struct {
	ports  map[string]*FakePort
	opened []string
	mu     sync.Mutex
}

// NewPortSet creates an empty set
func NewPortSet() *PortSet {
	return &PortSet{ports: make(map[string]*FakePort)}
}

// Add registers a port under name and returns it.
func (s *PortSet) Add(name string, r Responder) *FakePort {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := NewFakePort(r)
	s.ports[name] = p
	return p
}

// Open implements regbridge.SerialOpener. Unknown names fail like a missing
// device node would.
func (s *PortSet) Open(name string) (regbridge.SerialPort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, name)
	p, ok := s.ports[name]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file or directory", name)
	}
	return p, nil
}

// Opened returns the names passed to Open, in order.
func (s *PortSet) Opened() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.opened...)
}

// Port returns the fake registered under name.
func (s *PortSet) Port(name string) *FakePort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ports[name]
}
