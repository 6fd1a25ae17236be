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
	"sync"
)

// MockExchanger records every frame passed to Exchange. By default it
// answers with an all-zero reply of the same length.
type MockExchanger struct {
	ResponseFunc func(w []byte) ([]byte, error)
	err          error
	frames       [][]byte
	mu           sync.Mutex
}

// NewMockExchanger creates a new recording exchanger
func NewMockExchanger() *MockExchanger {
	return &MockExchanger{}
}

// Exchange records w and returns the configured reply.
func (m *MockExchanger) Exchange(w []byte) ([]byte, error) {
	m.mu.Lock()
	m.frames = append(m.frames, append([]byte(nil), w...))
	err := m.err
	responseFunc := m.ResponseFunc
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if responseFunc != nil {
		return responseFunc(w)
	}
	return make([]byte, len(w)), nil
}

// SetError makes every following Exchange fail with err.
func (m *MockExchanger) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Frames returns a copy of every frame exchanged so far.
func (m *MockExchanger) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	for i, f := range m.frames {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// LastFrame returns the most recent frame, or nil if none was exchanged.
func (m *MockExchanger) LastFrame() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return append([]byte(nil), m.frames[len(m.frames)-1]...)
}

// Reset forgets every recorded frame.
func (m *MockExchanger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

// MockRegisterBus is an in-memory I2C register file keyed by target address.
// Targets not added with AddTarget nack every transaction.
type MockRegisterBus struct {
	targets map[uint8]*[256]byte
	mu      sync.Mutex
}

// NewMockRegisterBus creates an empty register bus
func NewMockRegisterBus() *MockRegisterBus {
	return &MockRegisterBus{targets: make(map[uint8]*[256]byte)}
}

// AddTarget makes busAddr acknowledge transactions.
func (m *MockRegisterBus) AddTarget(busAddr uint8) *[256]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	regs := &[256]byte{}
	m.targets[busAddr] = regs
	return regs
}

// WriteRegisters implements RegisterBus.
func (m *MockRegisterBus) WriteRegisters(busAddr, regAddr uint8, values []byte) error {
	if len(values) == 0 {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	regs, ok := m.targets[busAddr]
	if !ok {
		return NewBusNackError("WriteRegisters", "mock", busAddr)
	}
	for i, v := range values {
		regs[(int(regAddr)+i)&0xFF] = v
	}
	return nil
}

// ReadRegisters implements RegisterBus.
func (m *MockRegisterBus) ReadRegisters(busAddr, regAddr uint8, count int) ([]byte, error) {
	if count < 1 {
		return nil, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	regs, ok := m.targets[busAddr]
	if !ok {
		return nil, NewBusNackError("ReadRegisters", "mock", busAddr)
	}
	out := make([]byte, count)
	for i := range out {
		out[i] = regs[(int(regAddr)+i)&0xFF]
	}
	return out, nil
}

var (
	_ Exchanger   = (*MockExchanger)(nil)
	_ RegisterBus = (*MockRegisterBus)(nil)
)
