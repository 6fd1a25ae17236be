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
	"context"
	"testing"

	regbridge "github.com/benchlab/go-regbridge"
	testutil "github.com/benchlab/go-regbridge/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
)

const testPort = "COM7"

func discoverBridge(t *testing.T, bridge testutil.Responder) (*Transport, *testutil.FakePort) {
	t.Helper()

	ports := testutil.NewPortSet()
	port := ports.Add(testPort, bridge)

	transport, err := Discover(context.Background(), &Options{Port: testPort, Open: ports.Open})
	require.NoError(t, err)
	require.True(t, transport.IsConnected())
	port.ClearWritten()
	return transport, port
}

func TestDiscover_PinnedPort(t *testing.T) {
	t.Parallel()

	ports := testutil.NewPortSet()
	port := ports.Add(testPort, testutil.NewMAXPICO2PMB())

	transport, err := Discover(context.Background(), &Options{Port: testPort, Open: ports.Open})
	require.NoError(t, err)
	defer func() { _ = transport.Close() }()

	assert.True(t, transport.IsConnected())
	assert.Equal(t, testutil.MAXPICO2PMBVersion, transport.Version())
	assert.Equal(t, "G 2\r\n", port.Written())
	assert.Equal(t, regbridge.TransportI2C, transport.Type())
	assert.Equal(t, testPort, transport.Port())
	assert.Equal(t, "maxpico(COM7)", transport.String())
}

func TestDiscover_WrongDevice(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	bridge.Version = "PICO-PMBUS v2"

	ports := testutil.NewPortSet()
	port := ports.Add(testPort, bridge)

	transport, err := Discover(context.Background(), &Options{Port: testPort, Open: ports.Open})
	require.NoError(t, err)
	assert.False(t, transport.IsConnected())
	assert.True(t, port.Closed(), "rejected port is released")
	assert.Empty(t, transport.Version())

	err = transport.WriteRegister(0x3A, 0x10, 0xAB)
	require.ErrorIs(t, err, regbridge.ErrNotConnected)
	_, err = transport.ReadRegister(0x3A, 0x10)
	require.ErrorIs(t, err, regbridge.ErrNotConnected)
}

func TestWriteRegister(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	regs := bridge.AddTarget(0x3A)
	transport, port := discoverBridge(t, bridge)

	require.NoError(t, transport.WriteRegister(0x3A, 0x10, 0xAB))
	assert.Equal(t, "w 74 10 AB\r\n", port.Written())
	assert.Equal(t, byte(0xAB), regs[0x10])
}

func TestWriteRegisters_Nack(t *testing.T) {
	t.Parallel()

	transport, _ := discoverBridge(t, testutil.NewMAXPICO2PMB())

	err := transport.WriteRegisters(0x3A, 0x10, []byte{0x01, 0x02})
	require.ErrorIs(t, err, regbridge.ErrBusNack)
	assert.False(t, regbridge.IsRetryable(err))
}

func TestWriteRegisters_UnexpectedReply(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	bridge.AddTarget(0x3A)
	bridge.WriteReply = "busy"
	transport, _ := discoverBridge(t, bridge)

	err := transport.WriteRegister(0x3A, 0x10, 0xAB)
	assert.ErrorIs(t, err, regbridge.ErrBusNack)
}

func TestReadRegisters_NackLeavesHandleUsable(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	regs := bridge.AddTarget(0x1D)
	transport, _ := discoverBridge(t, bridge)

	_, err := transport.ReadRegisters(0x53, 0x00, 3)
	require.ErrorIs(t, err, regbridge.ErrBusNack)

	require.NoError(t, transport.WriteRegister(0x1D, 0x10, 0xAB))
	assert.Equal(t, byte(0xAB), regs[0x10])

	got, err := transport.ReadRegister(0x1D, 0x10)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), got)
}

func TestWriteRegister_StaleInputIsDropped(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	bridge.AddTarget(0x1D)
	transport, port := discoverBridge(t, bridge)

	port.Inject([]byte("nack\r\n"))
	require.NoError(t, transport.WriteRegister(0x1D, 0x10, 0x5A))

	port.Inject([]byte("FF\r\n"))
	got, err := transport.ReadRegister(0x1D, 0x10)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5A), got)
}

func TestWriteRegisters_ValidatesBeforeIO(t *testing.T) {
	t.Parallel()

	transport, port := discoverBridge(t, testutil.NewMAXPICO2PMB())

	require.ErrorIs(t, transport.WriteRegisters(0x3A, 0x10, nil), regbridge.ErrInvalidArgument)
	require.ErrorIs(t, transport.WriteRegister(0x80, 0x10, 0x01), regbridge.ErrInvalidArgument)
	_, err := transport.ReadRegisters(0x3A, 0x10, 0)
	require.ErrorIs(t, err, regbridge.ErrInvalidArgument)
	assert.Empty(t, port.Written())
}

func TestReadRegisters(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	regs := bridge.AddTarget(0x1D)
	regs[0x32] = 0x12
	regs[0x33] = 0x34
	regs[0x34] = 0xFE
	transport, port := discoverBridge(t, bridge)

	got, err := transport.ReadRegisters(0x1D, 0x32, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34, 0xFE}, got)
	assert.Equal(t, "r 3A 32 03\r\n", port.Written())

	one, err := transport.ReadRegister(0x1D, 0x34)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFE), one)
}

func TestReadRegisters_Nack(t *testing.T) {
	t.Parallel()

	transport, _ := discoverBridge(t, testutil.NewMAXPICO2PMB())

	_, err := transport.ReadRegisters(0x53, 0x00, 2)
	assert.ErrorIs(t, err, regbridge.ErrBusNack)
}

func TestReadRegisters_ShortReply(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	transport, _ := discoverBridge(t, testutil.ResponderFunc(func(w []byte) []byte {
		if string(w) == "G 2\r\n" {
			return bridge.Respond(w)
		}
		return []byte("0A\r\n")
	}))

	_, err := transport.ReadRegisters(0x1D, 0x00, 2)
	require.ErrorIs(t, err, regbridge.ErrLengthMismatch)
	assert.True(t, regbridge.IsRetryable(err))
}

func TestBus_PeriphDev(t *testing.T) {
	t.Parallel()

	bridge := testutil.NewMAXPICO2PMB()
	regs := bridge.AddTarget(0x1D)
	regs[0x00] = 0xE5
	transport, port := discoverBridge(t, bridge)

	dev := &i2c.Dev{Addr: 0x1D, Bus: transport.Bus()}

	id := make([]byte, 1)
	require.NoError(t, dev.Tx([]byte{0x00}, id))
	assert.Equal(t, byte(0xE5), id[0])

	require.NoError(t, dev.Tx([]byte{0x2D, 0x08}, nil))
	assert.Equal(t, byte(0x08), regs[0x2D])
	assert.Equal(t, "r 3A 00 01\r\nw 3A 2D 08\r\n", port.Written())
	assert.Equal(t, "maxpico(COM7)", transport.Bus().String())
}

func TestClose(t *testing.T) {
	t.Parallel()

	transport, port := discoverBridge(t, testutil.NewMAXPICO2PMB())

	require.NoError(t, transport.Close())
	assert.True(t, port.Closed())
	assert.False(t, transport.IsConnected())
	assert.Empty(t, transport.Port())
	require.NoError(t, transport.Close())
}
