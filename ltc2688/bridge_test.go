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

package ltc2688_test

import (
	"context"
	"testing"

	regbridge "github.com/benchlab/go-regbridge"
	testutil "github.com/benchlab/go-regbridge/internal/testing"
	"github.com/benchlab/go-regbridge/ltc2688"
	"github.com/benchlab/go-regbridge/transport/linduino"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectBoard(t *testing.T, board *testutil.DC590) *linduino.Transport {
	t.Helper()

	ports := testutil.NewPortSet()
	ports.Add("/dev/ttyACM0", board)

	bridge, err := linduino.Discover(context.Background(), &linduino.Options{Port: "/dev/ttyACM0", Open: ports.Open})
	require.NoError(t, err)
	require.True(t, bridge.IsConnected())
	t.Cleanup(func() { _ = bridge.Close() })
	return bridge
}

func TestDAC_OverLinduino(t *testing.T) {
	t.Parallel()

	board := &testutil.DC590{}
	dac, err := ltc2688.New(connectBoard(t, board), ltc2688.LTC2688, ltc2688.Resolution16Bit)
	require.NoError(t, err)

	require.NoError(t, dac.SetSpan(0, ltc2688.Span0To5V))
	require.NoError(t, dac.SetSpan(1, ltc2688.Span0To10V))
	require.NoError(t, dac.SetChannelCode(0, 0xFFFF))
	require.NoError(t, dac.SetChannelCode(1, 0x0100))
	require.NoError(t, dac.UpdateAll())

	assert.Equal(t, [][]byte{
		{0x10, 0x00, 0x00},
		{0x11, 0x00, 0x01},
		{0x00, 0xFF, 0xFF},
		{0x01, 0x01, 0x00},
		{0x7C, 0x00, 0x00},
	}, board.Frames())
}

func TestDAC_OverLinduino_ShortReply(t *testing.T) {
	t.Parallel()

	board := &testutil.DC590{MaxReplyBytes: 2}
	dac, err := ltc2688.New(connectBoard(t, board), ltc2688.LTC2686, ltc2688.Resolution12Bit)
	require.NoError(t, err)

	err = dac.SetChannelCode(7, 0x0FFF)
	require.ErrorIs(t, err, regbridge.ErrLengthMismatch)
	require.Len(t, board.Frames(), 1)
	assert.Equal(t, []byte{0x0E, 0xFF, 0xF0}, board.Frames()[0], "frame still reached the part")
}
