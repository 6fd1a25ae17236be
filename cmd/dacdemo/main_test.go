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

package main

import (
	"context"
	"testing"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/ltc2688"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0x0100), nextRamp(0, 0xFFFF))
	assert.Equal(t, uint16(0xFF00), nextRamp(0xFE00, 0xFFFF))
	assert.Equal(t, uint16(0), nextRamp(0xFF00, 0xFFFF), "wraps before full scale")
	assert.Equal(t, uint16(0x0010), nextRamp(0, 0x0FFF))
	assert.Equal(t, uint16(0), nextRamp(0x0FF0, 0x0FFF))
}

func TestSquareWave(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0xFFFF), squareWave(0, 0xFFFF))
	assert.Equal(t, uint16(0), squareWave(1, 0xFFFF))
	assert.Equal(t, uint16(0x0FFF), squareWave(2, 0x0FFF))
}

func TestRunWaveform(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	dac, err := ltc2688.New(mock, ltc2688.LTC2688, ltc2688.Resolution16Bit)
	require.NoError(t, err)

	require.NoError(t, runWaveform(context.Background(), dac, 2, time.Millisecond, 0))
	assert.Equal(t, [][]byte{
		{0x10, 0x00, 0x00},
		{0x11, 0x00, 0x01},
		{0x00, 0xFF, 0xFF},
		{0x01, 0x01, 0x00},
		{0x7C, 0x00, 0x00},
		{0x00, 0x00, 0x00},
		{0x01, 0x02, 0x00},
		{0x7C, 0x00, 0x00},
	}, mock.Frames())
}

func TestRunWaveform_Cancelled(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	dac, err := ltc2688.New(mock, ltc2688.LTC2686, ltc2688.Resolution12Bit)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = runWaveform(ctx, dac, 100, time.Hour, 0)
	require.ErrorIs(t, err, context.Canceled)
	frames := mock.Frames()
	require.Len(t, frames, 5, "spans plus the first sample")
	assert.Equal(t, []byte{0x00, 0xFF, 0xF0}, frames[2], "12-bit full scale")
	assert.Equal(t, []byte{0x02, 0x01, 0x00}, frames[3], "LTC2686 ch1 at slot 2")
}

func TestRunWaveform_ExchangeError(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	mock.SetError(regbridge.ErrNotConnected)
	dac, err := ltc2688.New(mock, ltc2688.LTC2688, ltc2688.Resolution16Bit)
	require.NoError(t, err)

	require.ErrorIs(t, runWaveform(context.Background(), dac, 1, time.Millisecond, 3), regbridge.ErrNotConnected)
}

func TestRunWaveform_RetriesGarbledSample(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	failures := 1
	mock.ResponseFunc = func(w []byte) ([]byte, error) {
		if w[0] == ltc2688.CmdUpdateAll && failures > 0 {
			failures--
			return nil, regbridge.NewLengthMismatchError("Exchange", "/dev/ttyACM0", 1, 3)
		}
		return make([]byte, len(w)), nil
	}
	dac, err := ltc2688.New(mock, ltc2688.LTC2688, ltc2688.Resolution16Bit)
	require.NoError(t, err)

	require.NoError(t, runWaveform(context.Background(), dac, 1, time.Millisecond, 2))
	assert.Len(t, mock.Frames(), 2+3+3, "spans, failed sample, repeated sample")
}
