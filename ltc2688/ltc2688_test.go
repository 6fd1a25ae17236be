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

package ltc2688

import (
	"errors"
	"testing"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, variant Variant, resolution Resolution) (*Device, *regbridge.MockExchanger) {
	t.Helper()
	mock := regbridge.NewMockExchanger()
	dev, err := New(mock, variant, resolution)
	require.NoError(t, err)
	return dev, mock
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	tests := []struct {
		conn       regbridge.Exchanger
		name       string
		variant    Variant
		resolution Resolution
	}{
		{name: "unknown variant", conn: mock, variant: Variant(2), resolution: Resolution16Bit},
		{name: "unknown resolution", conn: mock, variant: LTC2688, resolution: Resolution(14)},
		{name: "nil exchanger", conn: nil, variant: LTC2688, resolution: Resolution16Bit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dev, err := New(tt.conn, tt.variant, tt.resolution)
			require.ErrorIs(t, err, regbridge.ErrInvalidConfig)
			assert.Nil(t, dev)
		})
	}
	assert.Empty(t, mock.Frames())
}

func TestScenario_SpanCodeUpdate(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2688, Resolution16Bit)

	require.NoError(t, dev.SetSpan(0, Span0To5V))
	require.NoError(t, dev.SetChannelCode(0, 0xFFFF))
	require.NoError(t, dev.UpdateAll())

	assert.Equal(t, [][]byte{
		{0x10, 0x00, 0x00},
		{0x00, 0xFF, 0xFF},
		{0x7C, 0x00, 0x00},
	}, mock.Frames())
}

func TestChannelAddressing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    []byte
		variant Variant
		ch      int
	}{
		{name: "LTC2688 ch1", variant: LTC2688, ch: 1, want: []byte{0x11, 0x00, 0x01}},
		{name: "LTC2688 ch15", variant: LTC2688, ch: 15, want: []byte{0x1F, 0x00, 0x01}},
		{name: "LTC2686 ch1", variant: LTC2686, ch: 1, want: []byte{0x12, 0x00, 0x01}},
		{name: "LTC2686 ch7", variant: LTC2686, ch: 7, want: []byte{0x1E, 0x00, 0x01}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dev, mock := newTestDevice(t, tt.variant, Resolution16Bit)
			require.NoError(t, dev.SetSpan(tt.ch, Span0To10V))
			assert.Equal(t, tt.want, mock.LastFrame())
		})
	}
}

func TestChannelBounds(t *testing.T) {
	t.Parallel()

	for _, variant := range []Variant{LTC2686, LTC2688} {
		variant := variant
		t.Run(variant.String(), func(t *testing.T) {
			t.Parallel()
			dev, mock := newTestDevice(t, variant, Resolution16Bit)
			last := variant.Channels() - 1

			require.NoError(t, dev.SetChannelCode(last, 0x1234))
			mock.Reset()

			ops := map[string]func(ch int) error{
				"SetSpan":            func(ch int) error { return dev.SetSpan(ch, Span0To5V) },
				"SetChannelCode":     func(ch int) error { return dev.SetChannelCode(ch, 0) },
				"WriteCodeAndUpdate": func(ch int) error { return dev.WriteCodeAndUpdate(ch, 0) },
				"WriteCodeUpdateAll": func(ch int) error { return dev.WriteCodeUpdateAll(ch, 0) },
				"UpdateChannel":      dev.UpdateChannel,
				"SetOffsetAdjust":    func(ch int) error { return dev.SetOffsetAdjust(ch, 0) },
				"SetGainAdjust":      func(ch int) error { return dev.SetGainAdjust(ch, 0) },
			}
			for name, op := range ops {
				assert.ErrorIs(t, op(variant.Channels()), regbridge.ErrInvalidArgument, name)
				assert.ErrorIs(t, op(-1), regbridge.ErrInvalidArgument, name)
			}
			assert.Empty(t, mock.Frames(), "validation precedes I/O")
		})
	}
}

func TestSetChannelCode_Resolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		want       []byte
		resolution Resolution
		code       uint16
	}{
		{name: "12-bit left justified", resolution: Resolution12Bit, code: 0x0ABC, want: []byte{0x00, 0xAB, 0xC0}},
		{name: "12-bit full scale", resolution: Resolution12Bit, code: 0x0FFF, want: []byte{0x00, 0xFF, 0xF0}},
		{name: "16-bit unshifted", resolution: Resolution16Bit, code: 0x0ABC, want: []byte{0x00, 0x0A, 0xBC}},
		{name: "16-bit byte split", resolution: Resolution16Bit, code: 0x1234, want: []byte{0x00, 0x12, 0x34}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dev, mock := newTestDevice(t, LTC2688, tt.resolution)
			require.NoError(t, dev.SetChannelCode(0, tt.code))
			assert.Equal(t, tt.want, mock.LastFrame())
		})
	}
}

func TestSetChannelCode_12BitOverflow(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2688, Resolution12Bit)
	require.ErrorIs(t, dev.SetChannelCode(0, 0x1000), regbridge.ErrInvalidArgument)
	require.ErrorIs(t, dev.WriteCodeAll(0xFFFF), regbridge.ErrInvalidArgument)
	assert.Empty(t, mock.Frames())
}

func TestSpanValidation(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2688, Resolution16Bit)

	require.NoError(t, dev.SetSpan(2, SpanPM15V|SpanOverrange5))
	assert.Equal(t, []byte{0x12, 0x00, 0x0C}, mock.LastFrame())
	mock.Reset()

	for _, span := range []Span{0x05, 0x07, 0x10, 0x0F, 0xFF} {
		assert.ErrorIs(t, dev.SetSpan(0, span), regbridge.ErrInvalidArgument, "span 0x%02X", uint8(span))
		assert.ErrorIs(t, dev.SetSpanAll(span), regbridge.ErrInvalidArgument)
		assert.ErrorIs(t, dev.SetSpanAllUpdate(span), regbridge.ErrInvalidArgument)
	}
	assert.Empty(t, mock.Frames())
}

func TestBroadcastCommands(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2686, Resolution12Bit)

	require.NoError(t, dev.WriteCodeAll(0x0800))
	require.NoError(t, dev.WriteCodeAllUpdate(0x0FFF))
	require.NoError(t, dev.SetSpanAll(SpanPM10V))
	require.NoError(t, dev.SetSpanAllUpdate(Span0To10V))
	require.NoError(t, dev.SetPowerDown(0x00AA))
	require.NoError(t, dev.SetConfig(0x0001))
	require.NoError(t, dev.UpdateChannel(3))
	require.NoError(t, dev.WriteCodeAndUpdate(2, 0x0001))
	require.NoError(t, dev.WriteCodeUpdateAll(1, 0x0002))
	require.NoError(t, dev.SetOffsetAdjust(4, 0x1FFF))
	require.NoError(t, dev.SetGainAdjust(5, 0x0100))

	assert.Equal(t, [][]byte{
		{0x78, 0x80, 0x00},
		{0x79, 0xFF, 0xF0},
		{0x7A, 0x00, 0x03},
		{0x7B, 0x00, 0x01},
		{0x71, 0x00, 0xAA},
		{0x70, 0x00, 0x01},
		{0x66, 0x00, 0x00},
		{0x44, 0x00, 0x10},
		{0x52, 0x00, 0x20},
		{0x28, 0x1F, 0xFF},
		{0x3A, 0x01, 0x00},
	}, mock.Frames())
}

func TestWriteReg_ExchangeError(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2688, Resolution16Bit)
	mock.SetError(regbridge.NewLengthMismatchError("Exchange", "/dev/ttyACM0", 2, 3))

	err := dev.UpdateAll()
	require.ErrorIs(t, err, regbridge.ErrLengthMismatch)
	assert.True(t, regbridge.IsRetryable(err))

	mock.SetError(errors.New("unplugged"))
	assert.EqualError(t, dev.WriteReg(0x70, 0), "write register 0x70: unplugged")
}

func TestWriteReg_ValueSplit(t *testing.T) {
	t.Parallel()

	dev, mock := newTestDevice(t, LTC2688, Resolution16Bit)
	values := []uint32{0x0000, 0x0001, 0x00FF, 0x0100, 0x7FFF, 0x8000, 0xFF00, 0xFFFF}
	for v := uint32(0); v <= 0xFFFF; v += 0x0101 {
		values = append(values, v)
	}

	for _, v := range values {
		require.NoError(t, dev.WriteReg(CmdWriteConfig, uint16(v)))
		frame := mock.LastFrame()
		require.Len(t, frame, 3)
		assert.Equal(t, byte(CmdWriteConfig), frame[0])
		assert.Equal(t, byte(v>>8), frame[1], "high byte of 0x%04X", v)
		assert.Equal(t, byte(v&0xFF), frame[2], "low byte of 0x%04X", v)
	}
	assert.Len(t, mock.Frames(), len(values))
}

func TestCodeForVoltage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		resolution Resolution
		span       Span
		volts      float64
		want       uint16
	}{
		{name: "zero", resolution: Resolution16Bit, span: Span0To5V, volts: 0, want: 0},
		{name: "full scale", resolution: Resolution16Bit, span: Span0To10V, volts: 10, want: 0xFFFF},
		{name: "bipolar midscale", resolution: Resolution16Bit, span: SpanPM10V, volts: 0, want: 0x8000},
		{name: "bipolar negative rail", resolution: Resolution16Bit, span: SpanPM5V, volts: -5, want: 0},
		{name: "12-bit full scale", resolution: Resolution12Bit, span: Span0To5V, volts: 5, want: 0x0FFF},
		{name: "overrange top", resolution: Resolution16Bit, span: Span0To5V | SpanOverrange5, volts: 5.25, want: 0xFFFF},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dev, _ := newTestDevice(t, LTC2688, tt.resolution)
			got, err := dev.CodeForVoltage(tt.span, tt.volts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodeForVoltage_OutOfRange(t *testing.T) {
	t.Parallel()

	dev, _ := newTestDevice(t, LTC2688, Resolution16Bit)

	_, err := dev.CodeForVoltage(Span0To5V, 5.1)
	require.ErrorIs(t, err, regbridge.ErrInvalidArgument)
	_, err = dev.CodeForVoltage(Span0To5V, -0.1)
	require.ErrorIs(t, err, regbridge.ErrInvalidArgument)
	_, err = dev.CodeForVoltage(Span(0x06), 1)
	require.ErrorIs(t, err, regbridge.ErrInvalidArgument)
}

func TestSpan_Range(t *testing.T) {
	t.Parallel()

	lo, hi := SpanPM15V.Range()
	assert.InDelta(t, -15.0, lo, 1e-9)
	assert.InDelta(t, 15.0, hi, 1e-9)

	lo, hi = (SpanPM10V | SpanOverrange5).Range()
	assert.InDelta(t, -10.5, lo, 1e-9)
	assert.InDelta(t, 10.5, hi, 1e-9)

	assert.Equal(t, "0V..10V", Span0To10V.String())
	assert.Equal(t, "Span(0x07)", Span(0x07).String())
	assert.Equal(t, "Variant(9)", Variant(9).String())
}

func TestParseSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Span
		wantErr bool
	}{
		{name: "0-5V", want: Span0To5V},
		{name: "0-10v", want: Span0To10V},
		{name: "+-5V", want: SpanPM5V},
		{name: "±10V", want: SpanPM10V},
		{name: "+-15V +5%", want: SpanPM15V | SpanOverrange5},
		{name: "0-20V", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSpan(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, regbridge.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	v, err := ParseVariant("ltc2686")
	require.NoError(t, err)
	assert.Equal(t, LTC2686, v)

	v, err = ParseVariant("2688")
	require.NoError(t, err)
	assert.Equal(t, LTC2688, v)

	_, err = ParseVariant("LTC2664")
	assert.ErrorIs(t, err, regbridge.ErrInvalidArgument)
}
