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

// Package ltc2688 drives LTC2688 and LTC2686 multichannel DACs over any
// full-duplex SPI exchange.
//
// Every command is a 3-byte frame: the register command followed by a
// 16-bit big-endian payload. Codes written with SetChannelCode are staged
// and only reach the outputs after an update command:
//
//	dac, err := ltc2688.New(bridge, ltc2688.LTC2688, ltc2688.Resolution16Bit)
//	if err != nil {
//		return err
//	}
//	_ = dac.SetSpan(0, ltc2688.Span0To5V)
//	_ = dac.SetChannelCode(0, 0xFFFF)
//	_ = dac.UpdateAll()
package ltc2688

import (
	"fmt"
	"math"

	regbridge "github.com/benchlab/go-regbridge"
)

// Device is one DAC behind an SPI exchange. It is not safe for concurrent
// use; callers sharing a Device must serialize access.
type Device struct {
	conn       regbridge.Exchanger
	variant    Variant
	resolution Resolution
}

// New returns a driver for the given part. The exchange is not touched.
func New(conn regbridge.Exchanger, variant Variant, resolution Resolution) (*Device, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil exchanger", regbridge.ErrInvalidConfig)
	}
	if !variant.valid() {
		return nil, fmt.Errorf("%w: unknown variant %v", regbridge.ErrInvalidConfig, variant)
	}
	if !resolution.valid() {
		return nil, fmt.Errorf("%w: unsupported resolution %d", regbridge.ErrInvalidConfig, int(resolution))
	}
	return &Device{conn: conn, variant: variant, resolution: resolution}, nil
}

// Variant returns the part the driver was created for.
func (d *Device) Variant() Variant {
	return d.variant
}

// Resolution returns the DAC bit depth.
func (d *Device) Resolution() Resolution {
	return d.resolution
}

// SetSpan sets the output range of channel ch.
func (d *Device) SetSpan(ch int, span Span) error {
	addr, err := d.channelAddr(ch)
	if err != nil {
		return err
	}
	if err := checkSpan(span); err != nil {
		return err
	}
	return d.WriteReg(CmdWriteSettings|addr, uint16(span))
}

// SetChannelCode stages code for channel ch. The output does not change
// until UpdateChannel or UpdateAll.
func (d *Device) SetChannelCode(ch int, code uint16) error {
	return d.writeChannelCode(CmdWriteCode, ch, code)
}

// WriteCodeAndUpdate writes code to channel ch and updates that output.
func (d *Device) WriteCodeAndUpdate(ch int, code uint16) error {
	return d.writeChannelCode(CmdWriteCodeUpdate, ch, code)
}

// WriteCodeUpdateAll writes code to channel ch and updates every output.
func (d *Device) WriteCodeUpdateAll(ch int, code uint16) error {
	return d.writeChannelCode(CmdWriteCodeUpdateAll, ch, code)
}

// UpdateChannel latches the staged code of channel ch to its output.
func (d *Device) UpdateChannel(ch int) error {
	addr, err := d.channelAddr(ch)
	if err != nil {
		return err
	}
	return d.WriteReg(CmdUpdateChannel|addr, 0)
}

// UpdateAll latches every staged code to its output.
func (d *Device) UpdateAll() error {
	return d.WriteReg(CmdUpdateAll, 0)
}

// WriteCodeAll stages code on every channel.
func (d *Device) WriteCodeAll(code uint16) error {
	payload, err := d.codePayload(code)
	if err != nil {
		return err
	}
	return d.WriteReg(CmdWriteCodeAll, payload)
}

// WriteCodeAllUpdate writes code to every channel and updates all outputs.
func (d *Device) WriteCodeAllUpdate(code uint16) error {
	payload, err := d.codePayload(code)
	if err != nil {
		return err
	}
	return d.WriteReg(CmdWriteCodeAllUpdate, payload)
}

// SetSpanAll sets the output range of every channel.
func (d *Device) SetSpanAll(span Span) error {
	if err := checkSpan(span); err != nil {
		return err
	}
	return d.WriteReg(CmdWriteSettingsAll, uint16(span))
}

// SetSpanAllUpdate sets the output range of every channel and updates all
// outputs.
func (d *Device) SetSpanAllUpdate(span Span) error {
	if err := checkSpan(span); err != nil {
		return err
	}
	return d.WriteReg(CmdWriteSettingsUpdate, uint16(span))
}

// SetOffsetAdjust writes the raw offset adjust register of channel ch.
func (d *Device) SetOffsetAdjust(ch int, value uint16) error {
	addr, err := d.channelAddr(ch)
	if err != nil {
		return err
	}
	return d.WriteReg(CmdWriteOffsetAdjust|addr, value)
}

// SetGainAdjust writes the raw gain adjust register of channel ch.
func (d *Device) SetGainAdjust(ch int, value uint16) error {
	addr, err := d.channelAddr(ch)
	if err != nil {
		return err
	}
	return d.WriteReg(CmdWriteGainAdjust|addr, value)
}

// SetPowerDown writes the power-down register; bit n powers down channel
// slot n.
func (d *Device) SetPowerDown(mask uint16) error {
	return d.WriteReg(CmdWritePowerDown, mask)
}

// SetConfig writes the raw config register.
func (d *Device) SetConfig(value uint16) error {
	return d.WriteReg(CmdWriteConfig, value)
}

// WriteReg sends one command frame. The bytes clocked back carry nothing
// for a write and are dropped.
func (d *Device) WriteReg(reg uint8, value uint16) error {
	frame := []byte{reg, byte(value >> 8), byte(value)}
	if _, err := d.conn.Exchange(frame); err != nil {
		return fmt.Errorf("write register 0x%02X: %w", reg, err)
	}
	return nil
}

// CodeForVoltage returns the code that drives volts on a channel set to
// span, rounded to the nearest step at the device resolution.
func (d *Device) CodeForVoltage(span Span, volts float64) (uint16, error) {
	if err := checkSpan(span); err != nil {
		return 0, err
	}
	lo, hi := span.Range()
	if math.IsNaN(volts) || volts < lo || volts > hi {
		return 0, fmt.Errorf("%w: %gV outside span %v", regbridge.ErrInvalidArgument, volts, span)
	}
	full := float64(d.resolution.MaxCode())
	return uint16(math.Round((volts - lo) / (hi - lo) * full)), nil
}

func (d *Device) writeChannelCode(cmd uint8, ch int, code uint16) error {
	addr, err := d.channelAddr(ch)
	if err != nil {
		return err
	}
	payload, err := d.codePayload(code)
	if err != nil {
		return err
	}
	return d.WriteReg(cmd|addr, payload)
}

// channelAddr maps a channel index to its register address. LTC2686
// channels sit at every other LTC2688 slot.
func (d *Device) channelAddr(ch int) (uint8, error) {
	if ch < 0 || ch >= d.variant.Channels() {
		return 0, fmt.Errorf("%w: channel %d out of range for %v (0..%d)",
			regbridge.ErrInvalidArgument, ch, d.variant, d.variant.Channels()-1)
	}
	if d.variant == LTC2686 {
		return uint8(ch << 1), nil
	}
	return uint8(ch), nil
}

// codePayload left-justifies 12-bit codes.
func (d *Device) codePayload(code uint16) (uint16, error) {
	if code > d.resolution.MaxCode() {
		return 0, fmt.Errorf("%w: code 0x%X exceeds %d-bit range",
			regbridge.ErrInvalidArgument, code, int(d.resolution))
	}
	if d.resolution == Resolution12Bit {
		return code << 4, nil
	}
	return code, nil
}

func checkSpan(span Span) error {
	if !span.Valid() {
		return fmt.Errorf("%w: invalid span 0x%02X", regbridge.ErrInvalidArgument, uint8(span))
	}
	return nil
}
