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
	"fmt"
	"strings"

	regbridge "github.com/benchlab/go-regbridge"
)

// Register commands. The per-channel commands are OR'ed with the channel
// address.
const (
	CmdWriteCode           = 0x00
	CmdWriteSettings       = 0x10
	CmdWriteOffsetAdjust   = 0x20
	CmdWriteGainAdjust     = 0x30
	CmdWriteCodeUpdate     = 0x40
	CmdWriteCodeUpdateAll  = 0x50
	CmdUpdateChannel       = 0x60
	CmdWriteConfig         = 0x70
	CmdWritePowerDown      = 0x71
	CmdWriteABSelect       = 0x72
	CmdWriteSWToggle       = 0x73
	CmdWriteDither         = 0x74
	CmdWriteMuxControl     = 0x75
	CmdWriteFault          = 0x76
	CmdWriteCodeAll        = 0x78
	CmdWriteCodeAllUpdate  = 0x79
	CmdWriteSettingsAll    = 0x7A
	CmdWriteSettingsUpdate = 0x7B
	CmdUpdateAll           = 0x7C
)

// Variant selects the part, which fixes the channel count and addressing.
type Variant int

const (
	// LTC2686 has 8 channels addressed at every other channel slot.
	LTC2686 Variant = iota
	// LTC2688 has 16 channels.
	LTC2688
)

// Channels returns the number of DAC outputs.
func (v Variant) Channels() int {
	if v == LTC2686 {
		return 8
	}
	return 16
}

func (v Variant) String() string {
	switch v {
	case LTC2686:
		return "LTC2686"
	case LTC2688:
		return "LTC2688"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

func (v Variant) valid() bool {
	return v == LTC2686 || v == LTC2688
}

// Resolution is the DAC bit depth.
type Resolution int

const (
	Resolution12Bit Resolution = 12
	Resolution16Bit Resolution = 16
)

// MaxCode returns the full-scale code.
func (r Resolution) MaxCode() uint16 {
	if r == Resolution12Bit {
		return 0x0FFF
	}
	return 0xFFFF
}

func (r Resolution) valid() bool {
	return r == Resolution12Bit || r == Resolution16Bit
}

// Span is the output range field of a channel settings register.
type Span uint8

const (
	Span0To5V      Span = 0x00
	Span0To10V     Span = 0x01
	SpanPM5V       Span = 0x02
	SpanPM10V      Span = 0x03
	SpanPM15V      Span = 0x04
	SpanOverrange5 Span = 0x08 // widens the selected range by 5%
)

const spanRangeMask = 0x07

// Valid reports whether s is one of the five ranges, optionally with the
// overrange bit.
func (s Span) Valid() bool {
	return s&^(spanRangeMask|SpanOverrange5) == 0 && s&spanRangeMask <= SpanPM15V
}

// Range returns the output voltage limits of s.
func (s Span) Range() (lo, hi float64) {
	switch s & spanRangeMask {
	case Span0To5V:
		lo, hi = 0, 5
	case Span0To10V:
		lo, hi = 0, 10
	case SpanPM5V:
		lo, hi = -5, 5
	case SpanPM10V:
		lo, hi = -10, 10
	case SpanPM15V:
		lo, hi = -15, 15
	}
	if s&SpanOverrange5 != 0 {
		lo *= 1.05
		hi *= 1.05
	}
	return lo, hi
}

func (s Span) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Span(0x%02X)", uint8(s))
	}
	lo, hi := s.Range()
	return fmt.Sprintf("%gV..%gV", lo, hi)
}

var spanNames = map[string]Span{
	"0-5V":  Span0To5V,
	"0-10V": Span0To10V,
	"+-5V":  SpanPM5V,
	"+-10V": SpanPM10V,
	"+-15V": SpanPM15V,
	"±5V":   SpanPM5V,
	"±10V":  SpanPM10V,
	"±15V":  SpanPM15V,
}

// ParseSpan parses a range name such as "0-5V" or "+-10V". A "+5%" suffix
// sets the overrange bit.
func ParseSpan(name string) (Span, error) {
	name = strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	var over Span
	if trimmed, ok := strings.CutSuffix(name, "+5%"); ok {
		name = trimmed
		over = SpanOverrange5
	}
	span, ok := spanNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown span %q", regbridge.ErrInvalidArgument, name)
	}
	return span | over, nil
}

// ParseVariant parses a part name such as "LTC2688".
func ParseVariant(name string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "LTC2686", "2686":
		return LTC2686, nil
	case "LTC2688", "2688":
		return LTC2688, nil
	default:
		return 0, fmt.Errorf("%w: unknown DAC variant %q", regbridge.ErrInvalidArgument, name)
	}
}
