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

package config

import "github.com/benchlab/go-regbridge/ltc2688"

// Part returns the configured DAC variant and resolution. Call Validate first.
func (d DACConfig) Part() (ltc2688.Variant, ltc2688.Resolution, error) {
	variant, err := ltc2688.ParseVariant(d.Variant)
	if err != nil {
		return 0, 0, err
	}
	return variant, ltc2688.Resolution(d.Resolution), nil
}

// ApplySpans programs every configured channel span on dev.
func (d DACConfig) ApplySpans(dev *ltc2688.Device) error {
	for ch := 0; ch < dev.Variant().Channels(); ch++ {
		name, ok := d.Spans[ch]
		if !ok {
			continue
		}
		span, err := ltc2688.ParseSpan(name)
		if err != nil {
			return err
		}
		if err := dev.SetSpan(ch, span); err != nil {
			return err
		}
	}
	return nil
}
