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

// Package linduino registers a detector for Linduino and DC590 boards.
package linduino

import (
	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/detection/serialports"
	"github.com/benchlab/go-regbridge/internal/serialline"
	transport "github.com/benchlab/go-regbridge/transport/linduino"
)

// KnownIDs are the USB IDs Linduino boards enumerate with.
var KnownIDs = []string{
	"0403:6001", // FT232R on the Linduino One (DC2026)
}

func init() {
	detection.RegisterDetector(New())
}

// New returns the Linduino detector.
func New() *serialports.ProbeDetector {
	return &serialports.ProbeDetector{
		Family:      "linduino",
		Name:        "Linduino DC590",
		KnownIDs:    KnownIDs,
		ProbeConfig: probeConfig,
	}
}

func probeConfig(opts *detection.Options) serialline.ProbeConfig {
	o := transport.DefaultOptions()
	o.Open = opts.Open
	if opts.SettleDelay > 0 {
		o.SettleDelay = opts.SettleDelay
	}
	return transport.NewProbeConfig(&o)
}
