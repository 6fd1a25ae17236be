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

// Package maxpico registers a detector for MAXPICO2PMB adapters.
package maxpico

import (
	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/detection/serialports"
	"github.com/benchlab/go-regbridge/internal/serialline"
	transport "github.com/benchlab/go-regbridge/transport/maxpico"
)

// KnownIDs are the USB IDs the adapter firmware enumerates with.
var KnownIDs = []string{
	"2E8A:000A", // Raspberry Pi Pico CDC
}

func init() {
	detection.RegisterDetector(New())
}

// New returns the MAXPICO2PMB detector.
func New() *serialports.ProbeDetector {
	return &serialports.ProbeDetector{
		Family:      "maxpico",
		Name:        "MAXPICO2PMB",
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
