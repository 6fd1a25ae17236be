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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benchlab/go-regbridge/ltc2688"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", cfg.Log.Format)
	}
	if f := cfg.Log.File; f.Filename != "" && (f.MaxSizeMB < 0 || f.MaxBackups < 0 || f.MaxAgeDays < 0) {
		return fmt.Errorf("log.file: rotation limits must not be negative")
	}

	if cfg.Detection.Timeout < 0 {
		return fmt.Errorf("detection.timeout must not be negative")
	}
	for _, id := range cfg.Detection.Blocklist {
		if !isVIDPID(id) {
			return fmt.Errorf("detection.blocklist: %q is not VID:PID", id)
		}
	}
	if cfg.Linduino.SettleDelay < 0 || cfg.MAXPICO.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	if cfg.Native.SPIHz < 0 || cfg.Native.I2CHz < 0 {
		return fmt.Errorf("native bus frequencies must not be negative")
	}

	return validateDAC(cfg.DAC)
}

func validateDAC(dac DACConfig) error {
	variant, err := ltc2688.ParseVariant(dac.Variant)
	if err != nil {
		return fmt.Errorf("dac.variant: %w", err)
	}
	if dac.Resolution != 12 && dac.Resolution != 16 {
		return fmt.Errorf("dac.resolution %d: want 12 or 16", dac.Resolution)
	}

	channels := make([]int, 0, len(dac.Spans))
	for ch := range dac.Spans {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		if ch < 0 || ch >= variant.Channels() {
			return fmt.Errorf("dac.spans: channel %d out of range for %v", ch, variant)
		}
		if _, err := ltc2688.ParseSpan(dac.Spans[ch]); err != nil {
			return fmt.Errorf("dac.spans[%d]: %w", ch, err)
		}
	}
	return nil
}

func isVIDPID(s string) bool {
	vid, pid, ok := strings.Cut(s, ":")
	return ok && isHex4(vid) && isHex4(pid)
}

func isHex4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
