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

// Package detection finds serial bridge boards attached to the host.
//
// Detectors for each bridge family register themselves on import:
//
//	import _ "github.com/benchlab/go-regbridge/detection/linduino"
//	import _ "github.com/benchlab/go-regbridge/detection/maxpico"
//
//	devices, err := detection.DetectAll(nil)
package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
)

var (
	// ErrNoDevicesFound is returned when no detector found a device.
	ErrNoDevicesFound = errors.New("no devices found")

	// ErrDetectionTimeout is returned when Options.Timeout elapsed first.
	ErrDetectionTimeout = errors.New("detection timeout")
)

// Mode controls how intrusive detection is.
type Mode int

const (
	// Passive only enumerates ports; nothing is opened or written.
	Passive Mode = iota
	// Safe opens each candidate and sends the identification command.
	Safe
)

// Confidence expresses how sure a detector is about a device.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// DeviceInfo describes a detected bridge.
type DeviceInfo struct {
	Metadata   map[string]string
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// Options configures detection.
type Options struct {
	// Open opens candidate ports; nil uses real serial ports.
	Open regbridge.SerialOpener

	// Blocklist holds VID:PID pairs that are never probed.
	Blocklist []string

	// IgnorePaths holds port paths that are never probed.
	IgnorePaths []string

	// Mode selects passive enumeration or active probing.
	Mode Mode

	// Timeout bounds the whole detection run; zero means no limit.
	Timeout time.Duration

	// SettleDelay overrides each detector's post-open delay when non-zero.
	SettleDelay time.Duration
}

// DefaultOptions returns safe-mode options with a 30s overall timeout.
func DefaultOptions() Options {
	return Options{
		Mode:      Safe,
		Timeout:   30 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds devices of one bridge family.
type Detector interface {
	// Transport names the family, such as "linduino".
	Transport() string

	// Detect returns every device of the family it found.
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   []Detector
)

// RegisterDetector adds d to the set used by DetectAll. Detectors call it
// from init.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// Detectors returns the registered detectors.
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]Detector(nil), registry...)
}

// DetectAll runs every registered detector.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	return DetectAllContext(context.Background(), opts)
}

// DetectAllContext runs every registered detector in registration order.
// A failing detector is logged and skipped.
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var devices []DeviceInfo
	for _, d := range Detectors() {
		found, err := d.Detect(ctx, opts)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return devices, fmt.Errorf("%w: %w", ErrDetectionTimeout, err)
			}
			if errors.Is(err, context.Canceled) {
				return devices, err
			}
			if !errors.Is(err, ErrNoDevicesFound) {
				regbridge.Logger().Sugar().Warnf("%s detector failed: %v", d.Transport(), err)
			}
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
