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

package serialports

import (
	"context"
	"errors"
	"strings"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/internal/serialline"
	"go.uber.org/zap"
)

// ProbeDetector is a detection.Detector for bridges identified by a
// command/reply exchange on a serial port.
type ProbeDetector struct {
	// List enumerates ports. Defaults to List.
	List func(ctx context.Context) ([]PortInfo, error)

	// ProbeConfig returns the identification exchange for opts.
	ProbeConfig func(opts *detection.Options) serialline.ProbeConfig

	// Family is returned by Transport, such as "linduino".
	Family string

	// Name labels detected devices.
	Name string

	// KnownIDs holds VID:PID pairs the bridge is known to enumerate with.
	// Passive detection reports them at medium confidence.
	KnownIDs []string
}

// Transport implements detection.Detector.
func (d *ProbeDetector) Transport() string {
	return d.Family
}

// Detect implements detection.Detector. Passive mode reports USB serial
// ports without opening them; Safe mode probes every candidate and reports
// the ones that identify as the bridge.
func (d *ProbeDetector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if opts == nil {
		defaults := detection.DefaultOptions()
		opts = &defaults
	}

	list := d.List
	if list == nil {
		list = List
	}
	ports, err := list(ctx)
	if err != nil {
		return nil, err
	}
	ports = Filter(ports, opts.Blocklist, opts.IgnorePaths)

	var devices []detection.DeviceInfo
	if opts.Mode == detection.Passive {
		devices = d.passive(ports)
	} else {
		devices, err = d.probe(ctx, ports, opts)
		if err != nil {
			return devices, err
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func (d *ProbeDetector) passive(ports []PortInfo) []detection.DeviceInfo {
	var devices []detection.DeviceInfo
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		confidence := detection.Low
		if detection.MatchVIDPID(p.VIDPID, d.KnownIDs) {
			confidence = detection.Medium
		}
		devices = append(devices, d.deviceInfo(p, confidence))
	}
	return devices
}

func (d *ProbeDetector) probe(ctx context.Context, ports []PortInfo, opts *detection.Options) ([]detection.DeviceInfo, error) {
	cfg := d.ProbeConfig(opts)
	log := regbridge.Logger().With(zap.String("detector", d.Family))

	var devices []detection.DeviceInfo
	for _, p := range ports {
		if err := ctx.Err(); err != nil {
			return devices, err
		}

		result := serialline.Probe(ctx, p.Path, cfg)
		if !result.Accepted() {
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return devices, result.Err
			}
			log.Debug("port skipped", zap.String("port", p.Path), zap.Error(result.Err))
			continue
		}
		if err := result.Line.Close(); err != nil {
			log.Warn("failed to release probed port", zap.String("port", p.Path), zap.Error(err))
		}

		info := d.deviceInfo(p, detection.High)
		info.Metadata["identity"] = strings.TrimSpace(string(result.Reply))
		devices = append(devices, info)
	}
	return devices, nil
}

func (d *ProbeDetector) deviceInfo(p PortInfo, confidence detection.Confidence) detection.DeviceInfo {
	metadata := map[string]string{}
	if p.VIDPID != "" {
		metadata["vidpid"] = p.VIDPID
	}
	if p.Product != "" {
		metadata["product"] = p.Product
	}
	if p.SerialNumber != "" {
		metadata["serial"] = p.SerialNumber
	}
	return detection.DeviceInfo{
		Transport:  d.Family,
		Path:       p.Path,
		Name:       d.Name,
		Confidence: confidence,
		Metadata:   metadata,
	}
}
