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

// Package serialports enumerates the serial ports a bridge could sit on.
package serialports

import (
	"context"
	"fmt"
	"sort"

	"github.com/benchlab/go-regbridge/detection"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes one serial port.
type PortInfo struct {
	Path         string
	VIDPID       string // "VID:PID", empty for non-USB ports
	Product      string
	SerialNumber string
	IsUSB        bool
}

// List returns the serial ports present on the host, sorted by path.
// USB metadata is filled in when the platform enumerator provides it.
func List(ctx context.Context) ([]PortInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return listNames()
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if !isCharDevice(d.Name) {
			continue
		}
		port := PortInfo{
			Path:         d.Name,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
			IsUSB:        d.IsUSB,
		}
		if d.IsUSB && d.VID != "" && d.PID != "" {
			port.VIDPID = fmt.Sprintf("%s:%s", d.VID, d.PID)
		}
		ports = append(ports, port)
	}

	sortByPath(ports)
	return ports, nil
}

// listNames is the fallback when the detailed enumerator is unavailable.
func listNames() ([]PortInfo, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(names))
	for _, name := range names {
		if isCharDevice(name) {
			ports = append(ports, PortInfo{Path: name})
		}
	}

	sortByPath(ports)
	return ports, nil
}

// Filter drops ports whose VID:PID is blocklisted or whose path is ignored.
func Filter(ports []PortInfo, blocklist, ignorePaths []string) []PortInfo {
	kept := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if detection.IsBlocked(p.VIDPID, blocklist) || detection.IsPathIgnored(p.Path, ignorePaths) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Candidates lists the port paths worth probing.
func Candidates(ctx context.Context, blocklist, ignorePaths []string) ([]string, error) {
	ports, err := List(ctx)
	if err != nil {
		return nil, err
	}

	ports = Filter(ports, blocklist, ignorePaths)
	paths := make([]string, len(ports))
	for i, p := range ports {
		paths[i] = p.Path
	}
	return paths, nil
}

func sortByPath(ports []PortInfo) {
	sort.Slice(ports, func(i, j int) bool { return ports[i].Path < ports[j].Path })
}
