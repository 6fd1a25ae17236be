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

package serialline

import (
	"context"
	"errors"
	"fmt"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"go.uber.org/zap"
)

// ErrRejected is returned in a ProbeResult when the port answered but the
// reply did not identify the expected device.
var ErrRejected = errors.New("identification reply rejected")

// ProbeConfig describes the identification exchange for one bridge family.
type ProbeConfig struct {
	// Open opens a candidate port. Defaults to Open.
	Open regbridge.SerialOpener

	// Accept decides whether the identification reply came from the device.
	Accept func(reply []byte) bool

	// Device names the bridge family in log output.
	Device string

	// Command is written after the port settled and its input was flushed.
	Command string

	// SettleDelay is how long to wait after opening before talking; boards
	// that reset on open need it.
	SettleDelay time.Duration
}

// ProbeResult is the outcome of probing one candidate port. Exactly one of
// Line and Err is set.
type ProbeResult struct {
	Err   error
	Line  *Line
	Port  string
	Reply []byte
}

// Accepted reports whether the port answered as the expected device.
func (r ProbeResult) Accepted() bool {
	return r.Line != nil
}

// Probe opens name and runs the identification exchange. On success the port
// is left open in the returned Line; on every other path it is closed.
func Probe(ctx context.Context, name string, cfg ProbeConfig) ProbeResult {
	result := ProbeResult{Port: name}

	open := cfg.Open
	if open == nil {
		open = Open
	}

	port, err := open(name)
	if err != nil {
		result.Err = err
		return result
	}
	line := NewLine(port, name)

	accepted := false
	defer func() {
		if !accepted {
			_ = line.Close()
		}
	}()

	if cfg.SettleDelay > 0 {
		timer := time.NewTimer(cfg.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Err = fmt.Errorf("probe of %s cancelled: %w", name, ctx.Err())
			return result
		case <-timer.C:
		}
	}

	if err := line.Discard(); err != nil {
		result.Err = err
		return result
	}
	if err := line.WriteString(cfg.Command); err != nil {
		result.Err = err
		return result
	}

	reply, err := line.ReadLine()
	if err != nil {
		result.Err = err
		return result
	}
	result.Reply = reply

	if cfg.Accept == nil || !cfg.Accept(reply) {
		result.Err = fmt.Errorf("%w: %s answered %q", ErrRejected, name, reply)
		return result
	}

	accepted = true
	result.Line = line
	return result
}

// Scan probes candidates in order and returns the first accepted result.
// Per-port failures are logged and scanning moves on. If nothing matched
// the returned result is not Accepted and the error is nil; the error is
// only set when ctx ended the scan.
func Scan(ctx context.Context, candidates []string, cfg ProbeConfig) (ProbeResult, error) {
	log := regbridge.Logger().With(zap.String("device", cfg.Device))

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return ProbeResult{}, fmt.Errorf("scan cancelled: %w", err)
		}

		result := Probe(ctx, name, cfg)
		if result.Accepted() {
			log.Info("found device", zap.String("port", name))
			return result, nil
		}

		if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
			return ProbeResult{}, result.Err
		}
		if errors.Is(result.Err, ErrRejected) {
			log.Debug("port rejected", zap.String("port", name), zap.Error(result.Err))
			continue
		}
		log.Warn("error probing port", zap.String("port", name), zap.Error(result.Err))
	}

	log.Info("no device found", zap.Int("candidates", len(candidates)))
	return ProbeResult{}, nil
}
