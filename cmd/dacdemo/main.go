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

// Command dacdemo drives an LTC2688 through a Linduino: channel 0 (0-5V)
// toggles full scale every step and channel 1 (0-10V) ramps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/internal/retry"
	"github.com/benchlab/go-regbridge/ltc2688"
	"github.com/benchlab/go-regbridge/transport/linduino"
	"github.com/benchlab/go-regbridge/transport/native"
)

type config struct {
	devicePath *string
	variant    *string
	resolution *int
	steps      *int
	interval   *time.Duration
	retries    *int
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial port of the Linduino (e.g., /dev/ttyACM0 or COM3), or a host SPI port (e.g., /dev/spidev0.0). "+
				"Leave empty to scan serial ports."),
		variant:    flag.String("variant", "LTC2688", "DAC part: LTC2688 or LTC2686"),
		resolution: flag.Int("resolution", 16, "DAC resolution in bits: 12 or 16"),
		steps:      flag.Int("steps", 2000, "Number of waveform steps"),
		interval:   flag.Duration("interval", 10*time.Millisecond, "Delay between steps"),
		retries:    flag.Int("retries", 2, "Times to repeat a step whose reply came back garbled"),
		debug:      flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		regbridge.SetDebugEnabled(true)
	}

	return cfg
}

type exchangeCloser interface {
	regbridge.Exchanger
	Close() error
}

// newExchanger opens the SPI path to the DAC from a device path.
func newExchanger(ctx context.Context, path string) (exchangeCloser, error) {
	if strings.Contains(strings.ToLower(path), "spi") {
		s, err := native.OpenSPI(path, native.SPIOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to open SPI port: %w", err)
		}
		return s, nil
	}

	opts := linduino.DefaultOptions()
	opts.Port = path
	board, err := linduino.Discover(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search for Linduino: %w", err)
	}
	if !board.IsConnected() {
		return nil, errors.New("serial connection not found")
	}
	_, _ = fmt.Printf("Linduino: %s on %s\n", board.Identity(), board.Port())
	return board, nil
}

// nextRamp advances the channel 1 ramp by 1/256 of full scale, wrapping
// before full scale.
func nextRamp(v, full uint16) uint16 {
	next := int(v) + (int(full)+1)>>8
	if next >= int(full) {
		return 0
	}
	return uint16(next)
}

// squareWave returns the channel 0 code for step i.
func squareWave(i int, full uint16) uint16 {
	if i%2 == 0 {
		return full
	}
	return 0
}

// runWaveform sets the spans and then writes steps waveform samples, one
// every interval, stopping early when ctx ends. A sample failing with a
// retryable error is written again up to retries times.
func runWaveform(ctx context.Context, dac *ltc2688.Device, steps int, interval time.Duration, retries int) error {
	if err := dac.SetSpan(0, ltc2688.Span0To5V); err != nil {
		return err
	}
	if err := dac.SetSpan(1, ltc2688.Span0To10V); err != nil {
		return err
	}

	full := dac.Resolution().MaxCode()
	var ramp uint16
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cfg := retry.Config{
		MaxRetries: retries,
		OnRetry: func(attempt int, err error) {
			regbridge.Logger().Sugar().Debugf("repeating sample, attempt %d: %v", attempt, err)
		},
	}

	for i := 0; i < steps; i++ {
		ramp = nextRamp(ramp, full)

		err := retry.Do(ctx, cfg, func() error {
			if err := dac.SetChannelCode(0, squareWave(i, full)); err != nil {
				return err
			}
			if err := dac.SetChannelCode(1, ramp); err != nil {
				return err
			}
			return dac.UpdateAll()
		})
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func main() {
	cfg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	variant, err := ltc2688.ParseVariant(*cfg.variant)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}

	conn, err := newExchanger(ctx, *cfg.devicePath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	defer func() { _ = conn.Close() }()

	dac, err := ltc2688.New(conn, variant, ltc2688.Resolution(*cfg.resolution))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}

	_, _ = fmt.Printf("Running %d steps at %s, Ctrl-C to stop\n", *cfg.steps, *cfg.interval)
	if err := runWaveform(ctx, dac, *cfg.steps, *cfg.interval, *cfg.retries); err != nil && !errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(os.Stderr, "waveform stopped: %v\n", err)
	}
}
