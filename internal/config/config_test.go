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
	"os"
	"path/filepath"
	"testing"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/ltc2688"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log:
  level: debug
  file:
    filename: /tmp/benchctl.log
    compress: true
detection:
  ignore_paths: [/dev/ttyS0]
  timeout: 5s
linduino:
  port: /dev/ttyACM0
  settle_delay: 2500ms
maxpico:
  port: COM7
native:
  spi: /dev/spidev0.0
  spi_hz: 2000000
dac:
  variant: LTC2686
  resolution: 12
  spans:
    0: 0-5V
    1: +-10V +5%
`

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, 10, cfg.Log.File.MaxSizeMB)
	assert.True(t, cfg.Log.File.Compress)
	assert.Equal(t, detection.DefaultBlocklist(), cfg.Detection.Blocklist)
	assert.Equal(t, 5*time.Second, cfg.Detection.Timeout)
	assert.Equal(t, 2500*time.Millisecond, cfg.Linduino.SettleDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.MAXPICO.SettleDelay)
	assert.Equal(t, int64(2000000), cfg.Native.SPIHz)

	lo := cfg.LinduinoOptions()
	assert.Equal(t, "/dev/ttyACM0", lo.Port)
	assert.Equal(t, []string{"/dev/ttyS0"}, lo.IgnorePaths)
	assert.Equal(t, "COM7", cfg.MAXPICOOptions().Port)

	opts := cfg.DetectionOptions(detection.Passive)
	assert.Equal(t, detection.Passive, opts.Mode)
	assert.Equal(t, 5*time.Second, opts.Timeout)

	variant, resolution, err := cfg.DAC.Part()
	require.NoError(t, err)
	assert.Equal(t, ltc2688.LTC2686, variant)
	assert.Equal(t, ltc2688.Resolution12Bit, resolution)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("linduino:\n  baud: 9600\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "trace" }},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "blocklist entry", mutate: func(c *Config) { c.Detection.Blocklist = []string{"1366-0105"} }},
		{name: "negative timeout", mutate: func(c *Config) { c.Detection.Timeout = -time.Second }},
		{name: "negative settle", mutate: func(c *Config) { c.MAXPICO.SettleDelay = -1 }},
		{name: "variant", mutate: func(c *Config) { c.DAC.Variant = "LTC2664" }},
		{name: "resolution", mutate: func(c *Config) { c.DAC.Resolution = 14 }},
		{name: "span channel", mutate: func(c *Config) { c.DAC.Spans = map[int]string{16: "0-5V"} }},
		{name: "span channel on LTC2686", mutate: func(c *Config) {
			c.DAC.Variant = "LTC2686"
			c.DAC.Spans = map[int]string{8: "0-5V"}
		}},
		{name: "span name", mutate: func(c *Config) { c.DAC.Spans = map[int]string{0: "0-20V"} }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestApplySpans(t *testing.T) {
	t.Parallel()

	mock := regbridge.NewMockExchanger()
	dev, err := ltc2688.New(mock, ltc2688.LTC2688, ltc2688.Resolution16Bit)
	require.NoError(t, err)

	dac := DACConfig{Spans: map[int]string{3: "+-5V", 0: "0-10V"}}
	require.NoError(t, dac.ApplySpans(dev))
	assert.Equal(t, [][]byte{{0x10, 0x00, 0x01}, {0x13, 0x00, 0x02}}, mock.Frames())
}
