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

// Package config loads the bench tool configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/transport/linduino"
	"github.com/benchlab/go-regbridge/transport/maxpico"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Detection DetectionConfig `yaml:"detection"`
	Linduino  BridgeConfig    `yaml:"linduino"`
	MAXPICO   BridgeConfig    `yaml:"maxpico"`
	Native    NativeConfig    `yaml:"native"`
	DAC       DACConfig       `yaml:"dac"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level  string        `yaml:"level"`  // debug, info, warn, error
	Format string        `yaml:"format"` // console or json
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig enables a rotated log file when Filename is set.
type LogFileConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ---- DISCOVERY ----

type DetectionConfig struct {
	Blocklist   []string      `yaml:"blocklist"`
	IgnorePaths []string      `yaml:"ignore_paths"`
	Timeout     time.Duration `yaml:"timeout"`
}

// BridgeConfig pins a serial bridge to a port; an empty port scans.
type BridgeConfig struct {
	Port        string        `yaml:"port"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// ---- NATIVE BUSES ----

type NativeConfig struct {
	SPI   string `yaml:"spi"`
	SPIHz int64  `yaml:"spi_hz"`
	I2C   string `yaml:"i2c"`
	I2CHz int64  `yaml:"i2c_hz"`
}

// ---- DAC ----

type DACConfig struct {
	Variant    string         `yaml:"variant"`
	Resolution int            `yaml:"resolution"`
	Spans      map[int]string `yaml:"spans"` // channel => span name
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File: LogFileConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		Detection: DetectionConfig{
			Blocklist: detection.DefaultBlocklist(),
			Timeout:   30 * time.Second,
		},
		Linduino: BridgeConfig{SettleDelay: linduino.DefaultSettleDelay},
		MAXPICO:  BridgeConfig{SettleDelay: maxpico.DefaultSettleDelay},
		DAC: DACConfig{
			Variant:    "LTC2688",
			Resolution: 16,
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LinduinoOptions returns discovery options for the SPI bridge.
func (c *Config) LinduinoOptions() linduino.Options {
	return linduino.Options{
		Port:        c.Linduino.Port,
		Blocklist:   c.Detection.Blocklist,
		IgnorePaths: c.Detection.IgnorePaths,
		SettleDelay: c.Linduino.SettleDelay,
	}
}

// MAXPICOOptions returns discovery options for the I2C bridge.
func (c *Config) MAXPICOOptions() maxpico.Options {
	return maxpico.Options{
		Port:        c.MAXPICO.Port,
		Blocklist:   c.Detection.Blocklist,
		IgnorePaths: c.Detection.IgnorePaths,
		SettleDelay: c.MAXPICO.SettleDelay,
	}
}

// DetectionOptions returns options for detection.DetectAllContext.
func (c *Config) DetectionOptions(mode detection.Mode) detection.Options {
	return detection.Options{
		Mode:        mode,
		Blocklist:   c.Detection.Blocklist,
		IgnorePaths: c.Detection.IgnorePaths,
		Timeout:     c.Detection.Timeout,
	}
}
