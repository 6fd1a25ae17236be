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

// Command benchctl is an interactive shell for bench work with the serial
// SPI and I2C bridges: port discovery, raw SPI exchanges, LTC2688 DAC
// control and I2C register access.
//
// Run a single command with arguments, e.g.
//
//	benchctl -config bench.yaml i2c.connect COM7
//
// or start the shell without any.
package main

import (
	"flag"
	"fmt"
	"os"

	regbridge "github.com/benchlab/go-regbridge"
	_ "github.com/benchlab/go-regbridge/detection/linduino"
	_ "github.com/benchlab/go-regbridge/detection/maxpico"
	"github.com/benchlab/go-regbridge/internal/config"
	"github.com/benchlab/go-regbridge/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	evalOnly := flag.Bool("e", false, "evaluation only, no interactive shell")
	nativeBus := flag.Bool("native", false, "use the host SPI/I2C controllers instead of USB bridges")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	logger := logging.NewStderr(cfg.Log)
	defer func() { _ = logger.Sync() }()
	regbridge.SetLogger(logger)

	session := NewSession(cfg)
	session.Native = *nativeBus

	if err := NewShell(session, !*evalOnly).Run(flag.Args()...); err != nil {
		logger.Sugar().Errorf("%v", err)
		os.Exit(1)
	}
}
