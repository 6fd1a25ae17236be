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

/*
Package regbridge provides Go access to SPI and I2C parts on the bench
through USB serial bridge boards.

Two bridges are supported:
  - Linduino / DC590 (transport/linduino): an Arduino sketch that turns
    ASCII commands into SPI transactions.
  - MAXPICO2PMB (transport/maxpico): a Raspberry Pi Pico adapter that turns
    ASCII commands into I2C register reads and writes.

Both find their board by scanning serial ports and sending an
identification command. A scan that finds nothing is not an error: the
returned handle reports IsConnected() == false.

Basic Usage:

	import (
	    "github.com/benchlab/go-regbridge/ltc2688"
	    "github.com/benchlab/go-regbridge/transport/linduino"
	)

	board, err := linduino.New("")
	if err != nil {
	    log.Fatal(err)
	}
	if !board.IsConnected() {
	    log.Fatal("serial connection not found")
	}
	defer board.Close()

	dac, err := ltc2688.New(board, ltc2688.LTC2688, ltc2688.Resolution16Bit)
	if err != nil {
	    log.Fatal(err)
	}
	_ = dac.SetSpan(0, ltc2688.Span0To5V)
	_ = dac.SetChannelCode(0, 0xFFFF)
	_ = dac.UpdateAll()

periph.io Interop:

The Linduino transport implements periph's spi.Conn, and I2CBus turns any
RegisterBus into a periph i2c.Bus, so periph device drivers can run through
the bridges. ExchangerFromSPI goes the other way and runs the register
drivers here on a native periph SPI port.

Error Handling:

Failures wrap the sentinel errors of this package and can be inspected
with errors.Is:

	if errors.Is(err, regbridge.ErrBusNack) {
	    // the target did not acknowledge
	}

IsRetryable reports whether a failure may succeed if repeated; nothing in
the library retries on its own.

Thread Safety:

Transport and driver handles are not safe for concurrent use. Serialize
access in your application if it shares a handle between goroutines.
*/
package regbridge
