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

package main

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
)

const (
	sessionKey        = "$session"
	unconnectedPrompt = "[none] > "
)

// Shell is the ishell front end of a Session.
type Shell struct {
	Shell       *ishell.Shell
	Session     *Session
	Interactive bool
}

// NewShell creates a shell with every command registered.
func NewShell(session *Session, interactive bool) *Shell {
	s := &Shell{
		Shell:       ishell.New(),
		Session:     session,
		Interactive: interactive,
	}
	s.Shell.Set(sessionKey, session)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands() {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// SessionFrom gets the Session from an ishell context.
func SessionFrom(c *ishell.Context) *Session {
	return c.Get(sessionKey).(*Session)
}

// Run executes args as one command, or starts the interactive shell.
func (s *Shell) Run(args ...string) error {
	defer s.Session.Disconnect()

	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if !s.Interactive {
		return fmt.Errorf("command expected")
	}
	s.Shell.Println("benchctl, type help for commands")
	s.Shell.Run()
	return nil
}

// updatePrompt shows the connected bridges.
func updatePrompt(c *ishell.Context, session *Session) {
	var parts []string
	if session.spi != nil {
		parts = append(parts, "spi:"+session.spi.Port())
	}
	if session.i2c != nil {
		parts = append(parts, "i2c:"+session.i2c.Port())
	}
	if len(parts) == 0 {
		c.SetPrompt(unconnectedPrompt)
		return
	}
	c.SetPrompt(fmt.Sprintf("[%s] > ", strings.Join(parts, " ")))
}

// run adapts a session method to an ishell handler.
func run(fn func(s *Session, args []string) (string, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		out, err := fn(SessionFrom(c), c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		if out != "" {
			c.Println(out)
		}
	}
}

func commands() []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name:    "ports",
			Aliases: []string{"l"},
			Help:    "list serial ports",
			Func: run(func(s *Session, _ []string) (string, error) {
				ctx, cancel := withTimeout(s.Config.Detection.Timeout)
				defer cancel()
				return s.Ports(ctx)
			}),
		},
		{
			Name:    "detect",
			Aliases: []string{"d"},
			Help:    "[passive] probe serial ports for bridges",
			Func: run(func(s *Session, args []string) (string, error) {
				ctx, cancel := withTimeout(s.Config.Detection.Timeout)
				defer cancel()
				return s.Detect(ctx, len(args) > 0 && args[0] == "passive")
			}),
		},
		{
			Name:    "spi.connect",
			Aliases: []string{"sc"},
			Help:    "[PORT] bind the SPI bridge",
			Func: func(c *ishell.Context) {
				session := SessionFrom(c)
				ctx, cancel := withTimeout(session.Config.Detection.Timeout)
				defer cancel()
				out, err := session.ConnectSPI(ctx, firstArg(c.Args))
				if err != nil {
					c.Err(err)
					return
				}
				updatePrompt(c, session)
				c.Println(out)
			},
		},
		{
			Name:    "i2c.connect",
			Aliases: []string{"ic"},
			Help:    "[PORT] bind the I2C bridge",
			Func: func(c *ishell.Context) {
				session := SessionFrom(c)
				ctx, cancel := withTimeout(session.Config.Detection.Timeout)
				defer cancel()
				out, err := session.ConnectI2C(ctx, firstArg(c.Args))
				if err != nil {
					c.Err(err)
					return
				}
				updatePrompt(c, session)
				c.Println(out)
			},
		},
		{
			Name: "disconnect",
			Help: "close every bridge",
			Func: func(c *ishell.Context) {
				session := SessionFrom(c)
				session.Disconnect()
				updatePrompt(c, session)
			},
		},
		{
			Name: "version",
			Help: "show bridge identification",
			Func: run(func(s *Session, _ []string) (string, error) {
				return s.Version(), nil
			}),
		},
		{
			Name:    "spi.xfer",
			Aliases: []string{"sx"},
			Help:    "BYTES... full-duplex exchange, bytes in hex",
			Func:    run((*Session).SPIXfer),
		},
		{
			Name: "dac.init",
			Help: "[VARIANT] [RESOLUTION] create the DAC driver on the SPI bridge",
			Func: run((*Session).DACInit),
		},
		{
			Name: "dac.span",
			Help: "CH|all SPAN set output range, e.g. 0-5V, +-10V, +-15V +5%",
			Func: run((*Session).DACSpan),
		},
		{
			Name: "dac.spans",
			Help: "list programmed spans",
			Func: run(func(s *Session, _ []string) (string, error) {
				return s.DACSpans()
			}),
		},
		{
			Name: "dac.code",
			Help: "CH CODE stage a code, applied by dac.update",
			Func: run(func(s *Session, args []string) (string, error) {
				return s.DACCode(args, false)
			}),
		},
		{
			Name: "dac.set",
			Help: "CH CODE write a code and update the channel",
			Func: run(func(s *Session, args []string) (string, error) {
				return s.DACCode(args, true)
			}),
		},
		{
			Name: "dac.volts",
			Help: "CH VOLTS drive a channel within its span",
			Func: run((*Session).DACVolts),
		},
		{
			Name: "dac.update",
			Help: "[CH] latch staged codes",
			Func: run((*Session).DACUpdate),
		},
		{
			Name:    "i2c.read",
			Aliases: []string{"ir"},
			Help:    "ADDR REG [COUNT] read registers, address and register in hex",
			Func:    run((*Session).I2CRead),
		},
		{
			Name:    "i2c.write",
			Aliases: []string{"iw"},
			Help:    "ADDR REG BYTES... write registers, all in hex",
			Func:    run((*Session).I2CWrite),
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
