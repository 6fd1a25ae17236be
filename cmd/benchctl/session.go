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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	regbridge "github.com/benchlab/go-regbridge"
	"github.com/benchlab/go-regbridge/detection"
	"github.com/benchlab/go-regbridge/detection/serialports"
	"github.com/benchlab/go-regbridge/internal/config"
	"github.com/benchlab/go-regbridge/ltc2688"
	"github.com/benchlab/go-regbridge/transport/linduino"
	"github.com/benchlab/go-regbridge/transport/maxpico"
	"github.com/benchlab/go-regbridge/transport/native"
	"periph.io/x/conn/v3/physic"
)

var (
	errNoSPI = errors.New("no SPI bridge connected, run spi.connect")
	errNoI2C = errors.New("no I2C bridge connected, run i2c.connect")
	errNoDAC = errors.New("no DAC configured, run dac.init")
)

// spiBridge is what the session needs from an SPI transport.
type spiBridge interface {
	regbridge.Transport
	regbridge.Exchanger
}

// i2cBridge is what the session needs from an I2C transport.
type i2cBridge interface {
	regbridge.Transport
	regbridge.RegisterBus
}

// Session holds the bridges a shell is connected to. Commands run one at a
// time, so it needs no locking.
type Session struct {
	// Open replaces the real serial port opener when set.
	Open regbridge.SerialOpener

	// ListPorts replaces serialports.List when set.
	ListPorts func(ctx context.Context) ([]serialports.PortInfo, error)

	Config *config.Config

	// Native selects host SPI/I2C controllers instead of USB bridges.
	Native bool

	spi   spiBridge
	i2c   i2cBridge
	dac   *ltc2688.Device
	spans map[int]ltc2688.Span
}

// NewSession creates a session with nothing connected.
func NewSession(cfg *config.Config) *Session {
	return &Session{Config: cfg, spans: map[int]ltc2688.Span{}}
}

// Ports lists serial ports with their USB identity.
func (s *Session) Ports(ctx context.Context) (string, error) {
	list := s.ListPorts
	if list == nil {
		list = serialports.List
	}
	ports, err := list(ctx)
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "No serial ports found", nil
	}

	var w bytes.Buffer
	for i, p := range ports {
		if i > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(p.Path)
		if p.VIDPID != "" {
			fmt.Fprintf(&w, " [%s]", p.VIDPID)
		}
		if p.Product != "" {
			fmt.Fprintf(&w, " %s", p.Product)
		}
		if detection.IsBlocked(p.VIDPID, s.Config.Detection.Blocklist) {
			w.WriteString(" (blocked)")
		}
	}
	return w.String(), nil
}

// Detect runs every registered detector.
func (s *Session) Detect(ctx context.Context, passive bool) (string, error) {
	mode := detection.Safe
	if passive {
		mode = detection.Passive
	}
	opts := s.Config.DetectionOptions(mode)
	opts.Open = s.Open

	devices, err := detection.DetectAllContext(ctx, &opts)
	if errors.Is(err, detection.ErrNoDevicesFound) {
		return "No bridges found", nil
	}
	if err != nil {
		return "", err
	}

	lines := make([]string, len(devices))
	for i, d := range devices {
		lines[i] = fmt.Sprintf("%s %s (%s, %s confidence)", d.Path, d.Name, d.Transport, d.Confidence)
		if id := d.Metadata["identity"]; id != "" {
			lines[i] += ": " + id
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ConnectSPI binds the SPI bridge, scanning when port is empty.
func (s *Session) ConnectSPI(ctx context.Context, port string) (string, error) {
	var bridge spiBridge
	if s.Native {
		name := port
		if name == "" {
			name = s.Config.Native.SPI
		}
		b, err := native.OpenSPI(name, native.SPIOptions{Frequency: physic.Frequency(s.Config.Native.SPIHz) * physic.Hertz})
		if err != nil {
			return "", err
		}
		bridge = b
	} else {
		opts := s.Config.LinduinoOptions()
		opts.Open = s.Open
		if port != "" {
			opts.Port = port
		}
		b, err := linduino.Discover(ctx, &opts)
		if err != nil {
			return "", err
		}
		if !b.IsConnected() {
			return "", fmt.Errorf("%w: no DC590 board answered", regbridge.ErrDeviceNotFound)
		}
		bridge = b
	}

	s.closeSPI()
	s.spi = bridge
	return fmt.Sprintf("SPI bridge on %s", bridge.Port()), nil
}

// ConnectI2C binds the I2C bridge, scanning when port is empty.
func (s *Session) ConnectI2C(ctx context.Context, port string) (string, error) {
	var bridge i2cBridge
	if s.Native {
		name := port
		if name == "" {
			name = s.Config.Native.I2C
		}
		b, err := native.OpenI2C(name, native.I2COptions{Speed: physic.Frequency(s.Config.Native.I2CHz) * physic.Hertz})
		if err != nil {
			return "", err
		}
		bridge = b
	} else {
		opts := s.Config.MAXPICOOptions()
		opts.Open = s.Open
		if port != "" {
			opts.Port = port
		}
		b, err := maxpico.Discover(ctx, &opts)
		if err != nil {
			return "", err
		}
		if !b.IsConnected() {
			return "", fmt.Errorf("%w: no MAXPICO2PMB answered", regbridge.ErrDeviceNotFound)
		}
		bridge = b
	}

	if s.i2c != nil {
		_ = s.i2c.Close()
	}
	s.i2c = bridge
	return fmt.Sprintf("I2C bridge on %s", bridge.Port()), nil
}

// Version reports what the connected bridges identified as.
func (s *Session) Version() string {
	var lines []string
	switch b := s.spi.(type) {
	case *linduino.Transport:
		lines = append(lines, "spi: "+b.Identity())
	case nil:
		lines = append(lines, "spi: not connected")
	default:
		lines = append(lines, "spi: "+b.Port())
	}
	switch b := s.i2c.(type) {
	case *maxpico.Transport:
		lines = append(lines, "i2c: "+b.Version())
	case nil:
		lines = append(lines, "i2c: not connected")
	default:
		lines = append(lines, "i2c: "+b.Port())
	}
	return strings.Join(lines, "\n")
}

// Disconnect closes every bridge.
func (s *Session) Disconnect() {
	s.closeSPI()
	if s.i2c != nil {
		_ = s.i2c.Close()
		s.i2c = nil
	}
}

func (s *Session) closeSPI() {
	if s.spi != nil {
		_ = s.spi.Close()
	}
	s.spi = nil
	s.dac = nil
	s.spans = map[int]ltc2688.Span{}
}

// SPIXfer exchanges raw bytes given as hex and returns the reply as hex.
func (s *Session) SPIXfer(args []string) (string, error) {
	if s.spi == nil {
		return "", errNoSPI
	}
	if len(args) == 0 {
		return "", fmt.Errorf("BYTES required")
	}
	w, err := parseHexBytes(args)
	if err != nil {
		return "", err
	}
	r, err := s.spi.Exchange(w)
	if err != nil {
		return "", err
	}
	return formatHex(r), nil
}

// DACInit creates the DAC driver on the SPI bridge and applies the
// configured spans.
func (s *Session) DACInit(args []string) (string, error) {
	if s.spi == nil {
		return "", errNoSPI
	}

	dac := s.Config.DAC
	if len(args) > 0 {
		dac.Variant = args[0]
	}
	if len(args) > 1 {
		bits, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid RESOLUTION: %w", err)
		}
		dac.Resolution = bits
	}

	variant, resolution, err := dac.Part()
	if err != nil {
		return "", err
	}
	dev, err := ltc2688.New(s.spi, variant, resolution)
	if err != nil {
		return "", err
	}
	if err := dac.ApplySpans(dev); err != nil {
		return "", err
	}

	s.dac = dev
	s.spans = map[int]ltc2688.Span{}
	for ch, name := range dac.Spans {
		if span, err := ltc2688.ParseSpan(name); err == nil {
			s.spans[ch] = span
		}
	}
	return fmt.Sprintf("%v, %d-bit, %d channels", variant, int(resolution), variant.Channels()), nil
}

// DACSpan sets the span of one channel, or of every channel with "all".
func (s *Session) DACSpan(args []string) (string, error) {
	if s.dac == nil {
		return "", errNoDAC
	}
	if len(args) < 2 {
		return "", fmt.Errorf("CH and SPAN required")
	}
	span, err := ltc2688.ParseSpan(strings.Join(args[1:], ""))
	if err != nil {
		return "", err
	}

	if args[0] == "all" {
		if err := s.dac.SetSpanAll(span); err != nil {
			return "", err
		}
		for ch := 0; ch < s.dac.Variant().Channels(); ch++ {
			s.spans[ch] = span
		}
		return "OK", nil
	}

	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid CH: %w", err)
	}
	if err := s.dac.SetSpan(ch, span); err != nil {
		return "", err
	}
	s.spans[ch] = span
	return "OK", nil
}

// DACCode stages a code on a channel; with update it is latched at once.
func (s *Session) DACCode(args []string, update bool) (string, error) {
	if s.dac == nil {
		return "", errNoDAC
	}
	if len(args) < 2 {
		return "", fmt.Errorf("CH and CODE required")
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid CH: %w", err)
	}
	code, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		return "", fmt.Errorf("invalid CODE: %w", err)
	}

	if update {
		err = s.dac.WriteCodeAndUpdate(ch, uint16(code))
	} else {
		err = s.dac.SetChannelCode(ch, uint16(code))
	}
	if err != nil {
		return "", err
	}
	return "OK", nil
}

// DACVolts drives a channel to a voltage within its current span.
func (s *Session) DACVolts(args []string) (string, error) {
	if s.dac == nil {
		return "", errNoDAC
	}
	if len(args) < 2 {
		return "", fmt.Errorf("CH and VOLTS required")
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid CH: %w", err)
	}
	volts, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToUpper(args[1]), "V"), 64)
	if err != nil {
		return "", fmt.Errorf("invalid VOLTS: %w", err)
	}

	span := s.spans[ch] // power-on span is 0-5V
	code, err := s.dac.CodeForVoltage(span, volts)
	if err != nil {
		return "", err
	}
	if err := s.dac.WriteCodeAndUpdate(ch, code); err != nil {
		return "", err
	}
	return fmt.Sprintf("code 0x%04X", code), nil
}

// DACUpdate latches one channel, or every channel without arguments.
func (s *Session) DACUpdate(args []string) (string, error) {
	if s.dac == nil {
		return "", errNoDAC
	}
	if len(args) == 0 {
		return "OK", s.dac.UpdateAll()
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid CH: %w", err)
	}
	return "OK", s.dac.UpdateChannel(ch)
}

// DACSpans lists the spans the session has programmed.
func (s *Session) DACSpans() (string, error) {
	if s.dac == nil {
		return "", errNoDAC
	}
	channels := make([]int, 0, len(s.spans))
	for ch := range s.spans {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	lines := make([]string, 0, len(channels))
	for _, ch := range channels {
		lines = append(lines, fmt.Sprintf("ch%d: %v", ch, s.spans[ch]))
	}
	if len(lines) == 0 {
		return "all channels at power-on span", nil
	}
	return strings.Join(lines, "\n"), nil
}

// I2CRead reads registers: ADDR REG [COUNT].
func (s *Session) I2CRead(args []string) (string, error) {
	if s.i2c == nil {
		return "", errNoI2C
	}
	if len(args) < 2 {
		return "", fmt.Errorf("ADDR and REG required")
	}
	addr, reg, err := parseAddrReg(args)
	if err != nil {
		return "", err
	}
	count := 1
	if len(args) > 2 {
		if count, err = strconv.Atoi(args[2]); err != nil {
			return "", fmt.Errorf("invalid COUNT: %w", err)
		}
	}

	values, err := s.i2c.ReadRegisters(addr, reg, count)
	if err != nil {
		return "", err
	}
	return formatHex(values), nil
}

// I2CWrite writes registers: ADDR REG BYTE...
func (s *Session) I2CWrite(args []string) (string, error) {
	if s.i2c == nil {
		return "", errNoI2C
	}
	if len(args) < 3 {
		return "", fmt.Errorf("ADDR, REG and BYTES required")
	}
	addr, reg, err := parseAddrReg(args)
	if err != nil {
		return "", err
	}
	values, err := parseHexBytes(args[2:])
	if err != nil {
		return "", err
	}
	if err := s.i2c.WriteRegisters(addr, reg, values); err != nil {
		return "", err
	}
	return "OK", nil
}

func parseAddrReg(args []string) (addr, reg uint8, err error) {
	if addr, err = parseHexByte(args[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid ADDR: %w", err)
	}
	if reg, err = parseHexByte(args[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid REG: %w", err)
	}
	return addr, reg, nil
}

// parseHexBytes accepts bytes as separate arguments ("10 00 03") or run
// together ("100003").
func parseHexBytes(args []string) ([]byte, error) {
	var out []byte
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.ToLower(arg), "0x")
		if len(arg)%2 != 0 {
			arg = "0" + arg
		}
		for i := 0; i < len(arg); i += 2 {
			b, err := strconv.ParseUint(arg[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid byte %q", arg[i:i+2])
			}
			out = append(out, byte(b))
		}
	}
	return out, nil
}

func parseHexByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
	return uint8(v), err
}

func formatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// withTimeout bounds a single shell command.
func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
