// Copyright 2026 The KGames Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uart implements the sentry.Port byte stream over a serial
// port. The node/host link runs 9600 8N1 by default, matching the
// original wiring; reads are polled with a short timeout so the
// cooperative loop never blocks on a silent line.
package uart

import (
	"fmt"
	"time"

	sentry "github.com/kgames/go-sentry"
	"github.com/kgames/go-sentry/internal/syncutil"
	"go.bug.st/serial"
)

// DefaultBaudRate is the link speed both ends are wired for.
const DefaultBaudRate = 9600

// readPollTimeout bounds a single read poll. Short enough to keep poll
// semantics, long enough not to spin the CPU on an idle line.
const readPollTimeout = 5 * time.Millisecond

// Port implements sentry.Port over a serial device.
type Port struct {
	port     serial.Port
	portName string
	rx       []byte
	mu       syncutil.Mutex
	closed   bool
}

// Option configures a Port.
type Option func(*options)

type options struct {
	baudRate int
}

// WithBaudRate overrides the default link speed.
func WithBaudRate(baud int) Option {
	return func(o *options) {
		if baud > 0 {
			o.baudRate = baud
		}
	}
}

// New opens the serial device at portName.
func New(portName string, opts ...Option) (*Port, error) {
	o := options{baudRate: DefaultBaudRate}
	for _, opt := range opts {
		opt(&o)
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: o.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &Port{port: port, portName: portName}, nil
}

// ReadByte returns the next received byte, or sentry.ErrNoData when the
// line has nothing buffered. One hardware read per call keeps the poll
// bounded by readPollTimeout.
func (p *Port) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, sentry.ErrPortClosed
	}
	if len(p.rx) == 0 {
		var scratch [64]byte
		n, err := p.port.Read(scratch[:])
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", p.portName, err)
		}
		if n == 0 {
			return 0, sentry.ErrNoData
		}
		p.rx = append(p.rx, scratch[:n]...)
	}

	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, nil
}

// Write sends raw bytes down the line.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, sentry.ErrPortClosed
	}
	n, err := p.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", p.portName, err)
	}
	return n, nil
}

// Close closes the serial device.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p.portName, err)
	}
	return nil
}
