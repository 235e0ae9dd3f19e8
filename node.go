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

// Package sentry implements the protocol engine of a security sensor
// node: the serial command codec, the command dispatcher, the two-phase
// RFID write-mode state machine and the card transaction handler. The
// node watches a motion sensor, a rearm button and an RFID reader, and
// reports events to a companion controller over a point-to-point byte
// link; the host side of the same link lives in the host package.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds the timing of the polling loop.
type Config struct {
	// PollInterval is the cadence of Run's loop iterations.
	PollInterval time.Duration
	// HeartbeatInterval is how often a heartbeat event is emitted.
	HeartbeatInterval time.Duration
	// StatusInterval is how often an unsolicited status update is emitted.
	StatusInterval time.Duration
}

// DefaultConfig returns the stock timing of the node firmware.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:      50 * time.Millisecond,
		HeartbeatInterval: 10 * time.Second,
		StatusInterval:    5 * time.Second,
	}
}

// Node is the single owner of all protocol state: the staged write key,
// the write-mode phase, last observed sensor levels and the report
// timers. Everything is mutated by one polling loop only, so no locking
// is needed or wanted here.
type Node struct {
	codec *Codec
	ph    Peripherals
	cfg   *Config
	clock Clock

	mode WriteMode

	lastMotion       bool
	lastButton       bool
	lastMotionChange time.Time
	lastHeartbeat    time.Time
	lastStatusReport time.Time
}

// Option configures a Node.
type Option func(*Node)

// WithConfig overrides the default loop timing.
func WithConfig(cfg *Config) Option {
	return func(n *Node) {
		if cfg != nil {
			n.cfg = cfg
		}
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(n *Node) {
		if c != nil {
			n.clock = c
		}
	}
}

// New creates a node over the given link and peripherals.
func New(port Port, ph Peripherals, opts ...Option) (*Node, error) {
	if port == nil {
		return nil, errors.New("nil port")
	}
	if ph.Motion == nil || ph.Button == nil || ph.LED == nil || ph.Buzzer == nil || ph.RFID == nil {
		return nil, errors.New("all peripherals must be set")
	}

	n := &Node{
		codec: NewCodec(port),
		ph:    ph,
		cfg:   DefaultConfig(),
		clock: SystemClock(),
		// The motion pin idles low, the rearm button idles high (pull-up).
		lastButton: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	now := n.clock.Now()
	n.lastMotionChange = now
	n.lastHeartbeat = now
	n.lastStatusReport = now
	return n, nil
}

// WriteModeState exposes the current write-mode phase, mainly for tests
// and diagnostics.
func (n *Node) WriteModeState() WriteModeState {
	return n.mode.State()
}

// Run announces readiness and then drives PollOnce until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	n.send(EventReady)

	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("node loop: %w", ctx.Err())
		case <-ticker.C:
			n.PollOnce(n.clock.Now())
		}
	}
}

// PollOnce executes one cooperative loop iteration. Buffered commands are
// always fully drained and dispatched first, then the periodic reports,
// and only then the sensors and the reader. While a write is armed the
// sensor and normal-read paths are skipped entirely: a physical tag write
// must not interleave with unrelated alarm activity.
func (n *Node) PollOnce(now time.Time) {
	n.drainCommands(now)

	if now.Sub(n.lastHeartbeat) >= n.cfg.HeartbeatInterval {
		n.send(EventHeartbeat)
		n.lastHeartbeat = now
	}
	if now.Sub(n.lastStatusReport) >= n.cfg.StatusInterval {
		n.sendStatusUpdate(now)
		n.lastStatusReport = now
	}

	if n.mode.State() == StateActive {
		if n.ph.RFID.CardPresent() {
			n.writeCardTransaction()
		}
		return
	}

	n.pollMotion(now)
	n.pollButton()

	if n.ph.RFID.CardPresent() {
		n.readCardTransaction()
	}
}

// drainCommands decodes and dispatches every currently buffered command.
func (n *Node) drainCommands(now time.Time) {
	for {
		cmd, err := n.codec.PollCommand()
		if err != nil {
			if !errors.Is(err, ErrNoData) {
				Debugf("command poll: %v", err)
			}
			return
		}
		n.dispatchCommand(cmd, now)
	}
}

func (n *Node) pollMotion(now time.Time) {
	motion := n.ph.Motion.Read()
	if motion == n.lastMotion {
		return
	}
	n.lastMotionChange = now
	if motion {
		n.send(EventMotionDetected)
	} else {
		n.send(EventMotionStopped)
	}
	n.lastMotion = motion
}

func (n *Node) pollButton() {
	button := n.ph.Button.Read()
	// Pressed edge only: the pulled-up pin going low.
	if n.lastButton && !button {
		n.send(EventButtonPressed)
	}
	n.lastButton = button
}

// sendStatusUpdate reports the live motion level and the time since it
// last changed, e.g. "MOTION:ACTIVE,TIME:1250".
func (n *Node) sendStatusUpdate(now time.Time) {
	level := "INACTIVE"
	if n.ph.Motion.Read() {
		level = "ACTIVE"
	}
	status := fmt.Sprintf("MOTION:%s,TIME:%d", level, now.Sub(n.lastMotionChange).Milliseconds())
	n.sendData(EventStatusUpdate, status)
}

// send emits a bare event. Send failures are diagnostic only; the loop
// must keep running on a broken link and recover when the host returns.
func (n *Node) send(code MessageCode) {
	if err := n.codec.SendEvent(code); err != nil {
		Debugf("send: %v", err)
	}
}

func (n *Node) sendData(code MessageCode, data string) {
	if err := n.codec.SendEventData(code, data); err != nil {
		Debugf("send with data: %v", err)
	}
}
