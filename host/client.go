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

// Package host implements the companion-controller side of the sensor
// node link: a command client, the event decode loop and the alarm
// controller that reacts to node events.
package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	sentry "github.com/kgames/go-sentry"
	"github.com/kgames/go-sentry/internal/syncutil"
)

// maxEventPayload bounds the payload scan for data-carrying events. The
// node's status strings are the longest payloads on the wire.
const maxEventPayload = 64

// EventHandler receives decoded node events. Implementations must return
// quickly; anything time-dependent belongs in HandleTick, which fires on
// every poll iteration.
type EventHandler interface {
	// HandleReady signals the node finished booting.
	HandleReady()

	// HandleMotion reports a motion edge: true on detected, false on
	// stopped.
	HandleMotion(active bool)

	// HandleButton reports a rearm button press.
	HandleButton()

	// HandleCardDetected reports a card entering the reader field,
	// before its secret has been read.
	HandleCardDetected()

	// HandleCardRead reports the outcome of a card read. The secret is
	// opaque text; ok is false when authentication or the read failed.
	HandleCardRead(secret string, ok bool)

	// HandleWriteResult reports the outcome of an armed tag write.
	HandleWriteResult(ok bool)

	// HandleWriteCompleted signals the write phase is over, regardless
	// of outcome. The node is back in normal mode.
	HandleWriteCompleted()

	// HandleStatus delivers a periodic or requested status payload,
	// e.g. "MOTION:ACTIVE,TIME:1250".
	HandleStatus(status string)

	// HandleTick runs once per poll iteration.
	HandleTick(now time.Time)
}

// Config holds the client's timing.
type Config struct {
	// PollInterval is the cadence of Run's loop iterations.
	PollInterval time.Duration
	// NodeTimeout is how long without a heartbeat before the node is
	// considered disconnected.
	NodeTimeout time.Duration
}

// DefaultConfig matches the node's heartbeat every 10s with a generous
// three missed beats.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 50 * time.Millisecond,
		NodeTimeout:  30 * time.Second,
	}
}

// Client drives the host side of the link: it issues commands to the
// node and decodes the node's event stream. Command methods are safe to
// call from other goroutines while the poll loop runs.
type Client struct {
	// OnConnect fires when the first heartbeat arrives or the node
	// comes back after a timeout.
	OnConnect func()
	// OnDisconnect fires when the heartbeat watchdog expires.
	OnDisconnect func()
	// OnHeartbeat fires on every heartbeat, connected or not.
	OnHeartbeat func()

	codec   *sentry.Codec
	handler EventHandler
	cfg     *Config
	clock   sentry.Clock

	writeMu syncutil.Mutex

	// stateMu guards the watchdog state, which Connected may read from
	// any goroutine while the poll loop updates it.
	stateMu       syncutil.RWMutex
	lastHeartbeat time.Time
	connected     bool
}

// Option configures a Client.
type Option func(*Client)

// WithConfig overrides the default timing.
func WithConfig(cfg *Config) Option {
	return func(c *Client) {
		if cfg != nil {
			c.cfg = cfg
		}
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock sentry.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient creates a client over port delivering events to handler.
func NewClient(port sentry.Port, handler EventHandler, opts ...Option) (*Client, error) {
	if port == nil {
		return nil, errors.New("nil port")
	}
	if handler == nil {
		return nil, errors.New("nil handler")
	}
	c := &Client{
		codec:   sentry.NewCodec(port),
		handler: handler,
		cfg:     DefaultConfig(),
		clock:   sentry.SystemClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connected reports whether the heartbeat watchdog currently considers
// the node alive. Safe to call from any goroutine.
func (c *Client) Connected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.connected
}

// Run drives Poll until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("host loop: %w", ctx.Err())
		case <-ticker.C:
			c.Poll(c.clock.Now())
		}
	}
}

// Poll drains and dispatches all buffered node events, runs the
// heartbeat watchdog and ticks the handler.
func (c *Client) Poll(now time.Time) {
	for {
		code, err := c.codec.PollCommand()
		if err != nil {
			if !errors.Is(err, sentry.ErrNoData) {
				sentry.Debugf("event poll: %v", err)
			}
			break
		}
		c.handleEvent(code, now)
	}

	c.stateMu.Lock()
	expired := c.connected && now.Sub(c.lastHeartbeat) > c.cfg.NodeTimeout
	if expired {
		c.connected = false
	}
	c.stateMu.Unlock()
	if expired && c.OnDisconnect != nil {
		c.OnDisconnect()
	}

	c.handler.HandleTick(now)
}

func (c *Client) handleEvent(code sentry.MessageCode, now time.Time) {
	var payload string
	if code.HasData() {
		// ReadLine, not ReadPayload: status text carries interior
		// colons that must survive.
		payload = c.codec.ReadLine(maxEventPayload)
	}

	switch code {
	case sentry.EventReady:
		c.handler.HandleReady()
	case sentry.EventMotionDetected:
		c.handler.HandleMotion(true)
	case sentry.EventMotionStopped:
		c.handler.HandleMotion(false)
	case sentry.EventRFIDDetected:
		c.handler.HandleCardDetected()
	case sentry.EventButtonPressed:
		c.handler.HandleButton()
	case sentry.EventRFIDReadOK:
		c.handler.HandleCardRead(payload, true)
	case sentry.EventRFIDReadFailed:
		c.handler.HandleCardRead("", false)
	case sentry.EventRFIDWriteOK:
		c.handler.HandleWriteResult(true)
	case sentry.EventRFIDWriteFailed:
		c.handler.HandleWriteResult(false)
	case sentry.EventRFIDWriteCompleted:
		c.handler.HandleWriteCompleted()
	case sentry.EventStatusUpdate:
		c.handler.HandleStatus(payload)
	case sentry.EventHeartbeat:
		c.heartbeat(now)
	default:
		sentry.Debugf("unexpected event byte: %d", byte(code))
	}
}

func (c *Client) heartbeat(now time.Time) {
	c.stateMu.Lock()
	c.lastHeartbeat = now
	wasConnected := c.connected
	c.connected = true
	c.stateMu.Unlock()

	if c.OnHeartbeat != nil {
		c.OnHeartbeat()
	}
	if !wasConnected && c.OnConnect != nil {
		c.OnConnect()
	}
}

// Command methods, one per inbound protocol command.

// SetRGB drives the node's indicator with a decimal "r,g,b" payload.
func (c *Client) SetRGB(color sentry.RGBColor) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.codec.SendEventData(sentry.CmdSetRGB, fmt.Sprintf("%d,%d,%d", color.R, color.G, color.B))
}

// BuzzerOn switches the alarm sounder on.
func (c *Client) BuzzerOn() error {
	return c.sendBare(sentry.CmdBuzzerOn)
}

// BuzzerOff switches the alarm sounder off.
func (c *Client) BuzzerOff() error {
	return c.sendBare(sentry.CmdBuzzerOff)
}

// WritePrepare stages a key on the node without arming the write.
func (c *Client) WritePrepare(key string) error {
	if len(key) > sentry.MaxKeyPayload {
		return fmt.Errorf("key %q: %w", key, sentry.ErrPayloadTooLong)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.codec.SendEventData(sentry.CmdWritePrepare, key)
}

// WriteConfirm arms the staged write for the next card.
func (c *Client) WriteConfirm() error {
	return c.sendBare(sentry.CmdWriteConfirm)
}

// NormalMode cancels any staged or armed write.
func (c *Client) NormalMode() error {
	return c.sendBare(sentry.CmdNormalMode)
}

// Ack sends the acknowledge no-op.
func (c *Client) Ack() error {
	return c.sendBare(sentry.CmdAck)
}

// RequestStatus asks the node for an immediate status update.
func (c *Client) RequestStatus() error {
	return c.sendBare(sentry.CmdRequestStatus)
}

func (c *Client) sendBare(code sentry.MessageCode) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.codec.SendEvent(code)
}
