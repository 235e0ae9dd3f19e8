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

package host

import (
	"errors"
	"fmt"
	"time"

	sentry "github.com/kgames/go-sentry"
	"github.com/kgames/go-sentry/internal/syncutil"
)

// SecurityState is the controller's alarm state.
type SecurityState int

const (
	// StateReady means the system is armed and idle.
	StateReady SecurityState = iota
	// StateMotionDetected means motion was seen and the grace period
	// is running.
	StateMotionDetected
	// StateAlarmActive means the alarm is sounding.
	StateAlarmActive
	// StateAlarmDisabled means the alarm will not trigger, either for
	// a while or until re-enabled.
	StateAlarmDisabled
	// StateWriteMode means a tag write has been prepared or armed on
	// the node.
	StateWriteMode
)

// String returns the state name used in published messages.
func (s SecurityState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateMotionDetected:
		return "MOTION_DETECTED"
	case StateAlarmActive:
		return "ALARM_ACTIVE"
	case StateAlarmDisabled:
		return "ALARM_DISABLED"
	case StateWriteMode:
		return "RFID_WRITE_MODE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Commander is the slice of the node client the controller drives.
// *Client satisfies it; tests substitute a recorder.
type Commander interface {
	SetRGB(color sentry.RGBColor) error
	BuzzerOn() error
	BuzzerOff() error
	WritePrepare(key string) error
	WriteConfirm() error
	NormalMode() error
}

// Indicator colors for the node's RGB LED.
var (
	colorOff    = sentry.RGBColor{}
	colorRed    = sentry.RGBColor{R: 255}
	colorGreen  = sentry.RGBColor{G: 255}
	colorOrange = sentry.RGBColor{R: 255, G: 165}
)

const (
	blinkInterval = 200 * time.Millisecond
	authFailBlink = 3
)

// ControllerConfig holds the alarm policy knobs.
type ControllerConfig struct {
	// MotionGrace is how long motion may persist before the alarm
	// triggers.
	MotionGrace time.Duration
	// DisableDuration is how long a plain disable lasts before the
	// system rearms itself.
	DisableDuration time.Duration
	// Secret, when non-empty, enables local card authentication: a
	// card whose stored secret matches disables the alarm without an
	// external authenticator.
	Secret string
}

// DefaultControllerConfig returns the stock policy: 5 seconds of grace,
// one minute of disable.
func DefaultControllerConfig() *ControllerConfig {
	return &ControllerConfig{
		MotionGrace:     5 * time.Second,
		DisableDuration: time.Minute,
	}
}

// Controller is the alarm state machine. It consumes node events as an
// EventHandler, drives the node through a Commander, and reports state
// changes through an optional publish sink. All methods are safe for
// concurrent use; command handlers typically arrive on an MQTT
// goroutine while events arrive on the client's poll loop.
type Controller struct {
	cmd   Commander
	cfg   *ControllerConfig
	clock sentry.Clock

	mu syncutil.Mutex

	events func(msg string)
	auth   func(msg string)

	state             SecurityState
	manuallyActivated bool

	motionStart time.Time

	disabledAt       time.Time
	disableEnd       time.Time
	disablePermanent bool

	pendingSecret string

	blink blinker
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerConfig overrides the default policy.
func WithControllerConfig(cfg *ControllerConfig) ControllerOption {
	return func(c *Controller) {
		if cfg != nil {
			c.cfg = cfg
		}
	}
}

// WithControllerClock overrides the wall clock, mainly for tests.
func WithControllerClock(clock sentry.Clock) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewController creates a controller driving cmd.
func NewController(cmd Commander, opts ...ControllerOption) *Controller {
	c := &Controller{
		cmd:   cmd,
		cfg:   DefaultControllerConfig(),
		clock: sentry.SystemClock(),
		state: StateReady,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCommander installs the node client. NewController accepts a nil
// commander so the client, which needs the controller as its event
// handler, can be built afterwards; node commands are dropped until one
// is set.
func (c *Controller) SetCommander(cmd Commander) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmd = cmd
}

// SetPublisher installs the sink for state-change messages. A nil sink
// silently drops them.
func (c *Controller) SetPublisher(events func(msg string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
}

// SetAuthPublisher installs the sink for authentication-request
// messages. Without one (and without a local Secret) card reads cannot
// disable the alarm.
func (c *Controller) SetAuthPublisher(auth func(msg string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// State returns the current alarm state.
func (c *Controller) State() SecurityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) publish(msg string) {
	if c.events != nil {
		c.events(msg)
	}
}

func (c *Controller) publishAuth(msg string) {
	if c.auth != nil {
		c.auth(msg)
	}
}

// EventHandler implementation.

// HandleReady publishes the node's boot notice.
func (c *Controller) HandleReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish("STATUS_READY")
}

// HandleMotion runs the motion edge through the state machine. Motion
// is always reported; it only changes state from Ready.
func (c *Controller) HandleMotion(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if active {
		c.publish("MOTION_DETECTED")
		if c.state != StateReady {
			return
		}
		c.state = StateMotionDetected
		c.motionStart = c.clock.Now()
		c.setColor(colorOrange)
		return
	}

	c.publish("MOTION_STOPPED")
	if c.state == StateMotionDetected {
		// Motion ceased inside the grace period; no alarm.
		c.state = StateReady
		c.setColor(colorOff)
	}
}

// HandleButton treats the rearm button like a reset command.
func (c *Controller) HandleButton() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish("BUTTON_PRESSED")
	c.resetLocked()
}

// HandleCardDetected is informational; the decision comes with the
// read result.
func (c *Controller) HandleCardDetected() {
	sentry.Debugf("card detected")
}

// HandleCardRead authenticates the card's secret, locally when a
// Secret is configured, otherwise by forwarding an AUTH_REQUEST to the
// external authenticator.
func (c *Controller) HandleCardRead(secret string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !ok {
		c.publish("RFID_READ_FAILED")
		return
	}

	if c.cfg.Secret != "" {
		if secret == c.cfg.Secret {
			c.authSuccessLocked()
		} else {
			c.authFailedLocked()
		}
		return
	}

	c.pendingSecret = secret
	c.publishAuth("AUTH_REQUEST:" + secret)
}

// HandleWriteResult publishes the tag write outcome.
func (c *Controller) HandleWriteResult(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.publish("STATUS_RFID_WRITE_SUCCESS")
	} else {
		c.publish("STATUS_RFID_WRITE_FAILED")
	}
}

// HandleWriteCompleted leaves write mode and rearms.
func (c *Controller) HandleWriteCompleted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish("STATUS_RFID_WRITE_COMPLETED")
	c.state = StateReady
	c.setColor(colorOff)
}

// HandleStatus relays the node's status payload.
func (c *Controller) HandleStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish("NODE_STATUS:" + status)
}

// HandleTick runs the timers: motion grace expiry, timed or legacy
// disable expiry, and the indicator blinker.
func (c *Controller) HandleTick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateMotionDetected && now.Sub(c.motionStart) > c.cfg.MotionGrace {
		c.triggerAlarmLocked(false)
	}

	if c.state == StateAlarmDisabled && !c.disablePermanent {
		switch {
		case !c.disableEnd.IsZero() && !now.Before(c.disableEnd):
			c.enableLocked()
		case c.disableEnd.IsZero() && now.Sub(c.disabledAt) > c.cfg.DisableDuration:
			c.state = StateReady
			c.setColor(colorOff)
			c.publish("ALARM_REARMED")
		}
	}

	c.blink.update(now, c.setColor)
}

// Authentication responses, normally arriving over MQTT.

// AuthSuccess disables the alarm after a successful external
// authentication. A manually activated alarm stays on.
func (c *Controller) AuthSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authSuccessLocked()
}

// AuthFailed reports a rejected card: three red blinks, no state
// change.
func (c *Controller) AuthFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailedLocked()
}

func (c *Controller) authSuccessLocked() {
	c.pendingSecret = ""

	if c.manuallyActivated && c.state == StateAlarmActive {
		c.publishAuth("ACK_AUTH_SUCCESS")
		c.publish("AUTH_SUCCESS_BLOCKED")
		return
	}

	c.state = StateAlarmDisabled
	c.disabledAt = c.clock.Now()
	c.disableEnd = time.Time{}
	c.disablePermanent = false
	c.buzzerOff()
	c.setColor(colorGreen)
	c.publishAuth("ACK_AUTH_SUCCESS")
	c.publish("ALARM_DISABLED_RFID")
}

func (c *Controller) authFailedLocked() {
	c.pendingSecret = ""
	c.blink.start(colorRed, authFailBlink, c.clock.Now(), c.setColor)
	c.publishAuth("ACK_AUTH_FAILED")
	c.publish("AUTH_FAILED")
}

// Operator commands, normally arriving over MQTT.

// Disable turns the alarm off for the configured DisableDuration.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAlarmDisabled
	c.disabledAt = c.clock.Now()
	c.disableEnd = time.Time{}
	c.buzzerOff()
	c.setColor(colorGreen)
	c.publish("ACK_CMD_DISABLE_ALARM")
}

// DisablePermanent turns the alarm off until Enable or Reset.
func (c *Controller) DisablePermanent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAlarmDisabled
	c.manuallyActivated = false
	c.disablePermanent = true
	c.disableEnd = time.Time{}
	c.buzzerOff()
	c.setColor(colorGreen)
	c.publish("ACK_CMD_DISABLE_ALARM")
}

// DisableTimed turns the alarm off for the given duration.
func (c *Controller) DisableTimed(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAlarmDisabled
	c.manuallyActivated = false
	c.disablePermanent = false
	c.disableEnd = c.clock.Now().Add(d)
	c.buzzerOff()
	c.setColor(colorGreen)
	c.publish("ACK_CMD_DISABLE_ALARM")
}

// Enable rearms the system immediately.
func (c *Controller) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enableLocked()
}

func (c *Controller) enableLocked() {
	c.state = StateReady
	c.manuallyActivated = false
	c.disablePermanent = false
	c.disableEnd = time.Time{}
	c.buzzerOff()
	c.setColor(colorOff)
	c.publish("SECURITY_STATE:READY")
}

// Activate sounds the alarm manually. A manually activated alarm
// cannot be disabled by card, only by operator command or the rearm
// button.
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggerAlarmLocked(true)
	c.publish("ACK_CMD_ACTIVATE_ALARM")
}

func (c *Controller) triggerAlarmLocked(manual bool) {
	if !manual && c.state == StateAlarmDisabled {
		return
	}
	c.state = StateAlarmActive
	c.manuallyActivated = manual
	if manual {
		c.disablePermanent = false
		c.disableEnd = time.Time{}
	}
	c.buzzerOn()
	c.setColor(colorRed)
	c.publish("ALARM_TRIGGERED")
}

// Reset silences any alarm and returns to Ready.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.state = StateReady
	c.manuallyActivated = false
	c.disablePermanent = false
	c.disableEnd = time.Time{}
	c.buzzerOff()
	c.setColor(colorOff)
	c.publish("ALARM_RESET")
	c.publish("SECURITY_STATE:READY")
}

// PrepareWrite stages key on the node and enters write mode.
func (c *Controller) PrepareWrite(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil {
		return errors.New("prepare write: no node attached")
	}
	if err := c.cmd.WritePrepare(key); err != nil {
		return fmt.Errorf("prepare write: %w", err)
	}
	c.state = StateWriteMode
	c.publish("STATUS_RFID_WRITE_PREPARED:" + key)
	return nil
}

// ConfirmWrite arms the staged write. It refuses when no write was
// prepared.
func (c *Controller) ConfirmWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateWriteMode {
		c.publish("ERROR_RFID_WRITE_NOT_PREPARED")
		return fmt.Errorf("confirm write in state %s: %w", c.state, sentry.ErrNotPrepared)
	}
	if c.cmd == nil {
		return errors.New("confirm write: no node attached")
	}
	if err := c.cmd.WriteConfirm(); err != nil {
		return fmt.Errorf("confirm write: %w", err)
	}
	c.publish("STATUS_RFID_WRITE_ACTIVE")
	return nil
}

// Abort cancels whatever is in progress and returns to Ready.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateReady
	if c.cmd != nil {
		if err := c.cmd.NormalMode(); err != nil {
			sentry.Debugf("abort: %v", err)
		}
	}
	c.setColor(colorOff)
	c.publish("ACK_CMD_ABORT")
}

func (c *Controller) setColor(color sentry.RGBColor) {
	if c.cmd == nil {
		return
	}
	if err := c.cmd.SetRGB(color); err != nil {
		sentry.Debugf("set rgb: %v", err)
	}
}

func (c *Controller) buzzerOn() {
	if c.cmd == nil {
		return
	}
	if err := c.cmd.BuzzerOn(); err != nil {
		sentry.Debugf("buzzer on: %v", err)
	}
}

func (c *Controller) buzzerOff() {
	if c.cmd == nil {
		return
	}
	if err := c.cmd.BuzzerOff(); err != nil {
		sentry.Debugf("buzzer off: %v", err)
	}
}

// blinker toggles the indicator without blocking the poll loop. Each
// phase, on or off, lasts blinkInterval.
type blinker struct {
	active bool
	count  int
	max    int
	last   time.Time
	on     bool
	color  sentry.RGBColor
}

func (b *blinker) start(color sentry.RGBColor, blinks int, now time.Time, set func(sentry.RGBColor)) {
	b.active = true
	b.count = 0
	b.max = blinks * 2
	b.last = now
	b.color = color
	set(color)
	b.on = true
}

func (b *blinker) update(now time.Time, set func(sentry.RGBColor)) {
	if !b.active {
		return
	}
	if now.Sub(b.last) < blinkInterval {
		return
	}
	b.count++
	b.last = now
	if b.count >= b.max {
		set(colorOff)
		b.active = false
		b.on = false
		return
	}
	if b.on {
		set(colorOff)
		b.on = false
	} else {
		set(b.color)
		b.on = true
	}
}
