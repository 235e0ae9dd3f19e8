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

package sentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock for deterministic timer tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// testRig wires a node to mock peripherals and a fake clock.
type testRig struct {
	node   *Node
	port   *MockPort
	motion *MockInput
	button *MockInput
	led    *MockLED
	buzzer *MockBuzzer
	rfid   *MockTransceiver
	clock  *fakeClock
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	rig := &testRig{
		port:   NewMockPort(),
		motion: NewMockInput(false),
		button: NewMockInput(true), // pull-up, idles high
		led:    &MockLED{},
		buzzer: &MockBuzzer{},
		rfid:   NewMockTransceiver(),
		clock:  &fakeClock{now: time.Unix(1700000000, 0)},
	}

	node, err := New(rig.port, Peripherals{
		Motion: rig.motion,
		Button: rig.button,
		LED:    rig.led,
		Buzzer: rig.buzzer,
		RFID:   rig.rfid,
	}, WithClock(rig.clock))
	require.NoError(t, err)
	rig.node = node
	return rig
}

func (r *testRig) poll() {
	r.node.PollOnce(r.clock.now)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	ph := Peripherals{
		Motion: NewMockInput(false),
		Button: NewMockInput(true),
		LED:    &MockLED{},
		Buzzer: &MockBuzzer{},
		RFID:   NewMockTransceiver(),
	}

	_, err := New(nil, ph)
	require.Error(t, err)

	ph.RFID = nil
	_, err = New(NewMockPort(), ph)
	require.Error(t, err)
}

// Scenario: the motion pin going low->high emits exactly one
// motion-detected event on the edge and nothing while the level holds.
func TestNode_MotionEdges(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.poll()
	assert.Empty(t, rig.port.Sent())

	rig.motion.SetLevel(true)
	rig.poll()
	assert.Equal(t, []byte{byte(EventMotionDetected)}, rig.port.Sent())

	// Held high: no repeat.
	rig.poll()
	rig.poll()
	assert.Equal(t, []byte{byte(EventMotionDetected)}, rig.port.Sent())

	rig.motion.SetLevel(false)
	rig.poll()
	assert.Equal(t, []byte{byte(EventMotionDetected), byte(EventMotionStopped)}, rig.port.Sent())
}

func TestNode_ButtonPressEdge(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	// Press: pulled-up pin goes low. Only that edge reports.
	rig.button.SetLevel(false)
	rig.poll()
	rig.poll()
	assert.Equal(t, []byte{byte(EventButtonPressed)}, rig.port.Sent())

	// Release emits nothing.
	rig.button.SetLevel(true)
	rig.poll()
	assert.Equal(t, []byte{byte(EventButtonPressed)}, rig.port.Sent())

	// Next press is a fresh edge.
	rig.button.SetLevel(false)
	rig.poll()
	assert.Equal(t, []byte{byte(EventButtonPressed), byte(EventButtonPressed)}, rig.port.Sent())
}

func TestNode_HeartbeatAndStatusTimers(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.poll()
	assert.Empty(t, rig.port.Sent())

	// Status fires at 5s, heartbeat not yet.
	rig.clock.Advance(5 * time.Second)
	rig.poll()
	expected := append(append([]byte{byte(EventStatusUpdate), ':'}, []byte("MOTION:INACTIVE,TIME:5000")...), '\n')
	assert.Equal(t, expected, rig.port.Sent())

	// At 10s since start the heartbeat joins in, ahead of the status
	// report in the iteration order.
	rig.port.ClearSent()
	rig.clock.Advance(5 * time.Second)
	rig.poll()
	sent := rig.port.Sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, byte(EventHeartbeat), sent[0])
	assert.Equal(t, byte(EventStatusUpdate), sent[1])
}

func TestNode_StatusReflectsMotionLevel(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.motion.SetLevel(true)
	rig.poll() // motion edge, resets the change timestamp
	rig.port.ClearSent()

	rig.clock.Advance(2 * time.Second)
	rig.port.Feed([]byte{byte(CmdRequestStatus)})
	rig.poll()

	expected := append(append([]byte{byte(EventStatusUpdate), ':'}, []byte("MOTION:ACTIVE,TIME:2000")...), '\n')
	assert.Equal(t, expected, rig.port.Sent())
}

// Scenario: write-prepare, write-confirm, card present, successful write.
// The host must see write-ok then write-completed, the tag must hold the
// zero-padded key, and the node must be idle with a cleared key.
func TestNode_WriteScenario(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.port.Feed([]byte{byte(CmdWritePrepare)})
	rig.port.FeedString(":secret123\n")
	rig.port.Feed([]byte{byte(CmdWriteConfirm)})
	rig.poll()
	assert.Equal(t, StateActive, rig.node.WriteModeState())
	assert.Empty(t, rig.port.Sent())

	rig.rfid.PresentCard()
	rig.poll()

	assert.Equal(t, []byte{byte(EventRFIDWriteOK), byte(EventRFIDWriteCompleted)}, rig.port.Sent())
	assert.Equal(t, StateIdle, rig.node.WriteModeState())
	assert.True(t, rig.node.mode.KeyEmpty())
	assert.Equal(t, 1, rig.rfid.HaltCount())

	var expected [CardBlockLen]byte
	copy(expected[:], "secret123")
	assert.Equal(t, expected, rig.rfid.Block(CardDataBlock))
}

// Scenario: a write-confirm with no prior prepare changes nothing and
// stays silent on the wire.
func TestNode_ConfirmWithoutPrepare(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.port.Feed([]byte{byte(CmdWriteConfirm)})
	rig.poll()

	assert.Empty(t, rig.port.Sent())
	assert.Equal(t, StateIdle, rig.node.WriteModeState())
}

// Scenario: inbound "20:ff8000\n" drives the LED with (255,128,0).
func TestNode_SetRGBScenario(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.port.Feed([]byte{byte(CmdSetRGB)})
	rig.port.FeedString(":ff8000\n")
	rig.poll()

	color, ok := rig.led.Last()
	require.True(t, ok)
	assert.Equal(t, RGBColor{R: 255, G: 128, B: 0}, color)
}

// While the write is armed, only frame handling and periodic reports run;
// sensor edges and normal card reads are skipped for the iteration.
func TestNode_ActiveWriteSkipsSensors(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.port.Feed([]byte{byte(CmdWritePrepare)})
	rig.port.FeedString(":k\n")
	rig.port.Feed([]byte{byte(CmdWriteConfirm)})
	rig.poll()
	require.Equal(t, StateActive, rig.node.WriteModeState())

	rig.motion.SetLevel(true)
	rig.button.SetLevel(false)
	rig.poll() // no card yet: nothing at all may happen
	assert.Empty(t, rig.port.Sent())

	// Commands are still dispatched while armed.
	rig.port.Feed([]byte{byte(CmdBuzzerOn)})
	rig.poll()
	assert.True(t, rig.buzzer.On())

	// Leaving write mode, the still-pending motion edge reports on the
	// next iteration.
	rig.port.Feed([]byte{byte(CmdNormalMode)})
	rig.poll()
	assert.Equal(t, StateIdle, rig.node.WriteModeState())
	sent := rig.port.Sent()
	assert.Contains(t, sent, byte(EventMotionDetected))
	assert.Contains(t, sent, byte(EventButtonPressed))
}

func TestNode_DrainsAllBufferedCommands(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	// Both commands sit in the buffer; one iteration handles both in
	// order, leaving the buzzer off.
	rig.port.Feed([]byte{byte(CmdBuzzerOn), byte(CmdBuzzerOff)})
	rig.poll()
	assert.False(t, rig.buzzer.On())
	assert.Zero(t, rig.port.Pending())
}

// A payload split across polls loses its tail: the scan consumes what is
// buffered, and the remainder is decoded as fresh input next iteration.
// This mirrors the acknowledged partial-frame limitation of the wire
// protocol rather than fixing it.
func TestNode_PartialFrameSplitAcrossPolls(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)

	rig.port.Feed([]byte{byte(CmdSetRGB)})
	rig.port.FeedString(":255,")
	rig.poll()

	// The truncated payload parsed as (255,0,0).
	color, ok := rig.led.Last()
	require.True(t, ok)
	assert.Equal(t, RGBColor{R: 255}, color)

	// The late remainder is misread as command bytes; digits and the
	// terminator are not valid codes, so they are dropped silently.
	rig.port.FeedString("128,0\n")
	rig.poll()
	assert.Zero(t, rig.port.Pending())
	assert.Empty(t, rig.port.Sent())
}
