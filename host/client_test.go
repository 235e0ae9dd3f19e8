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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sentry "github.com/kgames/go-sentry"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type cardRead struct {
	secret string
	ok     bool
}

// recordingHandler captures every event the client delivers.
type recordingHandler struct {
	ready        int
	motion       []bool
	button       int
	detected     int
	reads        []cardRead
	writeResults []bool
	completed    int
	statuses     []string
	ticks        int
}

func (h *recordingHandler) HandleReady()          { h.ready++ }
func (h *recordingHandler) HandleMotion(a bool)   { h.motion = append(h.motion, a) }
func (h *recordingHandler) HandleButton()         { h.button++ }
func (h *recordingHandler) HandleCardDetected()   { h.detected++ }
func (h *recordingHandler) HandleWriteCompleted() { h.completed++ }

func (h *recordingHandler) HandleCardRead(secret string, ok bool) {
	h.reads = append(h.reads, cardRead{secret: secret, ok: ok})
}

func (h *recordingHandler) HandleWriteResult(ok bool) {
	h.writeResults = append(h.writeResults, ok)
}

func (h *recordingHandler) HandleStatus(status string) {
	h.statuses = append(h.statuses, status)
}

func (h *recordingHandler) HandleTick(time.Time) { h.ticks++ }

func newTestClient(t *testing.T) (*Client, *sentry.MockPort, *recordingHandler, *fakeClock) {
	t.Helper()
	port := sentry.NewMockPort()
	handler := &recordingHandler{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	client, err := NewClient(port, handler, WithClock(clock))
	require.NoError(t, err)
	return client, port, handler, clock
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(nil, &recordingHandler{})
	assert.Error(t, err)

	_, err = NewClient(sentry.NewMockPort(), nil)
	assert.Error(t, err)
}

func TestClient_DispatchesBareEvents(t *testing.T) {
	t.Parallel()

	client, port, handler, clock := newTestClient(t)

	port.Feed([]byte{
		byte(sentry.EventReady),
		byte(sentry.EventMotionDetected),
		byte(sentry.EventMotionStopped),
		byte(sentry.EventRFIDDetected),
		byte(sentry.EventButtonPressed),
		byte(sentry.EventRFIDReadFailed),
		byte(sentry.EventRFIDWriteOK),
		byte(sentry.EventRFIDWriteFailed),
		byte(sentry.EventRFIDWriteCompleted),
	})
	client.Poll(clock.Now())

	assert.Equal(t, 1, handler.ready)
	assert.Equal(t, []bool{true, false}, handler.motion)
	assert.Equal(t, 1, handler.detected)
	assert.Equal(t, 1, handler.button)
	assert.Equal(t, []cardRead{{secret: "", ok: false}}, handler.reads)
	assert.Equal(t, []bool{true, false}, handler.writeResults)
	assert.Equal(t, 1, handler.completed)
	assert.Equal(t, 1, handler.ticks)
}

func TestClient_DispatchesDataEvents(t *testing.T) {
	t.Parallel()

	client, port, handler, clock := newTestClient(t)

	port.Feed([]byte{byte(sentry.EventRFIDReadOK)})
	port.FeedString(":topsecret\n")
	port.Feed([]byte{byte(sentry.EventStatusUpdate)})
	port.FeedString(":MOTION:ACTIVE,TIME:1250\n")
	client.Poll(clock.Now())

	assert.Equal(t, []cardRead{{secret: "topsecret", ok: true}}, handler.reads)
	assert.Equal(t, []string{"MOTION:ACTIVE,TIME:1250"}, handler.statuses)
}

func TestClient_IgnoresUnknownBytes(t *testing.T) {
	t.Parallel()

	client, port, handler, clock := newTestClient(t)

	port.Feed([]byte{0xEE, 0x00, byte(sentry.EventReady)})
	client.Poll(clock.Now())

	assert.Equal(t, 1, handler.ready)
}

func TestClient_HeartbeatWatchdog(t *testing.T) {
	t.Parallel()

	client, port, _, clock := newTestClient(t)

	var connects, disconnects, beats int
	client.OnConnect = func() { connects++ }
	client.OnDisconnect = func() { disconnects++ }
	client.OnHeartbeat = func() { beats++ }

	assert.False(t, client.Connected())

	port.Feed([]byte{byte(sentry.EventHeartbeat)})
	client.Poll(clock.Now())
	assert.True(t, client.Connected())
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, beats)

	// A second heartbeat refreshes without reconnecting.
	clock.Advance(10 * time.Second)
	port.Feed([]byte{byte(sentry.EventHeartbeat)})
	client.Poll(clock.Now())
	assert.Equal(t, 1, connects)
	assert.Equal(t, 2, beats)

	// Silence past the timeout drops the link.
	clock.Advance(31 * time.Second)
	client.Poll(clock.Now())
	assert.False(t, client.Connected())
	assert.Equal(t, 1, disconnects)

	// It comes back on the next heartbeat.
	port.Feed([]byte{byte(sentry.EventHeartbeat)})
	client.Poll(clock.Now())
	assert.True(t, client.Connected())
	assert.Equal(t, 2, connects)
}

func TestClient_Commands(t *testing.T) {
	t.Parallel()

	client, port, _, _ := newTestClient(t)

	require.NoError(t, client.SetRGB(sentry.RGBColor{R: 255, G: 128}))
	assert.Equal(t, append([]byte{byte(sentry.CmdSetRGB), ':'}, []byte("255,128,0\n")...), port.Sent())
	port.ClearSent()

	require.NoError(t, client.BuzzerOn())
	require.NoError(t, client.BuzzerOff())
	require.NoError(t, client.WriteConfirm())
	require.NoError(t, client.NormalMode())
	require.NoError(t, client.Ack())
	require.NoError(t, client.RequestStatus())
	assert.Equal(t, []byte{
		byte(sentry.CmdBuzzerOn),
		byte(sentry.CmdBuzzerOff),
		byte(sentry.CmdWriteConfirm),
		byte(sentry.CmdNormalMode),
		byte(sentry.CmdAck),
		byte(sentry.CmdRequestStatus),
	}, port.Sent())
	port.ClearSent()

	require.NoError(t, client.WritePrepare("secret123"))
	assert.Equal(t, append([]byte{byte(sentry.CmdWritePrepare), ':'}, []byte("secret123\n")...), port.Sent())
}

func TestClient_WritePrepareRejectsLongKey(t *testing.T) {
	t.Parallel()

	client, port, _, _ := newTestClient(t)

	err := client.WritePrepare("12345678901234567")
	assert.ErrorIs(t, err, sentry.ErrPayloadTooLong)
	assert.Empty(t, port.Sent())
}

// TestClient_ConnectedConcurrentWithPoll drives the poll loop while
// another goroutine reads Connected; the race detector verifies the
// watchdog state is properly guarded.
func TestClient_ConnectedConcurrentWithPoll(t *testing.T) {
	t.Parallel()

	client, port, _, clock := newTestClient(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = client.Connected()
		}
	}()

	for i := 0; i < 200; i++ {
		port.Feed([]byte{byte(sentry.EventHeartbeat)})
		client.Poll(clock.Now())
	}
	<-done

	assert.True(t, client.Connected())
}

func TestClient_TicksWithoutData(t *testing.T) {
	t.Parallel()

	client, _, handler, clock := newTestClient(t)

	client.Poll(clock.Now())
	client.Poll(clock.Now())

	assert.Equal(t, 2, handler.ticks)
}
