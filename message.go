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

// MessageCode identifies a protocol message. Codes 1-12 are events the
// node sends to the host; codes 20-27 are commands the host sends to the
// node. The two ranges are disjoint by convention only: nothing on the
// wire enforces it, the receiver's direction decides the interpretation.
type MessageCode byte

// Node -> host events
const (
	EventReady              MessageCode = 1
	EventMotionDetected     MessageCode = 2
	EventMotionStopped      MessageCode = 3
	EventRFIDDetected       MessageCode = 4
	EventButtonPressed      MessageCode = 5
	EventRFIDReadOK         MessageCode = 6
	EventRFIDReadFailed     MessageCode = 7
	EventRFIDWriteOK        MessageCode = 8
	EventRFIDWriteFailed    MessageCode = 9
	EventRFIDWriteCompleted MessageCode = 10
	EventStatusUpdate       MessageCode = 11
	EventHeartbeat          MessageCode = 12
)

// Host -> node commands
const (
	CmdSetRGB        MessageCode = 20
	CmdBuzzerOn      MessageCode = 21
	CmdBuzzerOff     MessageCode = 22
	CmdWritePrepare  MessageCode = 23
	CmdWriteConfirm  MessageCode = 24
	CmdNormalMode    MessageCode = 25
	CmdAck           MessageCode = 26
	CmdRequestStatus MessageCode = 27
)

// HasData reports whether an event code carries a payload frame instead
// of a bare code byte.
func (c MessageCode) HasData() bool {
	return c == EventRFIDReadOK || c == EventStatusUpdate
}

// String returns a human-readable name for logging.
func (c MessageCode) String() string {
	switch c {
	case EventReady:
		return "ready"
	case EventMotionDetected:
		return "motion-detected"
	case EventMotionStopped:
		return "motion-stopped"
	case EventRFIDDetected:
		return "rfid-detected"
	case EventButtonPressed:
		return "button-pressed"
	case EventRFIDReadOK:
		return "rfid-read-ok"
	case EventRFIDReadFailed:
		return "rfid-read-fail"
	case EventRFIDWriteOK:
		return "rfid-write-ok"
	case EventRFIDWriteFailed:
		return "rfid-write-fail"
	case EventRFIDWriteCompleted:
		return "rfid-write-completed"
	case EventStatusUpdate:
		return "status-update"
	case EventHeartbeat:
		return "heartbeat"
	case CmdSetRGB:
		return "set-rgb"
	case CmdBuzzerOn:
		return "buzzer-on"
	case CmdBuzzerOff:
		return "buzzer-off"
	case CmdWritePrepare:
		return "write-prepare"
	case CmdWriteConfirm:
		return "write-confirm"
	case CmdNormalMode:
		return "normal-mode"
	case CmdAck:
		return "ack"
	case CmdRequestStatus:
		return "request-status"
	default:
		return "unknown"
	}
}
