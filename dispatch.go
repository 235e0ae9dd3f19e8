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

import "time"

// dispatchCommand routes one decoded command byte. Commands are
// independent of each other; the only cross-command ordering that exists
// in this protocol is the prepare->confirm dependency inside WriteMode.
// Unknown bytes are dropped with a diagnostic and nothing goes back on
// the wire for them.
func (n *Node) dispatchCommand(cmd MessageCode, now time.Time) {
	Debugf("command: %s (%d)", cmd, byte(cmd))

	switch cmd {
	case CmdSetRGB:
		payload := n.codec.ReadPayload(MaxRGBPayload)
		n.ph.LED.SetColor(ParseRGBPayload(payload))

	case CmdBuzzerOn:
		n.ph.Buzzer.Set(true)

	case CmdBuzzerOff:
		n.ph.Buzzer.Set(false)

	case CmdWritePrepare:
		n.mode.Prepare(n.codec.ReadPayload(MaxKeyPayload))

	case CmdWriteConfirm:
		if !n.mode.Confirm() {
			Debugf("write confirm without prepare, ignored")
		}

	case CmdNormalMode:
		n.mode.Cancel()

	case CmdAck:
		// Nothing to do.

	case CmdRequestStatus:
		n.sendStatusUpdate(now)

	default:
		Debugf("unknown command byte: %d", byte(cmd))
	}
}
