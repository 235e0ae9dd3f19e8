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

// WriteModeState represents the finite state machine guarding RFID tag
// writes. A write may only happen in StateActive, which is reachable
// solely through StatePrepared, so a single stray or reordered command
// byte can never trigger a destructive write on its own.
type WriteModeState int

const (
	// StateIdle means no write is pending; cards are read, not written.
	StateIdle WriteModeState = iota
	// StatePrepared means a key is staged but writing is not yet armed.
	StatePrepared
	// StateActive means the next card transaction is a write. The state
	// falls back to StateIdle after exactly one attempt, success or not.
	StateActive
)

// WriteKeyLen is the fixed capacity of the staged write key, matching
// the card block size.
const WriteKeyLen = 16

// WriteMode owns the staged key and the prepare/confirm gate. It is
// mutated only by the node's polling loop and needs no locking.
type WriteMode struct {
	key    [WriteKeyLen]byte
	keyLen int
	state  WriteModeState
}

// State returns the current phase.
func (w *WriteMode) State() WriteModeState {
	return w.state
}

// Prepare stages up to WriteKeyLen bytes of key and moves to
// StatePrepared. It always succeeds: re-preparing replaces the previous
// key and resets the phase even when already active.
func (w *WriteMode) Prepare(key string) {
	w.clearKey()
	w.keyLen = copy(w.key[:], key)
	w.state = StatePrepared
}

// Confirm arms the write: StatePrepared becomes StateActive. From any
// other state it reports false and changes nothing - a confirm without a
// prior prepare must not arm a write.
func (w *WriteMode) Confirm() bool {
	if w.state != StatePrepared {
		return false
	}
	w.state = StateActive
	return true
}

// Cancel returns to StateIdle from any state and zero-fills the key.
// Leaving write mode for any reason must not keep secret material around.
func (w *WriteMode) Cancel() {
	w.state = StateIdle
	w.clearKey()
}

// BlockData returns the staged key zero-padded to a full card block.
func (w *WriteMode) BlockData() [WriteKeyLen]byte {
	return w.key
}

// KeyEmpty reports whether the key buffer is all zero. Used by tests to
// verify the clear-on-exit invariant.
func (w *WriteMode) KeyEmpty() bool {
	for _, b := range w.key {
		if b != 0 {
			return false
		}
	}
	return true
}

func (w *WriteMode) clearKey() {
	w.key = [WriteKeyLen]byte{}
	w.keyLen = 0
}
