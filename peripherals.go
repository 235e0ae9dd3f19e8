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

import "github.com/kgames/go-sentry/internal/syncutil"

// The physical I/O surrounding the protocol engine is narrow by design.
// Sensor debouncing, PWM duty mapping and the transceiver bit protocol
// all live behind these capability interfaces; the engine only polls and
// commands them. See the hw package for periph.io-backed implementations.

// DigitalInput reads the current level of an input pin.
type DigitalInput interface {
	// Read returns true for a high level.
	Read() bool
}

// LED drives the three PWM channels of the RGB indicator.
type LED interface {
	SetColor(c RGBColor)
}

// Buzzer switches the alarm sounder.
type Buzzer interface {
	Set(on bool)
}

// Transceiver is the capability contract of the RFID reader. All calls
// are single attempts bounded by the reader's own timeouts; the engine
// never retries within one card presence.
type Transceiver interface {
	// CardPresent polls for a new card in the field without blocking.
	CardPresent() bool
	// Authenticate runs sector authentication against a trailer block.
	Authenticate(trailerBlock byte, key [CardKeyLen]byte) error
	// ReadBlock reads one 16-byte data block.
	ReadBlock(block byte) ([CardBlockLen]byte, error)
	// WriteBlock writes one 16-byte data block.
	WriteBlock(block byte, data [CardBlockLen]byte) error
	// Halt releases the card and ends the crypto session so the reader
	// is free for the next card.
	Halt()
}

// Fixed card layout of this protocol. The secret lives in block 4 of
// sector 1, authenticated through trailer block 7 with the factory
// default key. These are protocol constants, not configuration.
const (
	// CardDataBlock is the block holding the 16-byte secret.
	CardDataBlock byte = 4
	// CardTrailerBlock is the sector trailer used for authentication.
	CardTrailerBlock byte = 7
	// CardBlockLen is the size of one data block.
	CardBlockLen = 16
	// CardKeyLen is the size of an authentication key.
	CardKeyLen = 6
)

// FactoryDefaultKey is the well-known transport key blank tags ship with.
var FactoryDefaultKey = [CardKeyLen]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Peripherals bundles the hardware collaborators a Node drives.
type Peripherals struct {
	Motion DigitalInput
	Button DigitalInput
	LED    LED
	Buzzer Buzzer
	RFID   Transceiver
}

// NullTransceiver is the Transceiver for nodes deployed without a
// reader: no card is ever present and every card operation fails with
// ErrNoCard. Motion, button, LED and buzzer handling work normally; the
// host simply never sees card events.
type NullTransceiver struct{}

// CardPresent implements Transceiver.
func (NullTransceiver) CardPresent() bool { return false }

// Authenticate implements Transceiver.
func (NullTransceiver) Authenticate(byte, [CardKeyLen]byte) error { return ErrNoCard }

// ReadBlock implements Transceiver.
func (NullTransceiver) ReadBlock(byte) ([CardBlockLen]byte, error) {
	return [CardBlockLen]byte{}, ErrNoCard
}

// WriteBlock implements Transceiver.
func (NullTransceiver) WriteBlock(byte, [CardBlockLen]byte) error { return ErrNoCard }

// Halt implements Transceiver.
func (NullTransceiver) Halt() {}

// Mock peripherals for testing. Like MockPort they are part of the
// package proper so downstream code can run a node without hardware.

// MockInput is a settable DigitalInput.
type MockInput struct {
	mu    syncutil.RWMutex
	level bool
}

// NewMockInput creates an input at the given initial level.
func NewMockInput(level bool) *MockInput {
	return &MockInput{level: level}
}

// Read implements DigitalInput.
func (m *MockInput) Read() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// SetLevel drives the simulated pin.
func (m *MockInput) SetLevel(level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

// MockLED records the colors it was driven with.
type MockLED struct {
	colors []RGBColor
	mu     syncutil.RWMutex
}

// SetColor implements LED.
func (m *MockLED) SetColor(c RGBColor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colors = append(m.colors, c)
}

// Last returns the most recent color and whether any was set.
func (m *MockLED) Last() (RGBColor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.colors) == 0 {
		return RGBColor{}, false
	}
	return m.colors[len(m.colors)-1], true
}

// Colors returns every color set so far.
func (m *MockLED) Colors() []RGBColor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RGBColor(nil), m.colors...)
}

// MockBuzzer records its on/off state.
type MockBuzzer struct {
	mu syncutil.RWMutex
	on bool
}

// Set implements Buzzer.
func (m *MockBuzzer) Set(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
}

// On returns the current state.
func (m *MockBuzzer) On() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.on
}

// MockTransceiver simulates a reader with one virtual tag. Block storage,
// authentication and error injection cover everything the card handler
// exercises.
type MockTransceiver struct {
	blocks    map[byte][CardBlockLen]byte
	authErr   error
	readErr   error
	writeErr  error
	mu        syncutil.RWMutex
	present   bool
	authed    bool
	haltCount int
}

// NewMockTransceiver creates a reader with an empty tag and no card in
// the field.
func NewMockTransceiver() *MockTransceiver {
	return &MockTransceiver{blocks: make(map[byte][CardBlockLen]byte)}
}

// CardPresent implements Transceiver.
func (m *MockTransceiver) CardPresent() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present
}

// Authenticate implements Transceiver.
func (m *MockTransceiver) Authenticate(_ byte, _ [CardKeyLen]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authErr != nil {
		return m.authErr
	}
	m.authed = true
	return nil
}

// ReadBlock implements Transceiver.
func (m *MockTransceiver) ReadBlock(block byte) ([CardBlockLen]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.authed {
		return [CardBlockLen]byte{}, ErrAuthFailed
	}
	if m.readErr != nil {
		return [CardBlockLen]byte{}, m.readErr
	}
	return m.blocks[block], nil
}

// WriteBlock implements Transceiver.
func (m *MockTransceiver) WriteBlock(block byte, data [CardBlockLen]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.authed {
		return ErrAuthFailed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.blocks[block] = data
	return nil
}

// Halt implements Transceiver. The simulated card leaves the field and
// the crypto session ends.
func (m *MockTransceiver) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = false
	m.authed = false
	m.haltCount++
}

// Test helper methods

// PresentCard places a card in the field.
func (m *MockTransceiver) PresentCard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = true
}

// SetBlock stores data on the virtual tag.
func (m *MockTransceiver) SetBlock(block byte, data [CardBlockLen]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[block] = data
}

// Block returns the tag contents of a block.
func (m *MockTransceiver) Block(block byte) [CardBlockLen]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks[block]
}

// SetAuthError injects an authentication failure.
func (m *MockTransceiver) SetAuthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authErr = err
}

// SetReadError injects a block read failure.
func (m *MockTransceiver) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError injects a block write failure.
func (m *MockTransceiver) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// HaltCount returns how many times Halt was called.
func (m *MockTransceiver) HaltCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.haltCount
}
