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
	"github.com/kgames/go-sentry/internal/syncutil"
)

// Port is a point-to-point byte stream to the peer on the other end of
// the link. The protocol is transport-agnostic; any byte stream with
// non-blocking read semantics can back it. See transport/uart for the
// serial implementation.
type Port interface {
	// ReadByte returns the next buffered byte, or ErrNoData when the
	// receive buffer is currently empty. It must never block.
	ReadByte() (byte, error)

	// Write sends raw bytes to the peer.
	Write(p []byte) (int, error)

	// Close closes the link.
	Close() error
}

// MockPort provides an in-memory Port implementation for testing. Bytes
// fed with Feed become readable; everything written is captured and can
// be inspected with Sent.
type MockPort struct {
	rx       []byte
	tx       []byte
	readErr  error
	writeErr error
	mu       syncutil.RWMutex
	closed   bool
}

// NewMockPort creates a new mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// ReadByte implements Port.
func (m *MockPort) ReadByte() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.rx) == 0 {
		return 0, ErrNoData
	}
	b := m.rx[0]
	m.rx = m.rx[1:]
	return b, nil
}

// Write implements Port.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.tx = append(m.tx, p...)
	return len(p), nil
}

// Close implements Port.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helper methods

// Feed queues bytes to be returned by subsequent ReadByte calls.
func (m *MockPort) Feed(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, p...)
}

// FeedString queues a string of bytes for reading.
func (m *MockPort) FeedString(s string) {
	m.Feed([]byte(s))
}

// Sent returns a copy of everything written to the port so far.
func (m *MockPort) Sent() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.tx...)
}

// ClearSent discards the captured output.
func (m *MockPort) ClearSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = nil
}

// SetReadError makes every ReadByte fail with err until cleared with nil.
func (m *MockPort) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every Write fail with err until cleared with nil.
func (m *MockPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Pending returns how many fed bytes remain unread.
func (m *MockPort) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rx)
}
