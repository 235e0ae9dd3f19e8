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
	"fmt"

	"github.com/kgames/go-sentry/internal/wire"
)

// Payload limits re-exported from the wire package for callers that build
// frames themselves.
const (
	// MaxRGBPayload is the longest accepted set-rgb payload.
	MaxRGBPayload = wire.MaxRGBPayload
	// MaxKeyPayload is the longest accepted write-prepare payload.
	MaxKeyPayload = wire.MaxKeyPayload
)

// Codec encodes outbound events and decodes inbound commands on a Port.
// Both directions of the link use the same frame alphabet, so the host
// side reuses this type with the roles reversed.
type Codec struct {
	port Port
}

// NewCodec creates a codec over port.
func NewCodec(port Port) *Codec {
	return &Codec{port: port}
}

// SendEvent emits a bare-event frame: exactly one code byte.
func (c *Codec) SendEvent(code MessageCode) error {
	if _, err := c.port.Write([]byte{byte(code)}); err != nil {
		return fmt.Errorf("send event %s: %w", code, err)
	}
	return nil
}

// SendEventData emits a data frame: code, ':', payload, '\n'.
func (c *Codec) SendEventData(code MessageCode, data string) error {
	frame := wire.AppendFrame(make([]byte, 0, len(data)+3), byte(code), []byte(data))
	if _, err := c.port.Write(frame); err != nil {
		return fmt.Errorf("send event %s with data: %w", code, err)
	}
	return nil
}

// PollCommand returns the next raw command byte, or ErrNoData when the
// receive buffer is empty. It never blocks.
func (c *Codec) PollCommand() (MessageCode, error) {
	b, err := c.port.ReadByte()
	if err != nil {
		return 0, err
	}
	return MessageCode(b), nil
}

// ReadPayload extracts the payload that follows a command byte. The scan
// is bounded by maxLen and by the bytes currently buffered: it consumes
// until '\n', NUL or maxLen, skipping every ':' on the way, and returns
// whatever it has when the buffer runs dry. A payload split across polls
// loses its tail; the remainder is parsed as fresh input on the next poll.
func (c *Codec) ReadPayload(maxLen int) string {
	return wire.ScanPayload(portSource{c.port}, maxLen)
}

// ReadLine extracts a payload keeping interior ':' bytes, stripping only
// the frame separator. The host uses this to decode event payloads such
// as status updates, whose text contains colons.
func (c *Codec) ReadLine(maxLen int) string {
	return wire.ScanLine(portSource{c.port}, maxLen)
}

// portSource adapts a Port to the wire.ByteSource scan contract. Any read
// error, including ErrNoData, ends the scan.
type portSource struct {
	port Port
}

func (s portSource) Next() (byte, bool) {
	b, err := s.port.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}
