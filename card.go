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

import "fmt"

// readCardTransaction handles a newly present card in normal mode:
// authenticate, read the secret block, report the outcome. The card is
// always halted afterwards so the reader is free for the next one.
func (n *Node) readCardTransaction() {
	n.send(EventRFIDDetected)
	defer n.ph.RFID.Halt()

	secret, err := n.readSecret()
	if err != nil {
		Debugf("card read: %v", err)
		n.send(EventRFIDReadFailed)
		return
	}
	n.sendData(EventRFIDReadOK, secret)
}

// writeCardTransaction performs the single armed write attempt. Whatever
// the outcome, the card is halted, write mode falls back to idle with a
// cleared key, and a write-completed event tells the host the phase is
// over.
func (n *Node) writeCardTransaction() {
	defer func() {
		n.ph.RFID.Halt()
		n.mode.Cancel()
		n.send(EventRFIDWriteCompleted)
	}()

	if err := n.writeSecret(n.mode.BlockData()); err != nil {
		Debugf("card write: %v", err)
		n.send(EventRFIDWriteFailed)
		return
	}
	n.send(EventRFIDWriteOK)
}

// readSecret authenticates the data sector and reads the secret block.
// The stored bytes are returned as text up to the first NUL; callers
// must treat the result as opaque since nothing guarantees the block
// holds printable data.
func (n *Node) readSecret() (string, error) {
	if err := n.ph.RFID.Authenticate(CardTrailerBlock, FactoryDefaultKey); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	block, err := n.ph.RFID.ReadBlock(CardDataBlock)
	if err != nil {
		return "", fmt.Errorf("%w: block %d: %w", ErrReadFailed, CardDataBlock, err)
	}
	return blockText(block), nil
}

// writeSecret authenticates the data sector and writes the staged key,
// already zero-padded to a full block.
func (n *Node) writeSecret(data [CardBlockLen]byte) error {
	if err := n.ph.RFID.Authenticate(CardTrailerBlock, FactoryDefaultKey); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	if err := n.ph.RFID.WriteBlock(CardDataBlock, data); err != nil {
		return fmt.Errorf("%w: block %d: %w", ErrWriteFailed, CardDataBlock, err)
	}
	return nil
}

// blockText cuts the block at the first NUL. A zero byte would end the
// payload scan on the receiving side anyway, so trailing padding never
// survives the wire.
func blockText(block [CardBlockLen]byte) string {
	for i, b := range block {
		if b == 0 {
			return string(block[:i])
		}
	}
	return string(block[:])
}
