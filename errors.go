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

import "errors"

// Link errors
var (
	// ErrNoData indicates the receive buffer is empty right now. This is
	// the normal result of a non-blocking poll, not a failure.
	ErrNoData = errors.New("no data available")
	// ErrPortClosed indicates the link to the host has been closed.
	ErrPortClosed = errors.New("port is closed")
	// ErrPayloadTooLong indicates a payload exceeds its wire limit.
	ErrPayloadTooLong = errors.New("payload too long")
	// ErrNotPrepared indicates a write confirmation with no staged key.
	ErrNotPrepared = errors.New("write not prepared")
)

// Card transaction errors - surfaced to the host as dedicated failure
// events, never retried within the same card presence.
var (
	// ErrAuthFailed indicates sector authentication was rejected.
	ErrAuthFailed = errors.New("card authentication failed")
	// ErrReadFailed indicates the block read did not complete.
	ErrReadFailed = errors.New("card read failed")
	// ErrWriteFailed indicates the block write did not complete.
	ErrWriteFailed = errors.New("card write failed")
	// ErrNoCard indicates no card is in the reader field.
	ErrNoCard = errors.New("no card present")
)
