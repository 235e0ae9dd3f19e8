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

	"github.com/stretchr/testify/assert"
)

func TestWriteMode_PrepareConfirm(t *testing.T) {
	t.Parallel()

	var w WriteMode
	assert.Equal(t, StateIdle, w.State())

	w.Prepare("secret123")
	assert.Equal(t, StatePrepared, w.State())

	assert.True(t, w.Confirm())
	assert.Equal(t, StateActive, w.State())

	var expected [WriteKeyLen]byte
	copy(expected[:], "secret123")
	assert.Equal(t, expected, w.BlockData())
}

func TestWriteMode_ConfirmWithoutPrepare(t *testing.T) {
	t.Parallel()

	var w WriteMode
	assert.False(t, w.Confirm())
	assert.Equal(t, StateIdle, w.State())
	assert.True(t, w.KeyEmpty())
}

func TestWriteMode_ConfirmTwice(t *testing.T) {
	t.Parallel()

	var w WriteMode
	w.Prepare("k")
	assert.True(t, w.Confirm())
	// A second confirm must not be accepted from active state.
	assert.False(t, w.Confirm())
	assert.Equal(t, StateActive, w.State())
}

func TestWriteMode_RePrepareResetsPhase(t *testing.T) {
	t.Parallel()

	var w WriteMode
	w.Prepare("first")
	assert.True(t, w.Confirm())
	assert.Equal(t, StateActive, w.State())

	// Re-preparing from active replaces the key and drops back to
	// prepared, requiring a fresh confirm.
	w.Prepare("second")
	assert.Equal(t, StatePrepared, w.State())

	var expected [WriteKeyLen]byte
	copy(expected[:], "second")
	assert.Equal(t, expected, w.BlockData())
}

func TestWriteMode_CancelFromAnyState(t *testing.T) {
	t.Parallel()

	setups := []struct {
		setup func(*WriteMode)
		name  string
	}{
		{name: "From_Idle", setup: func(_ *WriteMode) {}},
		{name: "From_Prepared", setup: func(w *WriteMode) { w.Prepare("abc") }},
		{name: "From_Active", setup: func(w *WriteMode) { w.Prepare("abc"); w.Confirm() }},
	}

	for _, tt := range setups {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var w WriteMode
			tt.setup(&w)
			w.Cancel()
			assert.Equal(t, StateIdle, w.State())
			assert.True(t, w.KeyEmpty())
		})
	}
}

func TestWriteMode_KeyTruncatedAtCapacity(t *testing.T) {
	t.Parallel()

	var w WriteMode
	w.Prepare("0123456789abcdefOVERFLOW")

	var expected [WriteKeyLen]byte
	copy(expected[:], "0123456789abcdef")
	assert.Equal(t, expected, w.BlockData())
}

func TestWriteMode_BlockDataZeroPadded(t *testing.T) {
	t.Parallel()

	var w WriteMode
	w.Prepare("abc")

	data := w.BlockData()
	assert.Equal(t, byte('a'), data[0])
	assert.Equal(t, byte('c'), data[2])
	for i := 3; i < WriteKeyLen; i++ {
		assert.Zero(t, data[i])
	}
}
