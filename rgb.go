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

import "strings"

// RGBColor holds the three LED channel values, each already clamped to
// the 0-255 PWM range.
type RGBColor struct {
	R uint8
	G uint8
	B uint8
}

// ParseRGBPayload interprets a set-rgb payload. A string of exactly six
// characters is read as hex "RRGGBB"; anything else is tokenized on
// commas, or on spaces when no comma is present, into up to three decimal
// fields. Missing fields default to zero and every channel is clamped to
// [0,255].
//
// Parsing is deliberately lenient and has no failure return: a bad hex
// digit cuts the pair short (leading valid digits still count), a bad
// decimal token contributes its leading digits or zero. Malformed input
// degrades toward black rather than erroring, which is the documented
// contract of this command.
func ParseRGBPayload(s string) RGBColor {
	if len(s) == 6 {
		return RGBColor{
			R: parseHexPair(s[0:2]),
			G: parseHexPair(s[2:4]),
			B: parseHexPair(s[4:6]),
		}
	}

	sep := ','
	if !strings.ContainsRune(s, ',') {
		sep = ' '
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == sep })

	var ch [3]int
	for i := 0; i < len(ch) && i < len(fields); i++ {
		ch[i] = parseLeadingInt(fields[i])
	}
	return RGBColor{
		R: clampChannel(ch[0]),
		G: clampChannel(ch[1]),
		B: clampChannel(ch[2]),
	}
}

// parseHexPair converts up to two hex digits, stopping at the first
// invalid character.
func parseHexPair(s string) uint8 {
	v := 0
	for i := 0; i < len(s); i++ {
		d, ok := hexDigit(s[i])
		if !ok {
			break
		}
		v = v<<4 | d
	}
	return uint8(v)
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}

// parseLeadingInt reads an optionally signed decimal prefix, ignoring
// whatever follows it. Overflow is not a concern at payload lengths the
// codec admits.
func parseLeadingInt(s string) int {
	i, neg := 0, false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	v := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + int(s[i]-'0')
	}
	if neg {
		return -v
	}
	return v
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
