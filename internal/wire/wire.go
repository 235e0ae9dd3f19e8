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

// Package wire implements the byte-level framing of the node/host link.
//
// A frame is either a single message-code byte, or a data frame:
//
//	code ':' payload '\n'
//
// The ':' separator is a sender convention only. The receiving scan skips
// every ':' it encounters, anywhere in the payload, which means a literal
// colon inside payload text is silently dropped. This is a known protocol
// limitation and is preserved on purpose.
package wire

// Frame control bytes
const (
	Separator  = ':'  // separates code from payload in a data frame
	Terminator = '\n' // ends a data frame
)

// Payload size limits
const (
	// MaxRGBPayload is the longest accepted RGB payload ("rrr,ggg,bbb").
	MaxRGBPayload = 15
	// MaxKeyPayload is the longest accepted write-key payload.
	MaxKeyPayload = 16
)

// ByteSource yields currently buffered input bytes without blocking.
// ok is false when no byte is available right now.
type ByteSource interface {
	Next() (b byte, ok bool)
}

// AppendFrame appends a data frame for code and payload to dst and
// returns the extended slice.
func AppendFrame(dst []byte, code byte, payload []byte) []byte {
	dst = append(dst, code, Separator)
	dst = append(dst, payload...)
	return append(dst, Terminator)
}

// ScanPayload reads payload bytes from src until a terminator ('\n' or NUL)
// is seen or maxLen bytes have been collected. Every ':' byte is skipped,
// not only the leading separator. The scan also stops as soon as src runs
// dry, so a stalled link returns a truncated (possibly empty) payload
// instead of blocking. Bytes of an overlong payload beyond maxLen are left
// in src; they are not carried over into a later frame by this function.
func ScanPayload(src ByteSource, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	buf := make([]byte, 0, maxLen)
	for len(buf) < maxLen {
		b, ok := src.Next()
		if !ok {
			break
		}
		if b == Terminator || b == 0 {
			break
		}
		if b == Separator {
			continue
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// ScanLine reads payload bytes from src until '\n' or maxLen. Unlike
// ScanPayload it skips only a single leading separator and keeps interior
// ':' bytes, which status payloads rely on. The host side of the link
// decodes with this scan. It stops when src runs dry, like ScanPayload.
func ScanLine(src ByteSource, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	buf := make([]byte, 0, maxLen)
	leading := true
	for len(buf) < maxLen {
		b, ok := src.Next()
		if !ok {
			break
		}
		if b == Terminator {
			break
		}
		if leading && b == Separator {
			leading = false
			continue
		}
		leading = false
		buf = append(buf, b)
	}
	return string(buf)
}
