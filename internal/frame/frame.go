// Copyright 2026 The gaitQ Contributors.
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

// Package frame implements the PN532 host frame format shared by all
// transports: normal and extended information frames, the ACK/NACK flow
// control frames, and the error frame the chip emits on a syntax error.
package frame

// Frame identifier bytes (direction of the information frame)
const (
	TFIHostToChip = 0xD4
	TFIChipToHost = 0xD5
	TFIError      = 0x7F
)

// Frame markers
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

// MaxDataLen is the longest TFI+payload an extended frame can carry
const MaxDataLen = 263

// normalDataLen is the longest TFI+payload a normal frame can carry
const normalDataLen = 255

// Flow control frames
var (
	Ack  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	Nack = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Checksum returns the byte sum over data. Both the length checksum and the
// data checksum of a frame satisfy sum+checksum == 0 (mod 256).
func Checksum(data []byte) byte {
	var chk byte
	for _, b := range data {
		chk += b
	}
	return chk
}

// Build wraps tfi and payload into a complete wire frame, choosing the
// extended format automatically when the payload does not fit a normal frame.
func Build(tfi byte, payload []byte) []byte {
	dataLen := 1 + len(payload) // TFI + payload

	var out []byte
	if dataLen <= normalDataLen {
		out = make([]byte, 0, 7+len(payload))
		out = append(out, Preamble, StartCode1, StartCode2)
		out = append(out, byte(dataLen), byte(-dataLen))
	} else {
		out = make([]byte, 0, 10+len(payload))
		out = append(out, Preamble, StartCode1, StartCode2, 0xFF, 0xFF)
		lenM, lenL := byte(dataLen>>8), byte(dataLen)
		out = append(out, lenM, lenL, -(lenM + lenL))
	}

	out = append(out, tfi)
	out = append(out, payload...)
	out = append(out, -(tfi + Checksum(payload)), Postamble)
	return out
}

// IsAck reports whether buf starts with an ACK frame
func IsAck(buf []byte) bool {
	if len(buf) < len(Ack) {
		return false
	}
	for i, b := range Ack {
		if buf[i] != b {
			return false
		}
	}
	return true
}

// IsNack reports whether buf starts with a NACK frame
func IsNack(buf []byte) bool {
	if len(buf) < len(Nack) {
		return false
	}
	for i, b := range Nack {
		if buf[i] != b {
			return false
		}
	}
	return true
}
