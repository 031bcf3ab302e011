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

package frame

import (
	"fmt"

	pn532 "github.com/gaitQ/go-pn532"
)

// Decode scans buf for one complete information frame with the expected TFI
// and returns its payload (the bytes after the TFI, starting at the response
// code). A malformed or mismatching frame yields a retryable transport error,
// the chip's error frame a permanent one. The returned slice aliases buf.
func Decode(buf []byte, tfiExpected byte) ([]byte, error) {
	start := findStart(buf)
	if start < 0 {
		return nil, corrupted("no start code found")
	}

	frameLen, off, err := decodeLength(buf, start+2)
	if err != nil {
		return nil, err
	}
	if frameLen == 0 {
		return nil, corrupted("zero length frame")
	}
	if off+frameLen+1 > len(buf) {
		return nil, corrupted("truncated frame body")
	}

	body := buf[off : off+frameLen]
	dcs := buf[off+frameLen]
	if Checksum(body)+dcs != 0 {
		return nil, corrupted("bad data checksum")
	}

	tfi := body[0]
	if tfi == TFIError {
		if len(body) > 1 {
			return nil, &pn532.TransportError{
				Op:   "decode",
				Err:  fmt.Errorf("%w: error frame code 0x%02X", pn532.ErrFrameCorrupted, body[1]),
				Type: pn532.ErrorTypePermanent,
			}
		}
		return nil, &pn532.TransportError{
			Op:   "decode",
			Err:  fmt.Errorf("%w: error frame", pn532.ErrFrameCorrupted),
			Type: pn532.ErrorTypePermanent,
		}
	}
	if tfi != tfiExpected {
		return nil, corrupted(fmt.Sprintf("unexpected TFI 0x%02X", tfi))
	}
	return body[1:], nil
}

// findStart locates the 00 FF start code, returning the index of its first
// byte or -1.
func findStart(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == StartCode1 && buf[i+1] == StartCode2 {
			return i
		}
	}
	return -1
}

// decodeLength reads the normal or extended length field at off and returns
// the declared TFI+payload length and the offset of the TFI byte.
func decodeLength(buf []byte, off int) (frameLen, bodyOff int, err error) {
	if off+1 >= len(buf) {
		return 0, 0, corrupted("truncated length field")
	}

	if buf[off] == 0xFF && buf[off+1] == 0xFF {
		// Extended frame: LENm LENl LCS
		if off+4 >= len(buf) {
			return 0, 0, corrupted("truncated extended length field")
		}
		lenM, lenL, lcs := buf[off+2], buf[off+3], buf[off+4]
		if lenM+lenL+lcs != 0 {
			return 0, 0, corrupted("bad extended length checksum")
		}
		frameLen = int(lenM)<<8 | int(lenL)
		if frameLen > MaxDataLen {
			return 0, 0, corrupted("extended frame too long")
		}
		return frameLen, off + 5, nil
	}

	if buf[off]+buf[off+1] != 0 {
		return 0, 0, corrupted("bad length checksum")
	}
	return int(buf[off]), off + 2, nil
}

func corrupted(detail string) error {
	return &pn532.TransportError{
		Op:        "decode",
		Err:       fmt.Errorf("%w: %s", pn532.ErrFrameCorrupted, detail),
		Type:      pn532.ErrorTypeTransient,
		Retryable: true,
	}
}
