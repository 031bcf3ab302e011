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

package pn532

// crcB computes the ISO/IEC 14443-3 CRC_B over data: 16-bit, reflected
// polynomial 0x8408, preset 0xFFFF, final complement. This is the checksum
// the chip appends in hardware; the Topaz bypass has to compute it itself
// because the CRC generator is disabled along with the parity generator.
func crcB(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

// AddCRCB returns data with its CRC_B appended, low byte first.
func AddCRCB(data []byte) []byte {
	crc := crcB(data)
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)
	return append(out, byte(crc), byte(crc>>8))
}

// CheckCRCB reports whether the trailing two bytes of data are a valid CRC_B
// over the preceding bytes.
func CheckCRCB(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	crc := crcB(data[:len(data)-2])
	return data[len(data)-2] == byte(crc) && data[len(data)-1] == byte(crc>>8)
}
