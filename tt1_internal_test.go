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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stuffBits packs each data byte as 9 wire bits (8 data bits LSB first plus
// a parity bit) into consecutive octets, the inverse of unstuffParity.
func stuffBits(data []byte, parity func(byte) byte) []byte {
	nbits := len(data) * 9
	out := make([]byte, (nbits+7)/8)
	j := 0
	put := func(bit byte) {
		out[j/8] |= bit << (j % 8)
		j++
	}
	for _, b := range data {
		for m := 0; m < 8; m++ {
			put(b >> m & 1)
		}
		put(parity(b))
	}
	return out
}

func oddParity(b byte) byte {
	ones := 0
	for m := 0; m < 8; m++ {
		if b>>m&1 != 0 {
			ones++
		}
	}
	if ones%2 == 0 {
		return 1
	}
	return 0
}

func TestUnstuffParityRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"single byte", []byte{0x5A}},
		{"two bytes", []byte{0x00, 0xFF}},
		{"topaz read reply", AddCRCB([]byte{0x02, 0x10, 1, 2, 3, 4, 5, 6, 7, 8})},
		{"all values", func() []byte {
			d := make([]byte, 256)
			for i := range d {
				d[i] = byte(i)
			}
			return d
		}()},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := stuffBits(tt.data, oddParity)
			assert.Equal(t, tt.data, unstuffParity(raw))

			// The parity bit's value never leaks into the output
			rawEven := stuffBits(tt.data, func(b byte) byte { return 1 - oddParity(b) })
			assert.Equal(t, tt.data, unstuffParity(rawEven))
		})
	}
}

func TestUnstuffParityGroupBoundaries(t *testing.T) {
	t.Parallel()

	// 9 wire bits = one data byte exactly
	raw := stuffBits([]byte{0xA7}, oddParity)
	require.Len(t, raw, 2) // 9 bits span two octets
	assert.Equal(t, []byte{0xA7}, unstuffParity(raw))

	// 16 wire bits = one complete group plus 7 leftover bits: the partial
	// group is dropped, not padded
	assert.Equal(t, []byte{0xFF}, unstuffParity([]byte{0xFF, 0xFF}))

	// 18 wire bits = exactly two groups
	raw = stuffBits([]byte{0x12, 0x34}, oddParity)
	require.Len(t, raw, 3)
	assert.Equal(t, []byte{0x12, 0x34}, unstuffParity(raw))

	// 24 wire bits: two full groups, the remaining 6 bits dropped
	assert.Len(t, unstuffParity(make([]byte, 3)), 2)

	// Fewer than 9 bits yields nothing
	assert.Empty(t, unstuffParity([]byte{0xFF}))
	assert.Empty(t, unstuffParity(nil))
}
