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

func TestCRCBCheckValue(t *testing.T) {
	t.Parallel()

	// Standard check value for CRC-16/ISO-IEC-14443-3-B
	assert.Equal(t, uint16(0x906E), crcB([]byte("123456789")))
}

func TestAddCRCBAppendsLowByteFirst(t *testing.T) {
	t.Parallel()

	data := []byte("123456789")
	out := AddCRCB(data)

	require.Len(t, out, len(data)+2)
	assert.Equal(t, data, out[:len(data)])
	assert.Equal(t, byte(0x6E), out[len(out)-2])
	assert.Equal(t, byte(0x90), out[len(out)-1])
}

func TestCheckCRCB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty payload", nil},
		{"single byte", []byte{0x42}},
		{"topaz read", []byte{0x02, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			framed := AddCRCB(tt.data)
			assert.True(t, CheckCRCB(framed))

			// Any single corrupted byte must be detected
			for i := range framed {
				bad := append([]byte(nil), framed...)
				bad[i] ^= 0x01
				assert.Falsef(t, CheckCRCB(bad), "corruption at byte %d undetected", i)
			}
		})
	}
}

func TestCheckCRCBTooShort(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckCRCB(nil))
	assert.False(t, CheckCRCB([]byte{0x01}))
}
