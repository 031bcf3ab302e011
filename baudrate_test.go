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

func TestSerialBaudRateTable(t *testing.T) {
	t.Parallel()

	// The wire index is the rate's position in the ordered table
	want := map[int]byte{
		9600:    0,
		19200:   1,
		38400:   2,
		57600:   3,
		115200:  4,
		230400:  5,
		460800:  6,
		921600:  7,
		1288000: 8,
	}
	assert.Equal(t, want, serialBaudRates)
}

func TestSetSerialBaudrateEncodesIndex(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdSetSerialBaudrate, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdSetSerialBaudrate + 1, 0x00}, nil
	})

	require.NoError(t, dev.SetSerialBaudrate(921600))
	assert.Equal(t, []byte{0x07}, payload)

	// The trailing ACK releases the chip to switch rates
	frames := mock.WrittenFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, ackFrame, frames[0])
}

func TestSetSerialBaudrateUnsupportedRate(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	err = dev.SetSerialBaudrate(250000)
	require.ErrorIs(t, err, ErrInvalidParameter)

	// Nothing may reach the wire for a rate outside the table
	assert.Zero(t, mock.TotalCalls())
	assert.Empty(t, mock.WrittenFrames())
}

func TestSetSerialBaudrateChipRejection(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	mock.SetResponse(cmdSetSerialBaudrate, []byte{cmdSetSerialBaudrate + 1, 0x27})

	err = dev.SetSerialBaudrate(115200)
	var chipErr *PN532Error
	require.ErrorAs(t, err, &chipErr)
	assert.Equal(t, byte(0x27), chipErr.ErrorCode)

	// No ACK after a rejected change; the chip never switches
	assert.Empty(t, mock.WrittenFrames())
}
