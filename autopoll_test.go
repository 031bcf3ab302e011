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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAutoPollResponse(t *testing.T) {
	t.Parallel()

	reply := []byte{
		0x02, // two targets
		0x10, 0x03, 0xAA, 0xBB, 0xCC, // mifare, 3 data bytes
		0x23, 0x02, 0x11, 0x22, // ISO 14443-4B', 2 data bytes
	}

	results, err := parseAutoPollResponse(reply)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, AutoPollMifare, results[0].Type)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, results[0].TargetData)
	assert.Equal(t, AutoPollISO14443B4, results[1].Type)
	assert.Equal(t, []byte{0x11, 0x22}, results[1].TargetData)

	// Decoding is idempotent: same input, same output
	again, err := parseAutoPollResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestParseAutoPollResponseTruncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply []byte
	}{
		{"empty", nil},
		{"missing header", []byte{0x01}},
		{"short header", []byte{0x01, 0x10}},
		{"declared length exceeds buffer", []byte{0x01, 0x10, 0x05, 0xAA, 0xBB}},
		{"second target truncated", []byte{0x02, 0x10, 0x01, 0xAA, 0x23}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseAutoPollResponse(tt.reply)
			require.ErrorIs(t, err, ErrInvalidResponse)

			// Deterministic: the same malformed input always fails
			_, err2 := parseAutoPollResponse(tt.reply)
			assert.Equal(t, err.Error(), err2.Error())
		})
	}
}

func TestAutoPollTimeout(t *testing.T) {
	t.Parallel()

	// 2 rounds x 3 types x 1 period x 150ms + 100ms overhead
	assert.Equal(t, 1000*time.Millisecond, autoPollTimeout(2, 1, 3))

	// The endless 0xFF count still yields a full-schedule deadline, never
	// the zero sentinel that would leave the short device default in force
	assert.Equal(t, 255*3*150*time.Millisecond+100*time.Millisecond, autoPollTimeout(0xFF, 1, 3))
	assert.Positive(t, autoPollTimeout(0xFF, 1, 1))
}

func TestInAutoPollWidensTransportTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   time.Duration
		pollNr byte
	}{
		{"finite", 2*1*1*150*time.Millisecond + 100*time.Millisecond, 2},
		{"endless", 255*1*1*150*time.Millisecond + 100*time.Millisecond, 0xFF},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			dev, err := New(mock)
			require.NoError(t, err)

			mock.SetResponse(cmdInAutoPoll, []byte{cmdInAutoPoll + 1, 0x00})

			_, err = dev.InAutoPoll(tt.pollNr, 1, AutoPollMifare)
			require.NoError(t, err)

			// Widened for the poll, then restored to the device default
			require.Len(t, mock.Timeouts(), 2)
			assert.Equal(t, tt.want, mock.Timeouts()[0])
			assert.Equal(t, time.Second, mock.Timeouts()[1])
		})
	}
}

func TestInAutoPollValidation(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	_, err = dev.InAutoPoll(1, 1)
	require.ErrorIs(t, err, ErrInvalidParameter)

	types := make([]AutoPollTarget, 16)
	for i := range types {
		types[i] = AutoPollMifare
	}
	_, err = dev.InAutoPoll(1, 1, types...)
	require.ErrorIs(t, err, ErrInvalidParameter)

	assert.Zero(t, mock.TotalCalls())
}

func TestInAutoPollEncodesRequest(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdInAutoPoll, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdInAutoPoll + 1, 0x01, 0x10, 0x01, 0x42}, nil
	})

	results, err := dev.InAutoPoll(2, 3, AutoPollMifare, AutoPollFeliCa212)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03, 0x10, 0x11}, payload)
	require.Len(t, results, 1)
	assert.Equal(t, []byte{0x42}, results[0].TargetData)
}
