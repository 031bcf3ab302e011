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

var (
	validMifareParams = []byte{0x08, 0x00, 0x12, 0x34, 0x56, 0x40}
	validFelicaParams = []byte{
		0x01, 0xFE, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7,
		0xC0, 0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, 0xC7,
		0xFF, 0xFF,
	}
	validNFCID3t = []byte{0x01, 0xFE, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0x00, 0x00}
)

func TestTgInitAsTargetValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mifare []byte
		felica []byte
		nfcid3 []byte
		mode   byte
	}{
		{"mifare block too short", validMifareParams[:5], validFelicaParams, validNFCID3t, 0x00},
		{"mifare block too long", append([]byte{0x00}, validMifareParams...), validFelicaParams, validNFCID3t, 0x00},
		{"felica block too short", validMifareParams, validFelicaParams[:17], validNFCID3t, 0x00},
		{"felica block too long", validMifareParams, append([]byte{0x00}, validFelicaParams...), validNFCID3t, 0x00},
		{"nfcid3 too short", validMifareParams, validFelicaParams, validNFCID3t[:9], 0x00},
		{"reserved mode bits", validMifareParams, validFelicaParams, validNFCID3t, 0x08},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			dev, err := New(mock)
			require.NoError(t, err)

			_, err = dev.TgInitAsTarget(tt.mode, tt.mifare, tt.felica, tt.nfcid3, nil, nil, 0)
			require.ErrorIs(t, err, ErrInvalidParameter)

			// Malformed input must be rejected before any byte hits the wire
			assert.Zero(t, mock.TotalCalls())
		})
	}
}

func TestTgInitAsTargetEncoding(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdTgInitAsTarget, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdTgInitAsTarget + 1, 0x05, 0xD4, 0x00}, nil
	})

	general := []byte{0x46, 0x66, 0x6D}
	activation, err := dev.TgInitAsTarget(
		TargetModePassiveOnly, validMifareParams, validFelicaParams, validNFCID3t,
		general, []byte{0x80}, 0)
	require.NoError(t, err)

	want := []byte{TargetModePassiveOnly}
	want = append(want, validMifareParams...)
	want = append(want, validFelicaParams...)
	want = append(want, validNFCID3t...)
	want = append(want, 0x03)
	want = append(want, general...)
	want = append(want, 0x01, 0x80)
	assert.Equal(t, want, payload)

	assert.Equal(t, byte(0x05), activation.Mode)
	assert.Equal(t, []byte{0xD4, 0x00}, activation.InitiatorCommand)
}

func TestInitAsTargetDerivesNFCID3(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdTgInitAsTarget, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdTgInitAsTarget + 1, 0x04, 0x00}, nil
	})

	_, err = dev.InitAsTarget(TargetModeDEPOnly, validMifareParams, validFelicaParams, nil, 0)
	require.NoError(t, err)

	// NFCID3t sits after mode(1) + mifare(6) + felica(18)
	nfcid3 := payload[25:35]
	assert.Equal(t, validFelicaParams[:8], nfcid3[:8])
	assert.Equal(t, []byte{0x00, 0x00}, nfcid3[8:])
}
