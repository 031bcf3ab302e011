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

func TestReadRegisterBatchesAddresses(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdReadRegister, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdReadRegister + 1, 0x00, 0x11, 0x22, 0x33}, nil
	})

	values, err := dev.ReadRegister(RegCIUFIFOLevel, RegCIUFIFOData, RegControlSwitch)
	require.NoError(t, err)

	// One request, big-endian address per register, values in request order
	assert.Equal(t, []byte{0x63, 0x3A, 0x63, 0x39, 0x61, 0x03}, payload)
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, values)
	assert.Equal(t, 1, mock.GetCallCount(cmdReadRegister))
}

func TestReadRegisterValueCountMismatch(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	mock.SetResponse(cmdReadRegister, []byte{cmdReadRegister + 1, 0x00, 0x11})

	_, err = dev.ReadRegister(RegCIUFIFOLevel, RegCIUFIFOData)
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestReadRegisterChipError(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	mock.SetResponse(cmdReadRegister, []byte{cmdReadRegister + 1, 0x27})

	_, err = dev.ReadRegister(RegCIUMode)
	var chipErr *PN532Error
	require.ErrorAs(t, err, &chipErr)
	assert.Equal(t, byte(0x27), chipErr.ErrorCode)
}

func TestWriteRegisterInterleavesPairs(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	var payload []byte
	mock.SetHandler(cmdWriteRegister, func(args []byte) ([]byte, error) {
		payload = append([]byte(nil), args...)
		return []byte{cmdWriteRegister + 1, 0x00}, nil
	})

	err = dev.WriteRegister(
		RegisterWrite{RegCIUBitFraming, 0x07},
		RegisterWrite{RegCIUCommand, 0x04},
	)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x63, 0x3D, 0x07, 0x63, 0x31, 0x04}, payload)
}

func TestRegisterAccessEmptyRequest(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	dev, err := New(mock)
	require.NoError(t, err)

	_, err = dev.ReadRegister()
	require.ErrorIs(t, err, ErrInvalidParameter)

	err = dev.WriteRegister()
	require.ErrorIs(t, err, ErrInvalidParameter)

	assert.Zero(t, mock.TotalCalls())
}

func TestRegisterString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CIU_FIFOData", RegCIUFIFOData.String())
	assert.Equal(t, "Control_switch", RegControlSwitch.String())
	assert.Equal(t, "0x1234", Register(0x1234).String())
}
