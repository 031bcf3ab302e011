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

package pn532_test

import (
	"testing"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/chiptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitBringsChipToConfiguredState(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	dev, err := pn532.New(chip)
	require.NoError(t, err)
	require.NoError(t, dev.Init())

	// Firmware identity was read and retained
	fw := dev.FirmwareVersion()
	require.NotNil(t, fw)
	assert.Equal(t, "1.6", fw.Version())
	assert.Equal(t, "PN532v1.6", fw.ChipName())

	// The high speed UART path was renegotiated on both ends
	assert.Equal(t, 921600, chip.BaudRateChip())
	assert.Equal(t, 921600, chip.BaudRate())

	// Setup order: firmware, HSU probe, baud change, SAM, parameters, then
	// the radio configuration blocks ending with the field mute
	want := []byte{0x02, 0x06, 0x10, 0x14, 0x12, 0x32, 0x32, 0x32, 0x32, 0x32}
	assert.Equal(t, want, chip.Commands())

	// The wake preamble went out before anything else
	frames := chip.WrittenFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, []byte{0x55, 0x00, 0x00, 0x00, 0x00}, frames[0])
}

func TestInitSkipsBaudNegotiationOffHSU(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	chip.SetRegister(0x6103, 0x00) // not the high speed UART interface

	dev, err := pn532.New(chip)
	require.NoError(t, err)
	require.NoError(t, dev.Init())

	assert.Equal(t, 115200, chip.BaudRateChip())
	assert.Equal(t, 115200, chip.BaudRate())
	assert.NotContains(t, chip.Commands(), byte(0x10))
}

func TestCloseReversesInit(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	dev, err := pn532.New(chip)
	require.NoError(t, err)
	require.NoError(t, dev.Init())
	require.NoError(t, dev.Close())

	// Both ends dropped back to the default rate before power down
	assert.Equal(t, 115200, chip.BaudRateChip())
	assert.Equal(t, 115200, chip.BaudRate())

	// Default wakeup set: HSU, SPI, I2C
	assert.True(t, chip.PoweredDown())
	assert.Equal(t, byte(0xB0), chip.WakeupMask())

	// Power down precedes releasing the transport
	events := chip.Events
	require.NotEmpty(t, events)
	assert.Equal(t, "close", events[len(events)-1])
	assert.Contains(t, events, "powerdown")
	assert.False(t, chip.IsConnected())
}

func TestCloseWithCustomWakeupSources(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	dev, err := pn532.New(chip, pn532.WithCloseWakeupSources(pn532.WakeupRF))
	require.NoError(t, err)
	require.NoError(t, dev.Init())
	require.NoError(t, dev.Close())

	assert.Equal(t, byte(0x08), chip.WakeupMask())
}

func TestInitFailureIsFatal(t *testing.T) {
	t.Parallel()

	mock := pn532.NewMockTransport()
	mock.SetError(0x02, assert.AnError)

	dev, err := pn532.New(mock)
	require.NoError(t, err)

	err = dev.Init()
	require.Error(t, err)
	require.ErrorIs(t, err, assert.AnError)

	// Construction failed; nothing beyond the firmware probe was attempted
	assert.Equal(t, 1, mock.TotalCalls())
}

func TestDeviceString(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	dev, err := pn532.New(chip)
	require.NoError(t, err)
	assert.Equal(t, "PN532 on uart", dev.String())

	require.NoError(t, dev.Init())
	assert.Equal(t, "PN532v1.6 on uart", dev.String())
}
