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
	"context"
	"fmt"
)

// RFConfiguration item numbers (PN532 User Manual section 7.3.1)
const (
	rfCfgField            = 0x01
	rfCfgVariousTimings   = 0x02
	rfCfgMaxRtyCOM        = 0x04
	rfCfgMaxRetries       = 0x05
	rfCfgAnalog106TypeA   = 0x0A
	rfCfgAnalog212_424    = 0x0B
	rfCfgAnalog106TypeB   = 0x0C
	rfCfgAnalog212_424ISO = 0x0D
)

// SetParameters sets the chip's internal parameter flags. A value of zero
// clears them all, which is the state discovery relies on.
func (d *Device) SetParameters(flags byte) error {
	return d.SetParametersContext(context.Background(), flags)
}

// SetParametersContext sets the parameter flags with context support
func (d *Device) SetParametersContext(ctx context.Context, flags byte) error {
	_, err := d.call(ctx, cmdSetParameters, []byte{flags}, 0)
	return err
}

// RFConfiguration applies one configuration item to the contactless interface
func (d *Device) RFConfiguration(item byte, data []byte) error {
	return d.RFConfigurationContext(context.Background(), item, data)
}

// RFConfigurationContext applies one configuration item with context support
func (d *Device) RFConfigurationContext(ctx context.Context, item byte, data []byte) error {
	args := make([]byte, 0, 1+len(data))
	args = append(args, item)
	args = append(args, data...)
	_, err := d.call(ctx, cmdRFConfiguration, args, 0)
	if err != nil {
		return fmt.Errorf("rf configuration item 0x%02X: %w", item, err)
	}
	return nil
}

// Mute turns the RF field off. The field stays off until the next discovery
// command turns it back on, so an idle reader radiates nothing.
func (d *Device) Mute() error {
	return d.MuteContext(context.Background())
}

// MuteContext turns the RF field off with context support
func (d *Device) MuteContext(ctx context.Context) error {
	// Field bit 0x01 clear = field off, 0x02 = keep auto RFCA enabled
	return d.RFConfigurationContext(ctx, rfCfgField, []byte{0x02})
}

// SetPassiveActivationRetries configures how many times the chip retries
// passive activation during InListPassiveTarget (0xFF = retry forever).
func (d *Device) SetPassiveActivationRetries(retries byte) error {
	return d.SetPassiveActivationRetriesContext(context.Background(), retries)
}

// SetPassiveActivationRetriesContext configures passive activation retries
// with context support
func (d *Device) SetPassiveActivationRetriesContext(ctx context.Context, retries byte) error {
	// MxRtyATR and MxRtyPSL keep their defaults; only MxRtyPassiveActivation changes
	return d.RFConfigurationContext(ctx, rfCfgMaxRetries, []byte{0xFF, 0x01, retries})
}
