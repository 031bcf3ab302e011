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

// SAMMode selects how the chip cooperates with a Security Access Module
type SAMMode byte

// SAM operating modes (PN532 User Manual section 7.2.10). Values are 1-based
// on the wire; there is no mode zero.
const (
	// SAMModeNormal is the standalone mode without a SAM in the data path
	SAMModeNormal SAMMode = 0x01
	// SAMModeVirtualCard makes the couple SAM+PN532 look like one card
	SAMModeVirtualCard SAMMode = 0x02
	// SAMModeWiredCard makes the host address the SAM as a card
	SAMModeWiredCard SAMMode = 0x03
	// SAMModeDualCard exposes SAM and PN532 as two distinct cards
	SAMModeDualCard SAMMode = 0x04
)

func (m SAMMode) String() string {
	switch m {
	case SAMModeNormal:
		return "normal"
	case SAMModeVirtualCard:
		return "virtual card"
	case SAMModeWiredCard:
		return "wired card"
	case SAMModeDualCard:
		return "dual card"
	default:
		return fmt.Sprintf("SAMMode(0x%02X)", byte(m))
	}
}

// SAMConfiguration selects the SAM operating mode. The timeout byte only
// applies to virtual card mode, in units of 50 ms; irq controls whether the
// chip drives the P70_IRQ pin on command completion.
func (d *Device) SAMConfiguration(mode SAMMode, timeout byte, irq bool) error {
	return d.SAMConfigurationContext(context.Background(), mode, timeout, irq)
}

// SAMConfigurationContext selects the SAM operating mode with context support
func (d *Device) SAMConfigurationContext(ctx context.Context, mode SAMMode, timeout byte, irq bool) error {
	if mode < SAMModeNormal || mode > SAMModeDualCard {
		return fmt.Errorf("sam configuration: %w: mode 0x%02X", ErrInvalidParameter, byte(mode))
	}

	irqByte := byte(0x00)
	if irq {
		irqByte = 0x01
	}

	_, err := d.call(ctx, cmdSamConfiguration, []byte{byte(mode), timeout, irqByte}, 0)
	return err
}
