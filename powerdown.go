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
	"strings"
)

// WakeupSource identifies an interrupt source that can pull the chip out of
// power down. Sources combine into the PowerDown wakeup bitmask.
type WakeupSource byte

// Wakeup sources (PN532 User Manual section 7.2.11). Bit 2 is reserved.
const (
	WakeupINT0 WakeupSource = 1 << 0
	WakeupINT1 WakeupSource = 1 << 1
	WakeupRF   WakeupSource = 1 << 3
	WakeupHSU  WakeupSource = 1 << 4
	WakeupSPI  WakeupSource = 1 << 5
	WakeupGPIO WakeupSource = 1 << 6
	WakeupI2C  WakeupSource = 1 << 7
)

var wakeupNames = map[WakeupSource]string{
	WakeupINT0: "INT0",
	WakeupINT1: "INT1",
	WakeupRF:   "RF",
	WakeupHSU:  "HSU",
	WakeupSPI:  "SPI",
	WakeupGPIO: "GPIO",
	WakeupI2C:  "I2C",
}

func (w WakeupSource) String() string {
	if name, ok := wakeupNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WakeupSource(0x%02X)", byte(w))
}

// wakeupMask folds a set of sources into the wire bitmask. Duplicates and
// ordering do not matter.
func wakeupMask(sources []WakeupSource) byte {
	var mask byte
	for _, s := range sources {
		mask |= byte(s)
	}
	return mask
}

// PowerDown puts the chip into soft power down. It wakes again only on one of
// the given sources; genIRQ additionally asserts P70_IRQ on wakeup. After a
// wakeup the first command needs the usual wake preamble on UART.
func (d *Device) PowerDown(sources []WakeupSource, genIRQ bool) error {
	return d.PowerDownContext(context.Background(), sources, genIRQ)
}

// PowerDownContext puts the chip into soft power down with context support
func (d *Device) PowerDownContext(ctx context.Context, sources []WakeupSource, genIRQ bool) error {
	// The IRQ byte is always on the wire, 0x00 when unused
	args := []byte{wakeupMask(sources), 0x00}
	if genIRQ {
		args[1] = 0x01
	}

	body, err := d.call(ctx, cmdPowerDown, args, 0)
	if err != nil {
		return err
	}
	if len(body) > 0 && body[0] != 0x00 {
		return newChipError(cmdPowerDown, body)
	}

	if d.log != nil {
		names := make([]string, 0, len(sources))
		for _, s := range sources {
			names = append(names, s.String())
		}
		d.log.Debugf("entered power down, wakeup on %s", strings.Join(names, ","))
	}
	return nil
}
