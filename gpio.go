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

// gpioValidate marks a WriteGPIO field as "apply this value"; a field without
// it is ignored by the chip.
const gpioValidate = 0x80

// GPIOState holds the three port snapshots returned by ReadGPIO: the P3 pins
// (bits 0-5), the P7 pins (bits 1-2) and the interface-select lines I0/I1.
type GPIOState struct {
	P3   byte
	P7   byte
	I0I1 byte
}

// ReadGPIO reads the current level of the chip's general purpose pins
func (d *Device) ReadGPIO() (*GPIOState, error) {
	return d.ReadGPIOContext(context.Background())
}

// ReadGPIOContext reads the general purpose pins with context support
func (d *Device) ReadGPIOContext(ctx context.Context) (*GPIOState, error) {
	body, err := d.call(ctx, cmdReadGPIO, nil, 0)
	if err != nil {
		return nil, err
	}
	if len(body) < 3 {
		return nil, fmt.Errorf("%w: ReadGPIO reply %d bytes, want 3", ErrInvalidResponse, len(body))
	}
	return &GPIOState{P3: body[0], P7: body[1], I0I1: body[2]}, nil
}

// WriteGPIO drives the P3 and P7 pins to the given levels. Both ports are
// applied; use ReadGPIO first to preserve pins that must not change.
func (d *Device) WriteGPIO(p3, p7 byte) error {
	return d.WriteGPIOContext(context.Background(), p3, p7)
}

// WriteGPIOContext drives the general purpose pins with context support
func (d *Device) WriteGPIOContext(ctx context.Context, p3, p7 byte) error {
	_, err := d.call(ctx, cmdWriteGPIO, []byte{p3 | gpioValidate, p7 | gpioValidate}, 0)
	return err
}
