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

// serialBaudRates maps supported HSU baud rates to the wire index expected by
// SetSerialBaudrate (PN532 User Manual section 7.2.7).
var serialBaudRates = map[int]byte{
	9600:    0x00,
	19200:   0x01,
	38400:   0x02,
	57600:   0x03,
	115200:  0x04,
	230400:  0x05,
	460800:  0x06,
	921600:  0x07,
	1288000: 0x08,
}

// ackFrame is the bare acknowledge frame. After a SetSerialBaudrate reply the
// chip keeps listening at the old rate until it receives this; only then does
// it switch.
var ackFrame = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}

// SetSerialBaudrate asks the chip to change its HSU baud rate. The caller is
// responsible for switching the local side afterwards; the chip applies the
// new rate once the trailing acknowledge frame has been sent.
func (d *Device) SetSerialBaudrate(baudRate int) error {
	return d.SetSerialBaudrateContext(context.Background(), baudRate)
}

// SetSerialBaudrateContext changes the chip's HSU baud rate with context support
func (d *Device) SetSerialBaudrateContext(ctx context.Context, baudRate int) error {
	index, ok := serialBaudRates[baudRate]
	if !ok {
		return fmt.Errorf("set serial baudrate: %w: %d baud", ErrInvalidParameter, baudRate)
	}

	body, err := d.call(ctx, cmdSetSerialBaudrate, []byte{index}, 0)
	if err != nil {
		return err
	}
	if len(body) > 0 && body[0] != 0x00 {
		return newChipError(cmdSetSerialBaudrate, body)
	}

	fw, ok := d.transport.(FrameWriter)
	if !ok {
		return fmt.Errorf("set serial baudrate: %s transport: %w",
			d.transport.Type(), ErrDeviceNotSupported)
	}
	if err := fw.WriteFrame(ackFrame); err != nil {
		return fmt.Errorf("set serial baudrate: ack: %w", err)
	}
	return nil
}
