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

// SendDataExchange exchanges data with the activated target through the
// chip's framing and error handling (InDataExchange). The target number is
// fixed at 1: discovery activates at most one target at a time.
func (d *Device) SendDataExchange(data []byte) ([]byte, error) {
	return d.SendDataExchangeContext(context.Background(), data)
}

// SendDataExchangeContext exchanges data with the target with context support
func (d *Device) SendDataExchangeContext(ctx context.Context, data []byte) ([]byte, error) {
	args := make([]byte, 0, 1+len(data))
	args = append(args, 0x01)
	args = append(args, data...)

	body, err := d.call(ctx, cmdInDataExchange, args, 0)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("data exchange: %w: empty reply", ErrInvalidResponse)
	}
	if body[0]&0x3F != 0x00 {
		return nil, newChipError(cmdInDataExchange, body)
	}
	return body[1:], nil
}

// SendRawCommand transmits data without the chip's protocol handling
// (InCommunicateThru). The caller owns framing, CRC, and timing.
func (d *Device) SendRawCommand(data []byte) ([]byte, error) {
	return d.SendRawCommandContext(context.Background(), data)
}

// SendRawCommandContext transmits raw data with context support
func (d *Device) SendRawCommandContext(ctx context.Context, data []byte) ([]byte, error) {
	body, err := d.call(ctx, cmdInCommunicateThru, data, 0)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("communicate thru: %w: empty reply", ErrInvalidResponse)
	}
	if body[0] != 0x00 {
		return nil, newChipError(cmdInCommunicateThru, body)
	}
	return body[1:], nil
}

// InRelease releases the target with the given number (0 = all targets).
// The target returns to its idle state and can be discovered again.
func (d *Device) InRelease(target byte) error {
	return d.InReleaseContext(context.Background(), target)
}

// InReleaseContext releases a target with context support
func (d *Device) InReleaseContext(ctx context.Context, target byte) error {
	body, err := d.call(ctx, cmdInRelease, []byte{target}, 0)
	if err != nil {
		return err
	}
	if len(body) > 0 && body[0] != 0x00 {
		return newChipError(cmdInRelease, body)
	}
	return nil
}

// InSelect selects a previously deselected target by number
func (d *Device) InSelect(target byte) error {
	return d.InSelectContext(context.Background(), target)
}

// InSelectContext selects a target with context support
func (d *Device) InSelectContext(ctx context.Context, target byte) error {
	body, err := d.call(ctx, cmdInSelect, []byte{target}, 0)
	if err != nil {
		return err
	}
	if len(body) > 0 && body[0] != 0x00 {
		return newChipError(cmdInSelect, body)
	}
	return nil
}
