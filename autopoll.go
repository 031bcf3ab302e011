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
	"time"
)

// AutoPollTarget identifies a target type in the InAutoPoll type list and in
// its results (PN532 User Manual section 7.3.13).
type AutoPollTarget byte

// InAutoPoll target types
const (
	AutoPollGeneric106   AutoPollTarget = 0x00 // generic passive 106 kbps
	AutoPollGeneric212   AutoPollTarget = 0x01 // generic passive 212 kbps
	AutoPollGeneric424   AutoPollTarget = 0x02 // generic passive 424 kbps
	AutoPollISO14443B    AutoPollTarget = 0x03 // passive 106 kbps ISO 14443-4B
	AutoPollJewel        AutoPollTarget = 0x04 // innovision jewel / topaz
	AutoPollMifare       AutoPollTarget = 0x10
	AutoPollFeliCa212    AutoPollTarget = 0x11
	AutoPollFeliCa424    AutoPollTarget = 0x12
	AutoPollISO14443A4   AutoPollTarget = 0x20 // passive 106 kbps ISO 14443-4A
	AutoPollISO14443B4   AutoPollTarget = 0x23 // passive 106 kbps ISO 14443-4B'
	AutoPollDEPPassive   AutoPollTarget = 0x40 // DEP passive 106 kbps
	AutoPollDEPPassive4  AutoPollTarget = 0x42 // DEP passive 424 kbps
	AutoPollDEPActive    AutoPollTarget = 0x80 // DEP active 106 kbps
)

// maxAutoPollTypes is the most target types one InAutoPoll accepts
const maxAutoPollTypes = 15

// AutoPollResult is one target found by InAutoPoll. TargetData carries the
// raw, type-specific activation data exactly as the chip returned it.
type AutoPollResult struct {
	TargetData []byte
	Type       AutoPollTarget
}

// InAutoPoll polls for targets of the given types. pollNr is the number of
// polling rounds (0xFF = poll endlessly) and period the time between rounds
// in units of 150 ms. At most two targets are returned by the chip.
func (d *Device) InAutoPoll(pollNr, period byte, types ...AutoPollTarget) ([]AutoPollResult, error) {
	return d.InAutoPollContext(context.Background(), pollNr, period, types...)
}

// InAutoPollContext polls for targets with context support. The transport
// timeout is widened to cover the whole polling schedule so a full-length
// poll is not cut short by the default timeout.
func (d *Device) InAutoPollContext(
	ctx context.Context, pollNr, period byte, types ...AutoPollTarget,
) ([]AutoPollResult, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("autopoll: %w: no target types", ErrInvalidParameter)
	}
	if len(types) > maxAutoPollTypes {
		return nil, fmt.Errorf("autopoll: %w: %d target types (max %d)",
			ErrInvalidParameter, len(types), maxAutoPollTypes)
	}

	args := make([]byte, 0, 2+len(types))
	args = append(args, pollNr, period)
	for _, t := range types {
		args = append(args, byte(t))
	}

	timeout := autoPollTimeout(pollNr, period, len(types))
	body, err := d.call(ctx, cmdInAutoPoll, args, timeout)
	if err != nil {
		return nil, err
	}
	return parseAutoPollResponse(body)
}

// autoPollTimeout bounds one InAutoPoll call: every round probes each type
// for one period, plus slack for the reply frame. The 0xFF "endless" count
// enters the formula like any other, so even that poll gets a deadline wide
// enough to cover its whole schedule instead of the 1 s device default.
func autoPollTimeout(pollNr, period byte, numTypes int) time.Duration {
	rounds := time.Duration(pollNr) * time.Duration(numTypes) * time.Duration(period)
	return rounds*150*time.Millisecond + 100*time.Millisecond
}

// parseAutoPollResponse decodes the (type, length, data) triples following
// the target count
func parseAutoPollResponse(body []byte) ([]AutoPollResult, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("autopoll: %w: empty reply", ErrInvalidResponse)
	}

	count := int(body[0])
	results := make([]AutoPollResult, 0, count)
	offset := 1
	for i := 0; i < count; i++ {
		if offset+2 > len(body) {
			return nil, fmt.Errorf("autopoll: %w: truncated target header", ErrInvalidResponse)
		}
		targetType := AutoPollTarget(body[offset])
		dataLen := int(body[offset+1])
		offset += 2
		if offset+dataLen > len(body) {
			return nil, fmt.Errorf("autopoll: %w: truncated target data", ErrInvalidResponse)
		}
		results = append(results, AutoPollResult{
			Type:       targetType,
			TargetData: append([]byte(nil), body[offset:offset+dataLen]...),
		})
		offset += dataLen
	}
	return results, nil
}
