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

// Target mode flags for TgInitAsTarget (PN532 User Manual section 7.3.14).
// Bits 3..7 are reserved and must be zero.
const (
	// TargetModePassiveOnly restricts activation to passive mode
	TargetModePassiveOnly byte = 0x01
	// TargetModeDEPOnly restricts activation to DEP
	TargetModeDEPOnly byte = 0x02
	// TargetModePICCOnly restricts activation to ISO 14443-4 PICC emulation
	TargetModePICCOnly byte = 0x04
)

const (
	mifareParamsLen    = 6  // SENS_RES(2) NFCID1t(3) SEL_RES(1)
	felicaParamsLen    = 18 // NFCID2t(8) PAD(8) system code(2)
	nfcid3tLen         = 10
	maxGeneralBytes    = 47
	maxHistoricalBytes = 48
)

// TargetActivation is the outcome of a completed TgInitAsTarget: the mode the
// initiator activated us in and its first command frame.
type TargetActivation struct {
	InitiatorCommand []byte
	// Mode is the activation mode byte: baudrate index in bits 4..6,
	// 0x04 = activated as PICC, 0x03 mask = DEP/framing type
	Mode byte
}

// TgInitAsTarget configures the chip as a target and blocks until an external
// initiator activates it or the timeout expires. All parameter blocks are
// fixed-size on the wire; violating the sizes corrupts the frame from that
// offset on, so they are rejected here instead.
func (d *Device) TgInitAsTarget(
	mode byte, mifareParams, felicaParams, nfcid3t, generalBytes, historicalBytes []byte,
	timeout time.Duration,
) (*TargetActivation, error) {
	return d.TgInitAsTargetContext(context.Background(),
		mode, mifareParams, felicaParams, nfcid3t, generalBytes, historicalBytes, timeout)
}

// TgInitAsTargetContext configures the chip as a target with context support
func (d *Device) TgInitAsTargetContext(
	ctx context.Context,
	mode byte, mifareParams, felicaParams, nfcid3t, generalBytes, historicalBytes []byte,
	timeout time.Duration,
) (*TargetActivation, error) {
	if mode&^(TargetModePassiveOnly|TargetModeDEPOnly|TargetModePICCOnly) != 0 {
		return nil, fmt.Errorf("tg init as target: %w: mode 0x%02X has reserved bits set",
			ErrInvalidParameter, mode)
	}
	if len(mifareParams) != mifareParamsLen {
		return nil, fmt.Errorf("tg init as target: %w: mifare params %d bytes (want %d)",
			ErrInvalidParameter, len(mifareParams), mifareParamsLen)
	}
	if len(felicaParams) != felicaParamsLen {
		return nil, fmt.Errorf("tg init as target: %w: felica params %d bytes (want %d)",
			ErrInvalidParameter, len(felicaParams), felicaParamsLen)
	}
	if len(nfcid3t) != nfcid3tLen {
		return nil, fmt.Errorf("tg init as target: %w: nfcid3t %d bytes (want %d)",
			ErrInvalidParameter, len(nfcid3t), nfcid3tLen)
	}
	if len(generalBytes) > maxGeneralBytes {
		return nil, fmt.Errorf("tg init as target: %w: %d general bytes (max %d)",
			ErrInvalidParameter, len(generalBytes), maxGeneralBytes)
	}
	if len(historicalBytes) > maxHistoricalBytes {
		return nil, fmt.Errorf("tg init as target: %w: %d historical bytes (max %d)",
			ErrInvalidParameter, len(historicalBytes), maxHistoricalBytes)
	}

	args := make([]byte, 0, 1+mifareParamsLen+felicaParamsLen+nfcid3tLen+
		2+len(generalBytes)+len(historicalBytes))
	args = append(args, mode)
	args = append(args, mifareParams...)
	args = append(args, felicaParams...)
	args = append(args, nfcid3t...)
	args = append(args, byte(len(generalBytes)))
	args = append(args, generalBytes...)
	args = append(args, byte(len(historicalBytes)))
	args = append(args, historicalBytes...)

	body, err := d.call(ctx, cmdTgInitAsTarget, args, timeout)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("tg init as target: %w: empty reply", ErrInvalidResponse)
	}
	return &TargetActivation{
		Mode:             body[0],
		InitiatorCommand: append([]byte(nil), body[1:]...),
	}, nil
}

// InitAsTarget is the convenience form of TgInitAsTarget for DEP listening:
// the NFCID3t is derived from the FeliCa NFCID2t (its first eight bytes,
// zero padded), matching what an initiator expects from a type F target.
func (d *Device) InitAsTarget(
	mode byte, mifareParams, felicaParams, generalBytes []byte, timeout time.Duration,
) (*TargetActivation, error) {
	return d.InitAsTargetContext(context.Background(),
		mode, mifareParams, felicaParams, generalBytes, timeout)
}

// InitAsTargetContext is the convenience form with context support
func (d *Device) InitAsTargetContext(
	ctx context.Context, mode byte, mifareParams, felicaParams, generalBytes []byte,
	timeout time.Duration,
) (*TargetActivation, error) {
	if len(felicaParams) != felicaParamsLen {
		return nil, fmt.Errorf("init as target: %w: felica params %d bytes (want %d)",
			ErrInvalidParameter, len(felicaParams), felicaParamsLen)
	}

	nfcid3t := make([]byte, 0, nfcid3tLen)
	nfcid3t = append(nfcid3t, felicaParams[:8]...)
	nfcid3t = append(nfcid3t, 0x00, 0x00)

	return d.TgInitAsTargetContext(ctx,
		mode, mifareParams, felicaParams, nfcid3t, generalBytes, nil, timeout)
}
