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

// InListPassiveTarget baud rate / type codes (PN532 User Manual section 7.3.5)
const (
	brty106A  = 0x00 // 106 kbps type A
	brty212F  = 0x01 // 212 kbps FeliCa
	brty424F  = 0x02 // 424 kbps FeliCa
	brty106B  = 0x03 // 106 kbps type B
	brtyJewel = 0x04 // 106 kbps innovision jewel / topaz
)

// Target is a remote transponder found by discovery. TargetData is the
// type-specific activation reply exactly as returned by the chip (SENS_RES,
// SDD_RES and SEL_RES for type A, ATQB for type B, POL_RES for type F,
// ATR_RES for DEP).
type Target struct {
	TargetData []byte
	// BrTy is the baud rate / type code the target was found with
	BrTy byte
	// LogicalNumber is the chip-assigned target number for follow-up commands
	LogicalNumber byte
}

// SenseParams carries the family-specific parameters a sense entry point
// hands to the generic discovery routine.
type SenseParams struct {
	// InitiatorData is sent along with the poll request (UID for type A
	// cascade, AFI for type B, polling command for type F)
	InitiatorData []byte
	// BrTy selects the target family and bit rate
	BrTy byte
	// DID is the device identifier proposed during type B attachment
	// (0 = none)
	DID byte
}

// Discovery abstracts the generic discovery state machines behind the
// per-family facade. The default implementation drives the chip directly;
// tests and higher layers can substitute their own.
type Discovery interface {
	// SensePassive polls once for a passive target of the given family
	// and returns nil when nothing answered.
	SensePassive(ctx context.Context, params SenseParams) (*Target, error)
	// SenseDEP probes for an active mode peer.
	SenseDEP(ctx context.Context) (*Target, error)
	// ListenDEP waits to be activated as a DEP target.
	ListenDEP(ctx context.Context, timeout time.Duration) (*Target, error)
}

func (d *Device) discoveryOrDefault() Discovery {
	if d.discovery != nil {
		return d.discovery
	}
	return &chipDiscovery{device: d}
}

// SenseTTA polls for a 106 kbps type A target (ISO 14443-3A)
func (d *Device) SenseTTA(ctx context.Context) (*Target, error) {
	return d.discoveryOrDefault().SensePassive(ctx, SenseParams{BrTy: brty106A})
}

// SenseTTB polls for a 106 kbps type B target (ISO 14443-3B). SenseParams
// carries DID 0x01 for Discovery implementations that run the ATTRIB exchange
// themselves; the built-in discovery leaves it to the chip, whose
// InListPassiveTarget request has no DID field.
func (d *Device) SenseTTB(ctx context.Context) (*Target, error) {
	return d.discoveryOrDefault().SensePassive(ctx, SenseParams{
		BrTy:          brty106B,
		DID:           0x01,
		InitiatorData: []byte{0x00}, // AFI: all card families
	})
}

// SenseTTF polls for a 212 kbps type F target (FeliCa). The initiator data
// is the standard polling command for any system code.
func (d *Device) SenseTTF(ctx context.Context) (*Target, error) {
	return d.discoveryOrDefault().SensePassive(ctx, SenseParams{
		BrTy:          brty212F,
		InitiatorData: []byte{0x00, 0xFF, 0xFF, 0x01, 0x00},
	})
}

// SenseDEP probes for an active communication mode peer (ISO 18092)
func (d *Device) SenseDEP(ctx context.Context) (*Target, error) {
	return d.discoveryOrDefault().SenseDEP(ctx)
}

// ListenTTA would emulate a type A passive target. The chip cannot take that
// role under this firmware, so the call fails before any byte reaches the
// transport.
func (d *Device) ListenTTA(context.Context, time.Duration) (*Target, error) {
	return nil, fmt.Errorf("listen tta: %w", ErrListenUnsupported)
}

// ListenTTB would emulate a type B passive target; unsupported, see ListenTTA.
func (d *Device) ListenTTB(context.Context, time.Duration) (*Target, error) {
	return nil, fmt.Errorf("listen ttb: %w", ErrListenUnsupported)
}

// ListenTTF would emulate a type F passive target; unsupported, see ListenTTA.
func (d *Device) ListenTTF(context.Context, time.Duration) (*Target, error) {
	return nil, fmt.Errorf("listen ttf: %w", ErrListenUnsupported)
}

// ListenDEP waits for an external initiator to activate us as a DEP target
func (d *Device) ListenDEP(ctx context.Context, timeout time.Duration) (*Target, error) {
	return d.discoveryOrDefault().ListenDEP(ctx, timeout)
}

// chipDiscovery is the built-in Discovery that drives the chip's own
// discovery commands.
type chipDiscovery struct {
	device *Device
}

// SensePassive issues one InListPassiveTarget round for a single target
func (c *chipDiscovery) SensePassive(ctx context.Context, params SenseParams) (*Target, error) {
	args := make([]byte, 0, 2+len(params.InitiatorData))
	args = append(args, 0x01, params.BrTy)
	args = append(args, params.InitiatorData...)

	body, err := c.device.call(ctx, cmdInListPassiveTarget, args, 0)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || body[0] == 0 {
		return nil, nil // nothing answered
	}
	if len(body) < 2 {
		return nil, fmt.Errorf("sense: %w: truncated target data", ErrInvalidResponse)
	}
	return &Target{
		BrTy:          params.BrTy,
		LogicalNumber: body[1],
		TargetData:    append([]byte(nil), body[2:]...),
	}, nil
}

// SenseDEP issues InJumpForDEP in active mode at 106 kbps
func (c *chipDiscovery) SenseDEP(ctx context.Context) (*Target, error) {
	// ActPass=1 (active), BR=0 (106 kbps), Next=0 (no optional fields)
	body, err := c.device.call(ctx, cmdInJumpForDEP, []byte{0x01, 0x00, 0x00}, 0)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("sense dep: %w: empty reply", ErrInvalidResponse)
	}
	if body[0] != 0x00 {
		return nil, newChipError(cmdInJumpForDEP, body)
	}
	if len(body) < 2 {
		return nil, fmt.Errorf("sense dep: %w: truncated reply", ErrInvalidResponse)
	}
	return &Target{
		LogicalNumber: body[1],
		TargetData:    append([]byte(nil), body[2:]...),
	}, nil
}

// ListenDEP blocks in TgInitAsTarget until an initiator activates us or the
// timeout expires.
func (c *chipDiscovery) ListenDEP(ctx context.Context, timeout time.Duration) (*Target, error) {
	mifareParams := []byte{0x08, 0x00, 0x12, 0x34, 0x56, 0x40}
	felicaParams := []byte{
		0x01, 0xFE, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7,
		0xC0, 0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, 0xC7,
		0xFF, 0xFF,
	}

	activation, err := c.device.InitAsTargetContext(ctx,
		TargetModeDEPOnly|TargetModePassiveOnly, mifareParams, felicaParams, nil, timeout)
	if err != nil {
		return nil, err
	}
	return &Target{
		TargetData: activation.InitiatorCommand,
	}, nil
}
