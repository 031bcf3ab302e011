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
	"bytes"
	"context"
	"fmt"
)

// FirmwareVersion holds the reply to GetFirmwareVersion
type FirmwareVersion struct {
	// IC is the integrated circuit code (0x32 for a PN532)
	IC byte
	// Ver and Rev form the firmware version, e.g. 1 and 6 for "1.6"
	Ver byte
	Rev byte
	// Support flags feature support for card types
	Support byte
}

// Version returns the firmware version as a string, e.g. "1.6"
func (f *FirmwareVersion) Version() string {
	return fmt.Sprintf("%d.%d", f.Ver, f.Rev)
}

// ChipName returns a human readable chip identity, e.g. "PN532v1.6"
func (f *FirmwareVersion) ChipName() string {
	return fmt.Sprintf("PN5%02Xv%d.%d", f.IC, f.Ver, f.Rev)
}

// SupportsISO14443A returns true if ISO/IEC 14443 Type A is supported
func (f *FirmwareVersion) SupportsISO14443A() bool { return f.Support&0x01 != 0 }

// SupportsISO14443B returns true if ISO/IEC 14443 Type B is supported
func (f *FirmwareVersion) SupportsISO14443B() bool { return f.Support&0x02 != 0 }

// SupportsISO18092 returns true if ISO/IEC 18092 (NFC) is supported
func (f *FirmwareVersion) SupportsISO18092() bool { return f.Support&0x04 != 0 }

// GetFirmwareVersion queries the chip's firmware identity
func (d *Device) GetFirmwareVersion() (*FirmwareVersion, error) {
	return d.GetFirmwareVersionContext(context.Background())
}

// GetFirmwareVersionContext queries the firmware identity with context support
func (d *Device) GetFirmwareVersionContext(ctx context.Context) (*FirmwareVersion, error) {
	body, err := d.call(ctx, cmdGetFirmwareVersion, nil, 0)
	if err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("firmware version: %w: %d bytes", ErrInvalidResponse, len(body))
	}
	return &FirmwareVersion{
		IC:      body[0],
		Ver:     body[1],
		Rev:     body[2],
		Support: body[3],
	}, nil
}

// GeneralStatus holds the reply to GetGeneralStatus
type GeneralStatus struct {
	// LastError is the error code of the last RF communication (0 = none)
	LastError byte
	// FieldPresent is true when an external RF field is detected
	FieldPresent bool
	// Targets is the number of currently controlled targets
	Targets byte
}

// GetGeneralStatus queries the chip's RF and target state
func (d *Device) GetGeneralStatus() (*GeneralStatus, error) {
	return d.GetGeneralStatusContext(context.Background())
}

// GetGeneralStatusContext queries the general status with context support
func (d *Device) GetGeneralStatusContext(ctx context.Context) (*GeneralStatus, error) {
	body, err := d.call(ctx, cmdGetGeneralStatus, nil, 0)
	if err != nil {
		return nil, err
	}
	if len(body) < 3 {
		return nil, fmt.Errorf("general status: %w: %d bytes", ErrInvalidResponse, len(body))
	}
	return &GeneralStatus{
		LastError:    body[0],
		FieldPresent: body[1] != 0,
		Targets:      body[2],
	}, nil
}

// Diagnose test numbers (PN532 User Manual section 7.2.1)
const (
	DiagnoseCommunicationTest = 0x00
	DiagnoseROMTest           = 0x01
	DiagnoseRAMTest           = 0x02
	DiagnosePollingTest       = 0x04
	DiagnoseEchoBackTest      = 0x05
	DiagnoseAttentionTest     = 0x06
	DiagnoseSelfAntennaTest   = 0x07
)

// Diagnose runs a chip self test and returns the raw result bytes. For the
// communication line test the result must echo the parameters; for the ROM
// and RAM tests a single 0x00 means pass.
func (d *Device) Diagnose(test byte, params []byte) ([]byte, error) {
	return d.DiagnoseContext(context.Background(), test, params)
}

// DiagnoseContext runs a chip self test with context support
func (d *Device) DiagnoseContext(ctx context.Context, test byte, params []byte) ([]byte, error) {
	args := make([]byte, 0, 1+len(params))
	args = append(args, test)
	args = append(args, params...)

	body, err := d.call(ctx, cmdDiagnose, args, 0)
	if err != nil {
		return nil, err
	}
	if test == DiagnoseCommunicationTest && !bytes.Equal(body, args) {
		return nil, fmt.Errorf("diagnose: %w: echo mismatch", ErrInvalidResponse)
	}
	return body, nil
}
