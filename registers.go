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

// Register identifies a chip register by its 16-bit XRAM address. The CIU
// (contactless interface unit) registers below are the ones the Topaz bypass
// drives directly; any raw address is accepted as well.
type Register uint16

// CIU register addresses (PN532 User Manual section 8.6.22)
const (
	RegCIUMode         Register = 0x6301
	RegCIUTxMode       Register = 0x6302
	RegCIURxMode       Register = 0x6303
	RegCIUTxControl    Register = 0x6304
	RegCIUTxAuto       Register = 0x6305
	RegCIUTxSel        Register = 0x6306
	RegCIURxSel        Register = 0x6307
	RegCIURxThreshold  Register = 0x6308
	RegCIUDemod        Register = 0x6309
	RegCIUFelNFC1      Register = 0x630A
	RegCIUFelNFC2      Register = 0x630B
	RegCIUMifNFC       Register = 0x630C
	RegCIUManualRCV    Register = 0x630D
	RegCIUTypeB        Register = 0x630E
	RegCIUSerialSpeed  Register = 0x630F
	RegCIUCRCResultMSB Register = 0x6311
	RegCIUCRCResultLSB Register = 0x6312
	RegCIUGsNOff       Register = 0x6313
	RegCIUModWidth     Register = 0x6314
	RegCIUTxBitPhase   Register = 0x6315
	RegCIURFCfg        Register = 0x6316
	RegCIUGsNOn        Register = 0x6317
	RegCIUCWGsP        Register = 0x6318
	RegCIUModGsP       Register = 0x6319
	RegCIUTMode        Register = 0x631A
	RegCIUTPrescaler   Register = 0x631B
	RegCIUTReloadHi    Register = 0x631C
	RegCIUTReloadLo    Register = 0x631D
	RegCIUTCounterHi   Register = 0x631E
	RegCIUTCounterLo   Register = 0x631F
	RegCIUCommand      Register = 0x6331
	RegCIUCommIEn      Register = 0x6332
	RegCIUDivIEn       Register = 0x6333
	RegCIUCommIrq      Register = 0x6334
	RegCIUDivIrq       Register = 0x6335
	RegCIUError        Register = 0x6336
	RegCIUStatus1      Register = 0x6337
	RegCIUStatus2      Register = 0x6338
	RegCIUFIFOData     Register = 0x6339
	RegCIUFIFOLevel    Register = 0x633A
	RegCIUWaterLevel   Register = 0x633B
	RegCIUControl      Register = 0x633C
	RegCIUBitFraming   Register = 0x633D
	RegCIUColl         Register = 0x633E

	// RegControlSwitch holds the multi interface (MIF) configuration bits
	// consulted for high speed UART detection.
	RegControlSwitch Register = 0x6103
)

var registerNames = map[Register]string{
	RegCIUMode:         "CIU_Mode",
	RegCIUTxMode:       "CIU_TxMode",
	RegCIURxMode:       "CIU_RxMode",
	RegCIUTxControl:    "CIU_TxControl",
	RegCIUTxAuto:       "CIU_TxAuto",
	RegCIUTxSel:        "CIU_TxSel",
	RegCIURxSel:        "CIU_RxSel",
	RegCIURxThreshold:  "CIU_RxThreshold",
	RegCIUDemod:        "CIU_Demod",
	RegCIUFelNFC1:      "CIU_FelNFC1",
	RegCIUFelNFC2:      "CIU_FelNFC2",
	RegCIUMifNFC:       "CIU_MifNFC",
	RegCIUManualRCV:    "CIU_ManualRCV",
	RegCIUTypeB:        "CIU_TypeB",
	RegCIUSerialSpeed:  "CIU_SerialSpeed",
	RegCIUCRCResultMSB: "CIU_CRCResultMSB",
	RegCIUCRCResultLSB: "CIU_CRCResultLSB",
	RegCIUGsNOff:       "CIU_GsNOff",
	RegCIUModWidth:     "CIU_ModWidth",
	RegCIUTxBitPhase:   "CIU_TxBitPhase",
	RegCIURFCfg:        "CIU_RFCfg",
	RegCIUGsNOn:        "CIU_GsNOn",
	RegCIUCWGsP:        "CIU_CWGsP",
	RegCIUModGsP:       "CIU_ModGsP",
	RegCIUTMode:        "CIU_TMode",
	RegCIUTPrescaler:   "CIU_TPrescaler",
	RegCIUTReloadHi:    "CIU_TReloadHi",
	RegCIUTReloadLo:    "CIU_TReloadLo",
	RegCIUTCounterHi:   "CIU_TCounterHi",
	RegCIUTCounterLo:   "CIU_TCounterLo",
	RegCIUCommand:      "CIU_Command",
	RegCIUCommIEn:      "CIU_CommIEn",
	RegCIUDivIEn:       "CIU_DivIEn",
	RegCIUCommIrq:      "CIU_CommIrq",
	RegCIUDivIrq:       "CIU_DivIrq",
	RegCIUError:        "CIU_Error",
	RegCIUStatus1:      "CIU_Status1",
	RegCIUStatus2:      "CIU_Status2",
	RegCIUFIFOData:     "CIU_FIFOData",
	RegCIUFIFOLevel:    "CIU_FIFOLevel",
	RegCIUWaterLevel:   "CIU_WaterLevel",
	RegCIUControl:      "CIU_Control",
	RegCIUBitFraming:   "CIU_BitFraming",
	RegCIUColl:         "CIU_Coll",
	RegControlSwitch:   "Control_switch",
}

// String returns the symbolic register name when known, the raw address
// otherwise. Diagnostics only.
func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(r))
}

// RegisterWrite pairs a register with the value to store in it
type RegisterWrite struct {
	Reg   Register
	Value byte
}

// registerTimeout bounds a single batched register command. Register access
// is pure host/chip traffic with no RF leg, so a short fixed timeout is safe.
const registerTimeout = 250 * time.Millisecond

// ReadRegister reads one or more registers in a single ReadRegister command
// and returns one byte per register, in request order. Batching matters: the
// Topaz bypass issues dozens of register operations per tag transaction and
// pays the frame round-trip only once per batch.
func (d *Device) ReadRegister(regs ...Register) ([]byte, error) {
	return d.ReadRegisterContext(context.Background(), regs...)
}

// ReadRegisterContext reads one or more registers with context support
func (d *Device) ReadRegisterContext(ctx context.Context, regs ...Register) ([]byte, error) {
	if len(regs) == 0 {
		return nil, fmt.Errorf("read register: %w: no registers requested", ErrInvalidParameter)
	}

	payload := make([]byte, 0, 2*len(regs))
	for _, reg := range regs {
		payload = append(payload, byte(reg>>8), byte(reg))
	}

	body, err := d.call(ctx, cmdReadRegister, payload, registerTimeout)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("read register: %w: empty reply", ErrInvalidResponse)
	}
	if body[0] != 0x00 {
		return nil, newChipError(cmdReadRegister, body)
	}
	values := body[1:]
	if len(values) != len(regs) {
		return nil, fmt.Errorf("read register: %w: got %d values for %d registers",
			ErrInvalidResponse, len(values), len(regs))
	}
	return values, nil
}

// WriteRegister writes one or more registers in a single WriteRegister
// command. Writes are applied by the chip in payload order, which the Topaz
// bypass depends on.
func (d *Device) WriteRegister(writes ...RegisterWrite) error {
	return d.WriteRegisterContext(context.Background(), writes...)
}

// WriteRegisterContext writes one or more registers with context support
func (d *Device) WriteRegisterContext(ctx context.Context, writes ...RegisterWrite) error {
	if len(writes) == 0 {
		return fmt.Errorf("write register: %w: no writes requested", ErrInvalidParameter)
	}

	payload := make([]byte, 0, 3*len(writes))
	for _, w := range writes {
		payload = append(payload, byte(w.Reg>>8), byte(w.Reg), w.Value)
	}

	body, err := d.call(ctx, cmdWriteRegister, payload, registerTimeout)
	if err != nil {
		return err
	}
	if len(body) > 0 && body[0] != 0x00 {
		return newChipError(cmdWriteRegister, body)
	}
	return nil
}
