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

// Type 1 tag command codes. The firmware's data exchange implements the first
// group natively; everything else needs the register-level path below.
const (
	tt1RALL    = 0x00 // read all (blocks 0..14)
	tt1READ    = 0x01 // read byte
	tt1WriteE  = 0x53 // write with erase
	tt1WriteNE = 0x1A // write without erase
	tt1RID     = 0x72 // read identification

	tt1RSEG     = 0x10 // read segment (dynamic memory)
	tt1READ8    = 0x02 // read block
	tt1WriteE8  = 0x54 // write block with erase
	tt1WriteNE8 = 0x1B // write block without erase
)

// CIU_Command register values
const (
	ciuCmdTransmit    = 0x04
	ciuCmdNoCmdChange = 0x07
	ciuCmdReceive     = 0x08
)

// CIU_ManualRCV register values: 0x30 disables the parity generator and
// checker, 0x20 restores them.
const (
	ciuParityDisable = 0x30
	ciuParityEnable  = 0x20
)

// Write cycle times for the block write commands. The tag sends no
// acknowledgment, so the only option is to wait out the documented cycle.
const (
	tt1WriteE8Settle  = 6 * time.Millisecond
	tt1WriteNE8Settle = 3 * time.Millisecond
)

// TT1Exchange executes one Type 1 tag (Topaz) command and returns the
// response payload without its trailing checksum.
func (d *Device) TT1Exchange(data []byte, timeout time.Duration) ([]byte, error) {
	return d.TT1ExchangeContext(context.Background(), data, timeout)
}

// TT1ExchangeContext executes one Type 1 tag command with context support.
//
// Three paths exist. Commands the firmware implements natively go through the
// generic data exchange. The segment read is rewritten as sixteen single
// block reads, because its 128 byte response overflows the chip's 64 byte
// receive buffer before the host can drain it. Everything else is bit-banged
// through the CIU registers, since those commands use framing the firmware
// cannot produce.
func (d *Device) TT1ExchangeContext(ctx context.Context, data []byte, timeout time.Duration) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("tt1 exchange: %w: empty command", ErrInvalidParameter)
	}

	switch data[0] {
	case tt1RALL, tt1READ, tt1WriteNE, tt1WriteE, tt1RID:
		return d.tt1Native(ctx, data, timeout)
	case tt1RSEG:
		return d.tt1ReadSegment(ctx, data, timeout)
	default:
		return d.tt1BitBang(ctx, data)
	}
}

// tt1Native forwards a firmware-supported command through InDataExchange
func (d *Device) tt1Native(ctx context.Context, data []byte, timeout time.Duration) ([]byte, error) {
	args := make([]byte, 0, 1+len(data))
	args = append(args, 0x01)
	args = append(args, data...)

	body, err := d.call(ctx, cmdInDataExchange, args, timeout)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("tt1 exchange: %w: empty reply", ErrInvalidResponse)
	}
	if body[0]&0x3F != 0x00 {
		return nil, newChipError(cmdInDataExchange, body)
	}
	return body[1:], nil
}

// tt1ReadSegment expands RSEG into sixteen READ8 block reads covering the
// addressed segment, keeping only the eight data bytes of each block reply.
// The firmware's own RSEG refuses segments other than zero.
func (d *Device) tt1ReadSegment(ctx context.Context, data []byte, timeout time.Duration) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("tt1 exchange: %w: short segment read", ErrInvalidParameter)
	}

	segment := int(data[1] >> 4)
	rsp := make([]byte, 0, 1+16*8)
	rsp = append(rsp, data[1])

	for block := segment * 16; block < segment*16+16; block++ {
		cmd := make([]byte, 0, 2+len(data)-2)
		cmd = append(cmd, tt1READ8, byte(block))
		cmd = append(cmd, data[2:]...)

		blockRsp, err := d.TT1ExchangeContext(ctx, cmd, timeout)
		if err != nil {
			return nil, err
		}
		if len(blockRsp) < 9 {
			return nil, fmt.Errorf("tt1 exchange: %w: block %d reply %d bytes",
				ErrInvalidResponse, block, len(blockRsp))
		}
		rsp = append(rsp, blockRsp[1:9]...)
	}
	return rsp, nil
}

// tt1BitBang executes a command the firmware does not implement by driving
// the CIU directly. Each command byte goes out as a separate type A frame:
// the command code as a short frame of seven data bits, the rest as normal
// eight bit frames with the parity generator disabled, since Type 1 tag
// parity differs from the chip default. With parity disabled on receive too,
// the FIFO holds nine wire bits per tag byte, bit-reversed by the serial
// shift order; unstuffParity undoes that.
func (d *Device) tt1BitBang(ctx context.Context, data []byte) ([]byte, error) {
	framed := AddCRCB(data)

	writes := make([]RegisterWrite, 0, 6+3*(len(framed)-1))
	writes = append(writes,
		RegisterWrite{RegCIUFIFOData, framed[0]},
		RegisterWrite{RegCIUBitFraming, 0x07}, // 7 bit short frame
		RegisterWrite{RegCIUCommand, ciuCmdTransmit},
		RegisterWrite{RegCIUBitFraming, 0x00}, // back to 8 bits
		RegisterWrite{RegCIUManualRCV, ciuParityDisable},
	)
	for _, b := range framed[1:] {
		writes = append(writes,
			RegisterWrite{RegCIUFIFOData, b},
			RegisterWrite{RegCIUCommand, ciuCmdTransmit},
			RegisterWrite{RegCIUCommand, ciuCmdNoCmdChange},
		)
	}
	writes = append(writes, RegisterWrite{RegCIUCommand, ciuCmdReceive})

	if err := d.WriteRegisterContext(ctx, writes...); err != nil {
		return nil, err
	}

	switch framed[0] {
	case tt1WriteE8:
		time.Sleep(tt1WriteE8Settle)
	case tt1WriteNE8:
		time.Sleep(tt1WriteNE8Settle)
	}

	if err := d.WriteRegisterContext(ctx, RegisterWrite{RegCIUManualRCV, ciuParityEnable}); err != nil {
		return nil, err
	}

	level, err := d.ReadRegisterContext(ctx, RegCIUFIFOLevel)
	if err != nil {
		return nil, err
	}
	if level[0] == 0 {
		// An empty FIFO means the tag never answered; there is no such
		// thing as an empty valid reply here.
		return nil, fmt.Errorf("tt1 exchange: %w: receive buffer empty", ErrTimeout)
	}

	regs := make([]Register, level[0])
	for i := range regs {
		regs[i] = RegCIUFIFOData
	}
	raw, err := d.ReadRegisterContext(ctx, regs...)
	if err != nil {
		return nil, err
	}

	rsp := unstuffParity(raw)
	if !CheckCRCB(rsp) {
		return nil, fmt.Errorf("tt1 exchange: %w: crc_b check error", ErrTransmission)
	}
	return rsp[:len(rsp)-2], nil
}

// unstuffParity rebuilds data bytes from a raw FIFO dump captured with the
// parity checker off. The wire stream packs nine bits per tag byte (eight
// data plus parity) and the FIFO stores them LSB-first per octet, so the
// stream's bit j lives at raw[j/8] bit (j%8). Every full nine bit group
// yields one data byte; a trailing group of eight or fewer bits is dropped.
func unstuffParity(raw []byte) []byte {
	nbits := len(raw) * 8
	out := make([]byte, 0, nbits/9)
	for i := 0; i+8 < nbits; i += 9 {
		var b byte
		for m := 0; m < 8; m++ {
			j := i + m
			b |= (raw[j/8] >> (j % 8) & 1) << m
		}
		out = append(out, b)
	}
	return out
}
