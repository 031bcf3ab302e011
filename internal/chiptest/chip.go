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

// Package chiptest simulates a PN532 behind the pn532.Transport interface:
// a register file, the CIU FIFO with its parity quirks, the baud rate
// switch handshake, and an optional Type 1 tag in the field. Tests drive the
// real protocol code against it instead of scripting canned byte sequences.
package chiptest

import (
	"context"
	"fmt"
	"time"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/syncutil"
)

// Register addresses the simulator gives special behavior
const (
	regControlSwitch = 0x6103
	regManualRCV     = 0x630D
	regCommand       = 0x6331
	regFIFOData      = 0x6339
	regFIFOLevel     = 0x633A
)

// CIU_Command values
const (
	ciuTransmit    = 0x04
	ciuNoCmdChange = 0x07
	ciuReceive     = 0x08
)

// fifoCapacity mirrors the hardware receive buffer size
const fifoCapacity = 64

// Responder models a Type 1 tag in the field: it receives one command
// (checksum already stripped) and returns the response payload (checksum
// appended by the simulator). Returning nil simulates a silent tag.
type Responder func(cmd []byte) []byte

// Chip is a simulated PN532 implementing pn532.Transport, along with the
// baud rate and raw frame extensions of the UART transport.
type Chip struct {
	mu syncutil.Mutex

	regs map[uint16]byte

	// CIU state driven through register writes
	txBuf          []byte
	fifo           []byte
	parityDisabled bool

	// Tag is consulted for both native data exchange and the bit-banged
	// register path.
	Tag Responder

	// Firmware is the GetFirmwareVersion body (IC, Ver, Rev, Support)
	Firmware [4]byte

	// CorruptRxBit, when >= 0, flips that bit of the stuffed receive stream
	// before it reaches the FIFO. Simulates a reception error.
	CorruptRxBit int

	// baud rate handshake state
	baudRate     int
	localBaud    int
	pendingBaud  int
	poweredDown  bool
	wakeupMask   byte

	// Events records observable chip-side actions in order, for tests that
	// assert sequencing (chip rate before local rate, powerdown before close).
	Events []string

	frames    [][]byte
	callLog   []byte
	timeout   time.Duration
	closed    bool
}

// baud rate index table, matching the SetSerialBaudrate wire format
var baudRates = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600, 1288000}

// New returns a simulator configured as a high speed UART chip at the
// default rate.
func New() *Chip {
	return &Chip{
		regs: map[uint16]byte{
			regControlSwitch: 0x04, // high speed UART interface
		},
		Firmware:     [4]byte{0x32, 0x01, 0x06, 0x07},
		CorruptRxBit: -1,
		baudRate:     115200,
		localBaud:    115200,
		timeout:      time.Second,
	}
}

// SetRegister seeds a register value
func (c *Chip) SetRegister(addr uint16, value byte) {
	c.mu.Lock()
	c.regs[addr] = value
	c.mu.Unlock()
}

// BaudRateChip returns the chip-side rate (not the local port rate)
func (c *Chip) BaudRateChip() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baudRate
}

// WakeupMask returns the bitmask of the last PowerDown
func (c *Chip) WakeupMask() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wakeupMask
}

// PoweredDown reports whether PowerDown was issued
func (c *Chip) PoweredDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poweredDown
}

// Commands returns the command codes received, in order
func (c *Chip) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.callLog...)
}

// SendCommand implements pn532.Transport
func (c *Chip) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return c.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext implements pn532.Transport
func (c *Chip) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, pn532.ErrTransportClosed
	}
	c.callLog = append(c.callLog, cmd)

	body, err := c.execute(cmd, args)
	if err != nil {
		return nil, err
	}
	return append([]byte{cmd + 1}, body...), nil
}

func (c *Chip) execute(cmd byte, args []byte) ([]byte, error) {
	switch cmd {
	case 0x02: // GetFirmwareVersion
		return c.Firmware[:], nil
	case 0x04: // GetGeneralStatus
		return []byte{0x00, 0x00, 0x00}, nil
	case 0x06: // ReadRegister
		return c.readRegisters(args)
	case 0x08: // WriteRegister
		return c.writeRegisters(args)
	case 0x10: // SetSerialBaudrate
		return c.setSerialBaudrate(args)
	case 0x12, 0x14, 0x32: // SetParameters, SAMConfiguration, RFConfiguration
		return nil, nil
	case 0x16: // PowerDown
		if len(args) < 1 {
			return nil, fmt.Errorf("powerdown: missing wakeup mask")
		}
		c.poweredDown = true
		c.wakeupMask = args[0]
		c.Events = append(c.Events, "powerdown")
		return []byte{0x00}, nil
	case 0x40: // InDataExchange
		return c.dataExchange(args)
	case 0x4A: // InListPassiveTarget
		return []byte{0x00}, nil // nothing in the field
	case 0x60: // InAutoPoll
		return []byte{0x00}, nil
	default:
		return nil, fmt.Errorf("chiptest: unhandled command 0x%02X", cmd)
	}
}

func (c *Chip) readRegisters(args []byte) ([]byte, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("read register: odd payload length %d", len(args))
	}
	body := []byte{0x00}
	for i := 0; i < len(args); i += 2 {
		addr := uint16(args[i])<<8 | uint16(args[i+1])
		body = append(body, c.readRegister(addr))
	}
	return body, nil
}

func (c *Chip) readRegister(addr uint16) byte {
	switch addr {
	case regFIFOLevel:
		return byte(len(c.fifo))
	case regFIFOData:
		if len(c.fifo) == 0 {
			return 0
		}
		b := c.fifo[0]
		c.fifo = c.fifo[1:]
		return b
	default:
		return c.regs[addr]
	}
}

func (c *Chip) writeRegisters(args []byte) ([]byte, error) {
	if len(args)%3 != 0 {
		return nil, fmt.Errorf("write register: payload length %d not a multiple of 3", len(args))
	}
	for i := 0; i < len(args); i += 3 {
		addr := uint16(args[i])<<8 | uint16(args[i+1])
		c.writeRegister(addr, args[i+2])
	}
	return []byte{0x00}, nil
}

func (c *Chip) writeRegister(addr uint16, value byte) {
	switch addr {
	case regFIFOData:
		c.txBuf = append(c.txBuf, value)
	case regManualRCV:
		c.parityDisabled = value == 0x30
		c.regs[addr] = value
	case regCommand:
		switch value {
		case ciuTransmit, ciuNoCmdChange:
			// transmission is modeled as instantaneous
		case ciuReceive:
			c.receive()
		}
	default:
		c.regs[addr] = value
	}
}

// receive runs the accumulated transmit bytes through the tag and loads the
// FIFO with the (possibly parity stuffed) response.
func (c *Chip) receive() {
	tx := c.txBuf
	c.txBuf = nil
	c.fifo = nil

	if c.Tag == nil || len(tx) < 3 {
		return // silent field: FIFO stays empty, reads see level 0
	}

	// Strip and ignore the command checksum; a real tag would reject on
	// mismatch, which also presents as an empty FIFO.
	cmd := tx[:len(tx)-2]
	rsp := c.Tag(cmd)
	if rsp == nil {
		return
	}

	wire := pn532.AddCRCB(rsp)
	if c.parityDisabled {
		wire = stuffParity(wire)
	}
	if c.CorruptRxBit >= 0 && c.CorruptRxBit < len(wire)*8 {
		wire[c.CorruptRxBit/8] ^= 1 << (c.CorruptRxBit % 8)
	}
	if len(wire) > fifoCapacity {
		wire = wire[:fifoCapacity]
	}
	c.fifo = wire
}

// stuffParity packs each byte as nine wire bits (eight data bits LSB first
// plus odd parity) into consecutive octets, mirroring what the CIU delivers
// with its parity checker off.
func stuffParity(data []byte) []byte {
	nbits := len(data) * 9
	out := make([]byte, (nbits+7)/8)
	j := 0
	setBit := func(bit byte) {
		out[j/8] |= bit << (j % 8)
		j++
	}
	for _, b := range data {
		ones := 0
		for m := 0; m < 8; m++ {
			bit := b >> m & 1
			if bit != 0 {
				ones++
			}
			setBit(bit)
		}
		if ones%2 == 0 {
			setBit(1) // odd parity
		} else {
			setBit(0)
		}
	}
	return out
}

func (c *Chip) setSerialBaudrate(args []byte) ([]byte, error) {
	if len(args) != 1 || int(args[0]) >= len(baudRates) {
		return nil, fmt.Errorf("set serial baudrate: bad index")
	}
	c.pendingBaud = baudRates[args[0]]
	c.Events = append(c.Events, fmt.Sprintf("chip-baud-request %d", c.pendingBaud))
	return []byte{0x00}, nil
}

func (c *Chip) dataExchange(args []byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("data exchange: short payload")
	}
	if c.Tag == nil {
		return []byte{0x01}, nil // status: timeout, nothing in the field
	}
	rsp := c.Tag(args[1:])
	if rsp == nil {
		return []byte{0x01}, nil
	}
	return append([]byte{0x00}, rsp...), nil
}

// WriteFrame implements pn532.FrameWriter. The chip applies a pending baud
// rate change only when it sees the trailing ACK frame, exactly like the
// real hardware.
func (c *Chip) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, append([]byte(nil), data...))
	if c.pendingBaud != 0 && isAckFrame(data) {
		c.baudRate = c.pendingBaud
		c.Events = append(c.Events, fmt.Sprintf("chip-baud-switch %d", c.baudRate))
		c.pendingBaud = 0
	}
	return nil
}

func isAckFrame(data []byte) bool {
	ack := []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	if len(data) != len(ack) {
		return false
	}
	for i := range ack {
		if data[i] != ack[i] {
			return false
		}
	}
	return true
}

// WrittenFrames returns the raw frames received via WriteFrame
func (c *Chip) WrittenFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([][]byte, len(c.frames))
	copy(frames, c.frames)
	return frames
}

// SetBaudRate implements pn532.BaudRateSetter (the local port side)
func (c *Chip) SetBaudRate(baudRate int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if baudRate != c.baudRate && baudRate != c.pendingBaud {
		return fmt.Errorf("local rate %d switched before chip rate %d", baudRate, c.baudRate)
	}
	c.localBaud = baudRate
	c.Events = append(c.Events, fmt.Sprintf("local-baud-switch %d", baudRate))
	return nil
}

// BaudRate implements pn532.BaudRateSetter
func (c *Chip) BaudRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localBaud
}

// SetTimeout implements pn532.Transport
func (c *Chip) SetTimeout(timeout time.Duration) error {
	c.mu.Lock()
	c.timeout = timeout
	c.mu.Unlock()
	return nil
}

// IsConnected implements pn532.Transport
func (c *Chip) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Type implements pn532.Transport. The simulator reports UART so the full
// lifecycle, baud negotiation included, runs against it.
func (*Chip) Type() pn532.TransportType {
	return pn532.TransportUART
}

// Close implements pn532.Transport
func (c *Chip) Close() error {
	c.mu.Lock()
	c.closed = true
	c.Events = append(c.Events, "close")
	c.mu.Unlock()
	return nil
}

var (
	_ pn532.Transport      = (*Chip)(nil)
	_ pn532.BaudRateSetter = (*Chip)(nil)
	_ pn532.FrameWriter    = (*Chip)(nil)
)
