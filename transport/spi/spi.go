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

// Package spi implements the pn532.Transport interface over an SPI link.
// The chip shifts bits LSB first while nearly every SPI controller is MSB
// first, so every byte crossing the wire is bit-reversed in software.
package spi

import (
	"context"
	"fmt"
	"time"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/frame"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPI prefix bytes selecting the transaction type (datasheet section 6.1.1)
const (
	spiDataWrite = 0x01
	spiStatRead  = 0x02
	spiDataRead  = 0x03

	// chipReady is bit 0 of the status byte once a reply waits
	chipReady = 0x01

	defaultFreq    = 1 * physic.MegaHertz
	defaultTimeout = 1 * time.Second

	readyPollInterval = 1 * time.Millisecond
)

// Transport implements pn532.Transport over SPI
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	portName string
	timeout  time.Duration
}

// New opens the named SPI port and configures it for the chip
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, &pn532.TransportError{
			Op: "open", Port: portName,
			Err:  fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err),
			Type: pn532.ErrorTypePermanent,
		}
	}

	// Mode 0; the LSB-first shift order is handled by reverseBits
	conn, err := port.Connect(defaultFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI port %s: %w", portName, err)
	}

	t := &Transport{
		port:     port,
		conn:     conn,
		portName: portName,
		timeout:  defaultTimeout,
	}

	// A dummy byte with the chip select asserted wakes the chip from its
	// SPI sleep state.
	_ = t.conn.Tx([]byte{0x00}, nil)

	return t, nil
}

// reverseBits mirrors a byte's bit order (LSB <-> MSB)
func reverseBits(b byte) byte {
	b = b>>4 | b<<4
	b = b&0xCC>>2 | b&0x33<<2
	b = b&0xAA>>1 | b&0x55<<1
	return b
}

func reverseAll(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = reverseBits(b)
	}
	return out
}

// SendCommand sends a command and waits for the matching response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext sends a command with context support
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if t.conn == nil {
		return nil, t.transportErr("send", pn532.ErrTransportClosed, pn532.ErrorTypePermanent, false)
	}

	payload := make([]byte, 0, 1+len(args))
	payload = append(payload, cmd)
	payload = append(payload, args...)
	wire := frame.Build(frame.TFIHostToChip, payload)

	tx := make([]byte, 0, 1+len(wire))
	tx = append(tx, reverseBits(spiDataWrite))
	tx = append(tx, reverseAll(wire)...)
	if err := t.conn.Tx(tx, nil); err != nil {
		return nil, &pn532.TransportError{
			Op: "send", Port: t.portName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.waitAck(ctx, deadline); err != nil {
		return nil, err
	}
	return t.readResponse(ctx, deadline)
}

// waitReady polls the status register until the chip has data for us
func (t *Transport) waitReady(ctx context.Context, deadline time.Time, op string) error {
	statusCmd := []byte{reverseBits(spiStatRead), 0x00}
	statusRsp := make([]byte, 2)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}
		if time.Now().After(deadline) {
			return &pn532.TransportError{
				Op: op, Port: t.portName, Err: pn532.ErrTransportTimeout,
				Type: pn532.ErrorTypeTimeout, Retryable: true,
			}
		}

		if err := t.conn.Tx(statusCmd, statusRsp); err != nil {
			return &pn532.TransportError{
				Op: op, Port: t.portName, Err: err,
				Type: pn532.ErrorTypeTransient, Retryable: true,
			}
		}
		if reverseBits(statusRsp[1])&chipReady != 0 {
			return nil
		}
		time.Sleep(readyPollInterval)
	}
}

// read performs one data read transaction of n payload bytes
func (t *Transport) read(n int, op string) ([]byte, error) {
	rx := make([]byte, 1+n)
	tx := make([]byte, 1+n)
	tx[0] = reverseBits(spiDataRead)

	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, &pn532.TransportError{
			Op: op, Port: t.portName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}
	// rx[0] arrives while the prefix byte shifts out and carries nothing
	return reverseAll(rx[1:]), nil
}

// waitAck fetches and verifies the ACK frame
func (t *Transport) waitAck(ctx context.Context, deadline time.Time) error {
	if err := t.waitReady(ctx, deadline, "ack"); err != nil {
		return err
	}

	buf, err := t.read(len(frame.Ack), "ack")
	if err != nil {
		return err
	}
	if frame.IsNack(buf) {
		return t.transportErr("ack", pn532.ErrNACKReceived, pn532.ErrorTypeTransient, true)
	}
	if !frame.IsAck(buf) {
		return t.transportErr("ack", pn532.ErrNoACK, pn532.ErrorTypeTransient, true)
	}
	return nil
}

// readResponse fetches the response frame once the chip reports ready
func (t *Transport) readResponse(ctx context.Context, deadline time.Time) ([]byte, error) {
	if err := t.waitReady(ctx, deadline, "receive"); err != nil {
		return nil, err
	}

	buf, err := t.read(frame.MaxDataLen+10, "receive")
	if err != nil {
		return nil, err
	}
	payload, err := frame.Decode(buf, frame.TFIChipToHost)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), payload...), nil
}

// SetTimeout sets the response deadline for subsequent commands
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// IsConnected returns true until Close is called
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Type returns pn532.TransportSPI
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportSPI
}

// Close releases the SPI port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port: %w", err)
	}
	t.port = nil
	t.conn = nil
	return nil
}

func (t *Transport) transportErr(op string, err error, typ pn532.ErrorType, retryable bool) error {
	return &pn532.TransportError{
		Op: op, Port: t.portName, Err: err,
		Type: typ, Retryable: retryable,
	}
}

var _ pn532.Transport = (*Transport)(nil)
