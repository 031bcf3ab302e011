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

// Package uart implements the pn532.Transport interface over a serial port,
// including the high speed UART features the other transports lack: runtime
// baud rate changes and raw frame writes for the wake preamble and the
// baud rate switch acknowledge.
package uart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/frame"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	defaultTimeout  = 1 * time.Second

	// pollReadTimeout is the per-read timeout of the serial port. Reads loop
	// on it until the frame is complete or the operation deadline passes.
	pollReadTimeout = 50 * time.Millisecond
)

// Transport implements pn532.Transport over a serial port
type Transport struct {
	port     serial.Port
	portName string
	baudRate int
	timeout  time.Duration
	mu       sync.Mutex
	closed   bool
}

// New opens the serial port and returns a ready transport
func New(portName string) (*Transport, error) {
	return NewWithPort(portName, nil)
}

// NewWithPort wraps an already open serial port; port == nil opens portName.
// Mainly useful for tests that substitute a simulated port.
func NewWithPort(portName string, port serial.Port) (*Transport, error) {
	if port == nil {
		if err := validatePort(portName); err != nil {
			return nil, err
		}
		var err error
		port, err = serial.Open(portName, &serial.Mode{
			BaudRate: defaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, &pn532.TransportError{
				Op: "open", Port: portName, Err: err,
				Type: pn532.ErrorTypePermanent,
			}
		}
	}

	if err := port.SetReadTimeout(pollReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return &Transport{
		port:     port,
		portName: portName,
		baudRate: defaultBaudRate,
		timeout:  defaultTimeout,
	}, nil
}

// SendCommand sends a command and waits for the matching response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext sends a command with context support. The reply
// starts at the response code byte; frame envelope and TFI are consumed here.
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, t.transportErr("send", pn532.ErrTransportClosed, pn532.ErrorTypePermanent, false)
	}

	payload := make([]byte, 0, 1+len(args))
	payload = append(payload, cmd)
	payload = append(payload, args...)

	_ = t.port.ResetInputBuffer()
	if _, err := t.port.Write(frame.Build(frame.TFIHostToChip, payload)); err != nil {
		return nil, &pn532.TransportError{
			Op: "send", Port: t.portName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}

	deadline := time.Now().Add(t.timeout)
	leftover, err := t.waitAck(ctx, deadline)
	if err != nil {
		return nil, err
	}
	return t.readResponse(ctx, deadline, leftover)
}

// waitAck consumes the ACK the chip sends before working on the command.
// Bytes that arrive in the same burst as the ACK belong to the response and
// are returned to the caller.
func (t *Transport) waitAck(ctx context.Context, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, 2*len(frame.Ack))
	chunk := make([]byte, 64)

	for {
		if err := checkDeadline(ctx, deadline, "ack"); err != nil {
			return nil, err
		}

		n, err := t.port.Read(chunk)
		if err != nil {
			return nil, &pn532.TransportError{
				Op: "ack", Port: t.portName, Err: err,
				Type: pn532.ErrorTypeTransient, Retryable: true,
			}
		}
		buf = append(buf, chunk[:n]...)

		// The ACK may be preceded by line noise; scan rather than compare
		for i := 0; i+len(frame.Ack) <= len(buf); i++ {
			if frame.IsAck(buf[i:]) {
				return buf[i+len(frame.Ack):], nil
			}
			if frame.IsNack(buf[i:]) {
				return nil, t.transportErr("ack", pn532.ErrNACKReceived, pn532.ErrorTypeTransient, true)
			}
		}
		if len(buf) > 64 {
			return nil, t.transportErr("ack", pn532.ErrNoACK, pn532.ErrorTypeTransient, true)
		}
	}
}

// readResponse accumulates bytes until a whole information frame decodes
func (t *Transport) readResponse(ctx context.Context, deadline time.Time, leftover []byte) ([]byte, error) {
	buf := append(make([]byte, 0, 64), leftover...)
	chunk := make([]byte, 256)

	if len(buf) > 0 {
		if payload, err := frame.Decode(buf, frame.TFIChipToHost); err == nil {
			return append([]byte(nil), payload...), nil
		} else if !pn532.IsRetryable(err) {
			return nil, err
		}
	}

	for {
		if err := checkDeadline(ctx, deadline, "receive"); err != nil {
			return nil, err
		}

		n, err := t.port.Read(chunk)
		if err != nil {
			return nil, &pn532.TransportError{
				Op: "receive", Port: t.portName, Err: err,
				Type: pn532.ErrorTypeTransient, Retryable: true,
			}
		}
		if n == 0 {
			continue
		}
		buf = append(buf, chunk[:n]...)

		payload, err := frame.Decode(buf, frame.TFIChipToHost)
		if err == nil {
			return append([]byte(nil), payload...), nil
		}
		if !pn532.IsRetryable(err) {
			return nil, err
		}
		// Retryable decode failure usually just means the frame is still
		// arriving; keep reading until the deadline says otherwise.
	}
}

func checkDeadline(ctx context.Context, deadline time.Time, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if time.Now().After(deadline) {
		return &pn532.TransportError{
			Op: op, Err: pn532.ErrTransportTimeout,
			Type: pn532.ErrorTypeTimeout, Retryable: true,
		}
	}
	return nil
}

// WriteFrame writes raw bytes outside the command/response cycle. Used for
// the wake preamble and the post-baudrate-change acknowledge.
func (t *Transport) WriteFrame(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.transportErr("write frame", pn532.ErrTransportClosed, pn532.ErrorTypePermanent, false)
	}
	if _, err := t.port.Write(data); err != nil {
		return &pn532.TransportError{
			Op: "write frame", Port: t.portName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}
	return nil
}

// SetBaudRate switches the local port speed. The chip must have been asked
// to switch first; see the device lifecycle for the ordering contract.
func (t *Transport) SetBaudRate(baudRate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.transportErr("set baud rate", pn532.ErrTransportClosed, pn532.ErrorTypePermanent, false)
	}
	if err := t.port.SetMode(&serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}); err != nil {
		return &pn532.TransportError{
			Op: "set baud rate", Port: t.portName, Err: err,
			Type: pn532.ErrorTypePermanent,
		}
	}
	t.baudRate = baudRate
	return nil
}

// BaudRate returns the current local port speed
func (t *Transport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baudRate
}

// SetTimeout sets the response deadline for subsequent commands
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// IsConnected returns true until Close is called
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Type returns pn532.TransportUART
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// Close releases the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close UART port: %w", err)
	}
	return nil
}

func (t *Transport) transportErr(op string, err error, typ pn532.ErrorType, retryable bool) error {
	return &pn532.TransportError{
		Op: op, Port: t.portName, Err: err,
		Type: typ, Retryable: retryable,
	}
}

// Interface checks
var (
	_ pn532.Transport      = (*Transport)(nil)
	_ pn532.BaudRateSetter = (*Transport)(nil)
	_ pn532.FrameWriter    = (*Transport)(nil)
)
