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

// Package i2c implements the pn532.Transport interface over an I2C bus.
// Every read transaction carries a leading ready/status byte that the chip
// prepends in hardware; the transport polls it before fetching frames.
package i2c

import (
	"context"
	"fmt"
	"time"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/frame"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// chipAddr is the 7-bit I2C address. The datasheet's 0x48 is the 8-bit
	// write address including the R/W bit; the kernel and periph.io want
	// 0x48 >> 1.
	chipAddr = 0x24

	// chipReady is the value of the hardware status byte once a reply waits
	chipReady = 0x01

	maxClockFreq = 400 * physic.KiloHertz

	defaultTimeout = 1 * time.Second

	// readyPollInterval paces the ready byte polling loop
	readyPollInterval = 1 * time.Millisecond
)

// Transport implements pn532.Transport over I2C
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser
	busName string
	timeout time.Duration
}

// New opens the named I2C bus and binds the chip's address on it
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, &pn532.TransportError{
			Op: "open", Port: busName,
			Err:  fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err),
			Type: pn532.ErrorTypePermanent,
		}
	}
	_ = bus.SetSpeed(maxClockFreq) // default speed still works if this fails

	return &Transport{
		dev:     &i2c.Dev{Addr: chipAddr, Bus: bus},
		bus:     bus,
		busName: busName,
		timeout: defaultTimeout,
	}, nil
}

// SendCommand sends a command and waits for the matching response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext sends a command with context support
func (t *Transport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if t.dev == nil {
		return nil, t.transportErr("send", pn532.ErrTransportClosed, pn532.ErrorTypePermanent, false)
	}

	payload := make([]byte, 0, 1+len(args))
	payload = append(payload, cmd)
	payload = append(payload, args...)

	if err := t.dev.Tx(frame.Build(frame.TFIHostToChip, payload), nil); err != nil {
		return nil, &pn532.TransportError{
			Op: "send", Port: t.busName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.waitAck(ctx, deadline); err != nil {
		return nil, err
	}
	return t.readResponse(ctx, deadline)
}

// waitReady polls the hardware status byte until the chip has data for us
func (t *Transport) waitReady(ctx context.Context, deadline time.Time, op string) error {
	status := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}
		if time.Now().After(deadline) {
			return &pn532.TransportError{
				Op: op, Port: t.busName, Err: pn532.ErrTransportTimeout,
				Type: pn532.ErrorTypeTimeout, Retryable: true,
			}
		}

		if err := t.dev.Tx(nil, status); err != nil {
			return &pn532.TransportError{
				Op: op, Port: t.busName, Err: err,
				Type: pn532.ErrorTypeTransient, Retryable: true,
			}
		}
		if status[0] == chipReady {
			return nil
		}
		time.Sleep(readyPollInterval)
	}
}

// waitAck fetches and verifies the ACK frame
func (t *Transport) waitAck(ctx context.Context, deadline time.Time) error {
	if err := t.waitReady(ctx, deadline, "ack"); err != nil {
		return err
	}

	// status byte + ACK frame
	buf := make([]byte, 1+len(frame.Ack))
	if err := t.dev.Tx(nil, buf); err != nil {
		return &pn532.TransportError{
			Op: "ack", Port: t.busName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}
	if buf[0] != chipReady {
		return t.transportErr("ack", pn532.ErrTransportNotReady, pn532.ErrorTypeTransient, true)
	}
	if frame.IsNack(buf[1:]) {
		return t.transportErr("ack", pn532.ErrNACKReceived, pn532.ErrorTypeTransient, true)
	}
	if !frame.IsAck(buf[1:]) {
		return t.transportErr("ack", pn532.ErrNoACK, pn532.ErrorTypeTransient, true)
	}
	return nil
}

// readResponse fetches the response frame once the chip reports ready. The
// whole frame is read in one transaction sized for the worst case; I2C has
// no way to peek at the length field first without a second status cycle.
func (t *Transport) readResponse(ctx context.Context, deadline time.Time) ([]byte, error) {
	if err := t.waitReady(ctx, deadline, "receive"); err != nil {
		return nil, err
	}

	buf := make([]byte, 1+frame.MaxDataLen+10)
	if err := t.dev.Tx(nil, buf); err != nil {
		return nil, &pn532.TransportError{
			Op: "receive", Port: t.busName, Err: err,
			Type: pn532.ErrorTypeTransient, Retryable: true,
		}
	}
	if buf[0] != chipReady {
		return nil, t.transportErr("receive", pn532.ErrTransportNotReady, pn532.ErrorTypeTransient, true)
	}

	payload, err := frame.Decode(buf[1:], frame.TFIChipToHost)
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
	return t.dev != nil
}

// Type returns pn532.TransportI2C
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// Close releases the bus file descriptor. Leaking it corrupts the bus on
// rapid close/reopen cycles.
func (t *Transport) Close() error {
	if t.bus == nil {
		return nil
	}
	if err := t.bus.Close(); err != nil {
		return fmt.Errorf("failed to close I2C bus: %w", err)
	}
	t.bus = nil
	t.dev = nil
	return nil
}

func (t *Transport) transportErr(op string, err error, typ pn532.ErrorType, retryable bool) error {
	return &pn532.TransportError{
		Op: op, Port: t.busName, Err: err,
		Type: typ, Retryable: retryable,
	}
}

var _ pn532.Transport = (*Transport)(nil)
