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

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for an optional TransportWithRetry wrapper
	RetryConfig *RetryConfig
	// CloseWakeup is the set of interrupt sources left armed by Close
	CloseWakeup []WakeupSource
	// Timeout is the default timeout for operations
	Timeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		CloseWakeup: []WakeupSource{WakeupHSU, WakeupSPI, WakeupI2C},
		Timeout:     1 * time.Second,
	}
}

// Device represents a PN532 NFC reader device.
//
// Thread Safety: Device is NOT thread-safe. Every operation issues exactly one
// request and blocks until the matching reply or a timeout; the transport and
// the chip's single command slot belong to the calling goroutine for that
// request/reply pair. For concurrent access, serialize every operation behind
// a single mutex guarding the device.
type Device struct {
	transport       Transport
	config          *DeviceConfig
	log             Logger
	discovery       Discovery
	firmwareVersion *FirmwareVersion
}

// New creates a new PN532 device with the given transport. The device is not
// usable until Init has brought the chip to its configured, muted state.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
		log:       NopLogger(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// FirmwareVersion returns the firmware identity read during Init, or nil
// before initialization.
func (d *Device) FirmwareVersion() *FirmwareVersion {
	return d.firmwareVersion
}

// String identifies the device for diagnostics
func (d *Device) String() string {
	if d.firmwareVersion != nil {
		return fmt.Sprintf("%s on %s", d.firmwareVersion.ChipName(), d.transport.Type())
	}
	return fmt.Sprintf("PN532 on %s", d.transport.Type())
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// call issues one command and returns the reply body with the response code
// byte stripped. A timeout > 0 bounds this call only; the transport reverts
// to the device default afterwards.
func (d *Device) call(ctx context.Context, cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := d.transport.SetTimeout(timeout); err != nil {
			return nil, fmt.Errorf("%s: set timeout: %w", CommandName(cmd), err)
		}
		defer func() { _ = d.transport.SetTimeout(d.config.Timeout) }()
	}

	res, err := d.transport.SendCommandWithContext(ctx, cmd, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CommandName(cmd), err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%s: %w: empty reply", CommandName(cmd), ErrInvalidResponse)
	}
	if res[0] != cmd+1 {
		return nil, fmt.Errorf("%s: %w: response code 0x%02X",
			CommandName(cmd), ErrInvalidResponse, res[0])
	}
	return res[1:], nil
}

const (
	hsuDefaultBaudRate = 115200
	hsuFastBaudRate    = 921600

	// baudrateSettleDelay is the pause between the chip acknowledging a rate
	// change and the local side switching. Carried over from the reference
	// timing; not confirmed as a measured hardware minimum.
	baudrateSettleDelay = 1 * time.Millisecond

	// hsuConfigMask/hsuConfigValue select the Multi Interface (MIF) bits of
	// the control switch register that indicate a high speed UART link.
	hsuConfigMask  = 0b00101111
	hsuConfigValue = 0b00000100
)

// wakePreamble pulls a powered-down chip back to its operational state over
// UART. Harmless when the chip is already awake.
var wakePreamble = []byte{0x55, 0x00, 0x00, 0x00, 0x00}

// Init brings the chip from power-up to its operational, muted state
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext initializes the PN532 device with context support. Any failure
// is fatal to construction: a half-configured chip cannot be trusted for
// discovery, so nothing here is retried.
func (d *Device) InitContext(ctx context.Context) error {
	if d.transport.Type() == TransportUART {
		if fw, ok := d.transport.(FrameWriter); ok {
			if err := fw.WriteFrame(wakePreamble); err != nil {
				return fmt.Errorf("wake preamble: %w", err)
			}
		}
	}

	fw, err := d.GetFirmwareVersionContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get firmware version: %w", err)
	}
	d.firmwareVersion = fw
	d.log.Debugf("chipset is a %s", fw.ChipName())

	if err := d.negotiateBaudRate(ctx, hsuFastBaudRate); err != nil {
		return err
	}

	if err := d.SAMConfigurationContext(ctx, SAMModeNormal, 0, false); err != nil {
		return err
	}
	if err := d.SetParametersContext(ctx, 0); err != nil {
		return err
	}
	if err := d.applyRadioConfig(ctx); err != nil {
		return err
	}

	return d.MuteContext(ctx)
}

// applyRadioConfig pushes the fixed radio configuration blocks: RF timings,
// retry counts, and the analog override for Type B transponders.
func (d *Device) applyRadioConfig(ctx context.Context) error {
	blocks := []struct {
		data []byte
		item byte
	}{
		{item: rfCfgVariousTimings, data: []byte{0x00, 0x0B, 0x0A}},
		{item: rfCfgMaxRtyCOM, data: []byte{0x00}},
		{item: rfCfgMaxRetries, data: []byte{0x01, 0x00, 0x01}},
		// The factory CIU_ModGsP value does not work with the Texas
		// Instruments RF430CL330H Type B transponder; 0x10 does.
		{item: rfCfgAnalog106TypeB, data: []byte{0xFF, 0x10, 0x85}},
	}

	for _, block := range blocks {
		if err := d.RFConfigurationContext(ctx, block.item, block.data); err != nil {
			return err
		}
	}
	return nil
}

// negotiateBaudRate renegotiates the UART speed when the chip reports a high
// speed UART link. The chip side switches first and the local side second;
// doing it the other way round desynchronizes the two ends.
func (d *Device) negotiateBaudRate(ctx context.Context, baudRate int) error {
	bs, ok := d.transport.(BaudRateSetter)
	if !ok || d.transport.Type() != TransportUART {
		return nil
	}

	val, err := d.ReadRegisterContext(ctx, RegControlSwitch)
	if err != nil {
		return err
	}
	if val[0]&hsuConfigMask != hsuConfigValue {
		return nil
	}

	d.log.Debugf("connected via high speed uart at %d baud", bs.BaudRate())
	if err := d.SetSerialBaudrateContext(ctx, baudRate); err != nil {
		return err
	}
	time.Sleep(baudrateSettleDelay)
	if err := bs.SetBaudRate(baudRate); err != nil {
		return fmt.Errorf("failed to switch local baud rate: %w", err)
	}
	d.log.Debugf("changed high speed uart speed to %d baud", bs.BaudRate())
	return nil
}

// Close reverses Init and releases the transport
func (d *Device) Close() error {
	return d.CloseContext(context.Background())
}

// CloseContext shuts the device down: the high speed UART path drops back to
// the default rate (chip first, local second), the chip is powered down with
// the configured wakeup sources armed, and the transport is released.
func (d *Device) CloseContext(ctx context.Context) error {
	if d.transport == nil {
		return nil
	}

	if err := d.negotiateBaudRate(ctx, hsuDefaultBaudRate); err != nil {
		_ = d.transport.Close()
		return err
	}
	if err := d.PowerDownContext(ctx, d.config.CloseWakeup, false); err != nil {
		_ = d.transport.Close()
		return err
	}
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
