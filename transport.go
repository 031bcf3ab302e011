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
	"errors"
	"fmt"
	"time"

	"github.com/gaitQ/go-pn532/internal/syncutil"
)

// Transport defines the interface for communication with PN532 devices.
// This can be implemented by UART, I2C, or SPI backends.
//
// SendCommand returns the reply body starting at the response code byte
// (command code + 1); the TFI and frame envelope are consumed by the
// transport. The transport and the chip's single command slot belong to one
// caller at a time: there is never more than one request in flight.
type Transport interface {
	// SendCommand sends a command to the PN532 and waits for response
	SendCommand(cmd byte, args []byte) ([]byte, error)

	// SendCommandWithContext sends a command to the PN532 with context support
	SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error)

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the read timeout for the transport
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// BaudRateSetter is implemented by transports whose wire speed can change
// mid-session (UART-class transports). The device lifecycle uses it during
// high-speed UART renegotiation: the chip side is always switched first, then
// the local side, or the two ends desynchronize.
type BaudRateSetter interface {
	// SetBaudRate switches the local side of the link to the given rate.
	SetBaudRate(baudRate int) error
	// BaudRate returns the current local rate.
	BaudRate() int
}

// FrameWriter is implemented by transports that can emit a raw frame outside
// the command/response cycle. Used for the post-SetSerialBaudrate ACK (the
// chip holds the old rate until it sees it) and the UART wake preamble.
type FrameWriter interface {
	WriteFrame(data []byte) error
}

// RetryConfig is the policy knob for TransportWithRetry: exponential backoff
// between attempts, bounded by MaxBackoff. The protocol layer itself never
// retries; retry is always this wrapper's doing.
type RetryConfig struct {
	// MaxAttempts counts every try including the first (<= 1 disables retry)
	MaxAttempts int
	// InitialBackoff is the pause after the first failed attempt
	InitialBackoff time.Duration
	// MaxBackoff caps the growing pause
	MaxBackoff time.Duration
	// BackoffMultiplier grows the pause after each failed attempt
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the policy used when none is given
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}
}

// TransportWithRetry wraps a Transport with caller-side retry logic. The
// wrapped transport stays retry-free; this wrapper exists for applications
// that want transparent retries on transient wire errors.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// SendCommand sends a command with retry logic
func (t *TransportWithRetry) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext sends a command, retrying retryable failures until
// the attempt budget runs out or the context ends. Non-retryable errors and
// the final attempt's error pass through unchanged, so callers still see the
// sentinel they would get from the bare transport.
func (t *TransportWithRetry) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	backoff := t.config.InitialBackoff
	for attempt := 1; ; attempt++ {
		result, err := t.transport.SendCommandWithContext(ctx, cmd, args)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt >= t.config.MaxAttempts {
			return nil, err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * t.config.BackoffMultiplier)
		if backoff > t.config.MaxBackoff {
			backoff = t.config.MaxBackoff
		}
	}
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// SetTimeout sets the read timeout for the transport
func (t *TransportWithRetry) SetTimeout(timeout time.Duration) error {
	if err := t.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on underlying transport: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetBaudRate forwards to the underlying transport when it supports it
func (t *TransportWithRetry) SetBaudRate(baudRate int) error {
	if bs, ok := t.transport.(BaudRateSetter); ok {
		return bs.SetBaudRate(baudRate)
	}
	return fmt.Errorf("%s transport: %w", t.transport.Type(), ErrDeviceNotSupported)
}

// BaudRate returns the underlying transport's rate, or 0 when fixed
func (t *TransportWithRetry) BaudRate() int {
	if bs, ok := t.transport.(BaudRateSetter); ok {
		return bs.BaudRate()
	}
	return 0
}

// WriteFrame forwards to the underlying transport when it supports it
func (t *TransportWithRetry) WriteFrame(data []byte) error {
	if fw, ok := t.transport.(FrameWriter); ok {
		return fw.WriteFrame(data)
	}
	return fmt.Errorf("%s transport: %w", t.transport.Type(), ErrDeviceNotSupported)
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}

// MockHandler computes a mock response for one command invocation
type MockHandler func(args []byte) ([]byte, error)

// MockTransport provides a mock implementation of Transport for testing
type MockTransport struct {
	responses map[byte][]byte
	handlers  map[byte]MockHandler
	callCount map[byte]int
	errorMap  map[byte]error
	frames    [][]byte
	timeouts  []time.Duration
	baudRate  int
	timeout   time.Duration
	delay     time.Duration
	mu        syncutil.RWMutex
	connected bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected: true,
		timeout:   time.Second,
		baudRate:  115200,
		responses: make(map[byte][]byte),
		handlers:  make(map[byte]MockHandler),
		callCount: make(map[byte]int),
		errorMap:  make(map[byte]error),
	}
}

// SendCommand implements Transport interface
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return m.SendCommandWithContext(context.Background(), cmd, args)
}

// SendCommandWithContext implements Transport interface with context support
func (m *MockTransport) SendCommandWithContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	connected := m.connected
	delay := m.delay
	m.mu.RUnlock()

	if !connected {
		return nil, errors.New("transport not connected")
	}

	// Simulate hardware delay if configured with context awareness
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.callCount[cmd]++

	if err, exists := m.errorMap[cmd]; exists {
		m.mu.Unlock()
		return nil, err
	}

	if handler, exists := m.handlers[cmd]; exists {
		m.mu.Unlock()
		return handler(args)
	}

	if response, exists := m.responses[cmd]; exists {
		m.mu.Unlock()
		return response, nil
	}
	m.mu.Unlock()

	// Default response: response code plus a success status byte
	return []byte{cmd + 1, 0x00}, nil
}

// Close implements Transport interface
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

// SetTimeout implements Transport interface
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	m.timeout = timeout
	m.timeouts = append(m.timeouts, timeout)
	m.mu.Unlock()
	return nil
}

// IsConnected implements Transport interface
func (m *MockTransport) IsConnected() bool {
	m.mu.RLock()
	connected := m.connected
	m.mu.RUnlock()
	return connected
}

// Type implements Transport interface
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// SetBaudRate implements BaudRateSetter
func (m *MockTransport) SetBaudRate(baudRate int) error {
	m.mu.Lock()
	m.baudRate = baudRate
	m.mu.Unlock()
	return nil
}

// BaudRate implements BaudRateSetter
func (m *MockTransport) BaudRate() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baudRate
}

// WriteFrame implements FrameWriter, recording the raw frame
func (m *MockTransport) WriteFrame(data []byte) error {
	m.mu.Lock()
	m.frames = append(m.frames, append([]byte(nil), data...))
	m.mu.Unlock()
	return nil
}

// Test helper methods

// SetResponse configures a canned response for a specific command
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	m.responses[cmd] = response
	m.mu.Unlock()
}

// SetHandler configures a response function for a specific command, for
// commands whose reply depends on the request payload (register access)
func (m *MockTransport) SetHandler(cmd byte, handler MockHandler) {
	m.mu.Lock()
	m.handlers[cmd] = handler
	m.mu.Unlock()
}

// SetError configures an error to be returned for a specific command
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	m.errorMap[cmd] = err
	m.mu.Unlock()
}

// ClearError removes error injection for a command
func (m *MockTransport) ClearError(cmd byte) {
	m.mu.Lock()
	delete(m.errorMap, cmd)
	m.mu.Unlock()
}

// SetDelay configures a delay to simulate hardware response time
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	m.delay = delay
	m.mu.Unlock()
}

// GetCallCount returns how many times a command was called
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.RLock()
	count := m.callCount[cmd]
	m.mu.RUnlock()
	return count
}

// TotalCalls returns how many commands were sent in total
func (m *MockTransport) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.callCount {
		total += n
	}
	return total
}

// Timeouts returns every value passed to SetTimeout, in order
func (m *MockTransport) Timeouts() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	timeouts := make([]time.Duration, len(m.timeouts))
	copy(timeouts, m.timeouts)
	return timeouts
}

// WrittenFrames returns the raw frames recorded by WriteFrame
func (m *MockTransport) WrittenFrames() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	frames := make([][]byte, len(m.frames))
	copy(frames, m.frames)
	return frames
}

// Reset clears all call counts and resets state
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.callCount = make(map[byte]int)
	m.frames = nil
	m.timeouts = nil
	m.connected = true
	m.mu.Unlock()
}
