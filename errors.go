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
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Error categories for error handling and caller-side retry logic.
// The library itself never retries: every failure is surfaced to the caller,
// which owns the retry policy.
var (
	// Transport errors - potentially retryable by the caller
	ErrTransportTimeout  = errors.New("transport timeout")
	ErrTransportWrite    = errors.New("transport write failed")
	ErrTransportRead     = errors.New("transport read failed")
	ErrTransportClosed   = errors.New("transport is closed")
	ErrTransportNotReady = errors.New("transport not ready")

	// Communication errors - potentially retryable by the caller
	ErrCommunicationFailed = errors.New("communication failed")
	ErrNoACK               = errors.New("no ACK received")
	ErrNACKReceived        = errors.New("NACK received")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrChecksumMismatch    = errors.New("checksum mismatch")

	// Device errors - generally not retryable
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceNotSupported = errors.New("device not supported")
	ErrCommandFailed      = errors.New("command execution failed")
	ErrInvalidResponse    = errors.New("invalid response format")

	// Protocol errors surfaced by the command layer
	ErrTimeout           = errors.New("operation timeout")
	ErrTransmission      = errors.New("transmission error")
	ErrListenUnsupported = errors.New("listen role not supported")

	// Data errors - not retryable
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType represents the category of error for caller retry decisions
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error (special handling)
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PN532Error is a chip-reported error: a nonzero status byte embedded in a
// command reply. It carries the numeric code, its catalog description and the
// full reply body for diagnostics. It is always surfaced, never swallowed.
type PN532Error struct {
	Command   string // Catalog name of the command that failed
	Context   string // Optional free-form context
	Response  []byte // Full reply body, status byte included
	ErrorCode byte
}

func (e *PN532Error) Error() string {
	base := fmt.Sprintf("%s error 0x%02X (%s)", e.Command, e.ErrorCode, ErrorCodeMeaning(e.ErrorCode))
	if e.Context != "" {
		base += ": " + e.Context
	}
	return base
}

// IsTimeoutError returns true if the chip reported an RF timeout
func (e *PN532Error) IsTimeoutError() bool {
	return e.ErrorCode == 0x01
}

// IsAuthenticationError returns true if the error is authentication-related
func (e *PN532Error) IsAuthenticationError() bool {
	return e.ErrorCode == 0x14
}

// errorCodeMeanings is the status-byte catalog (PN532 User Manual section 7.1).
// The descriptions are diagnostics only; the numeric code is authoritative.
var errorCodeMeanings = map[byte]string{
	0x00: "success",
	0x01: "time out, the target has not answered",
	0x02: "checksum error during RF communication",
	0x03: "parity error during RF communication",
	0x04: "erroneous bit count in anticollision",
	0x05: "framing error during Mifare operation",
	0x06: "abnormal bit collision in 106 kbps anticollision",
	0x07: "insufficient communication buffer size",
	0x09: "RF buffer overflow detected by CIU",
	0x0A: "RF field not activated in time by active mode peer",
	0x0B: "protocol error during RF communication",
	0x0D: "overheated - antenna drivers deactivated",
	0x0E: "internal buffer overflow",
	0x10: "invalid command parameter",
	0x12: "unsupported command from initiator",
	0x13: "format error during RF communication",
	0x14: "Mifare authentication error",
	0x23: "ISO/IEC14443-3 UID check byte is wrong",
	0x25: "command invalid in current DEP state",
	0x26: "operation not allowed in this configuration",
	0x27: "command is not acceptable in the current context",
	0x29: "released by initiator while operating as target",
	0x2A: "ISO/IEC14443-3B, the ID of the card does not match",
	0x2B: "ISO/IEC14443-3B, card previously activated has disappeared",
	0x2C: "NFCID3i and NFCID3t mismatch in DEP 212/424 kbps passive",
	0x2D: "an over-current event has been detected",
	0x2E: "NAD missing in DEP frame",
	0x7F: "invalid command syntax - received error frame",
	0xFF: "insufficient data received from executing chip command",
}

// ErrorCodeMeaning returns a human-readable meaning for a PN532 status byte.
// Unknown codes yield a generic description rather than failing.
func ErrorCodeMeaning(code byte) string {
	if m, ok := errorCodeMeanings[code]; ok {
		return m
	}
	return "unknown error"
}

// newChipError builds a PN532Error from a reply body whose first byte is a
// nonzero status code.
func newChipError(cmd byte, body []byte) *PN532Error {
	e := &PN532Error{
		Command:  CommandName(cmd),
		Response: append([]byte(nil), body...),
	}
	if len(body) > 0 {
		e.ErrorCode = body[0]
	}
	return e
}

// IsRetryable returns true if the error is potentially retryable by the caller
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	var pe *PN532Error
	if errors.As(err, &pe) {
		// RF timeouts and authentication errors may clear on a re-poll;
		// syntax and configuration errors will not.
		return pe.IsTimeoutError() || pe.IsAuthenticationError()
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the device or connection is gone
// and the session should end. Distinct from IsRetryable, which classifies a
// single failed operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, ErrDeviceNotSupported),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// isDeviceGoneError checks for OS-level errors indicating device disconnection.
// These occur when a USB adapter is unplugged during I/O.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only device-gone errno values are of interest
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}

