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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        4 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestTransportWithRetryStopsAtAttemptBudget(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetError(cmdGetFirmwareVersion, &TransportError{
		Op: "send", Err: ErrNoACK,
		Type: ErrorTypeTransient, Retryable: true,
	})
	wrapped := NewTransportWithRetry(mock, fastRetryConfig(3))

	_, err := wrapped.SendCommand(cmdGetFirmwareVersion, nil)
	require.ErrorIs(t, err, ErrNoACK)
	assert.Equal(t, 3, mock.GetCallCount(cmdGetFirmwareVersion))
}

func TestTransportWithRetryPermanentErrorPassesThrough(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetError(cmdGetFirmwareVersion, &TransportError{
		Op: "send", Err: ErrFrameCorrupted,
		Type: ErrorTypePermanent,
	})
	wrapped := NewTransportWithRetry(mock, fastRetryConfig(5))

	_, err := wrapped.SendCommand(cmdGetFirmwareVersion, nil)
	require.ErrorIs(t, err, ErrFrameCorrupted)
	assert.Equal(t, 1, mock.GetCallCount(cmdGetFirmwareVersion))
}

func TestTransportWithRetryCancelledBetweenAttempts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first attempt cancels the context, so the backoff wait must end
	// immediately instead of sitting out the hour
	mock := NewMockTransport()
	mock.SetHandler(cmdGetFirmwareVersion, func(_ []byte) ([]byte, error) {
		cancel()
		return nil, &TransportError{
			Op: "send", Err: ErrNoACK,
			Type: ErrorTypeTransient, Retryable: true,
		}
	})
	wrapped := NewTransportWithRetry(mock, &RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 2.0,
	})

	start := time.Now()
	_, err := wrapped.SendCommandWithContext(ctx, cmdGetFirmwareVersion, nil)
	// The attempt's own error comes back, not a bare context error
	require.ErrorIs(t, err, ErrNoACK)
	assert.Equal(t, 1, mock.GetCallCount(cmdGetFirmwareVersion))
	assert.Less(t, time.Since(start), time.Minute)
}

func TestTransportWithRetryForwardsCapabilities(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	wrapped := NewTransportWithRetry(mock, nil)

	require.NoError(t, wrapped.SetBaudRate(230400))
	assert.Equal(t, 230400, wrapped.BaudRate())

	require.NoError(t, wrapped.WriteFrame([]byte{0x55, 0x55}))
	require.Len(t, mock.WrittenFrames(), 1)
	assert.Equal(t, []byte{0x55, 0x55}, mock.WrittenFrames()[0])

	assert.Equal(t, TransportMock, wrapped.Type())
	assert.True(t, wrapped.IsConnected())
}
