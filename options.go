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
	"time"
)

// Option configures a Device during New
type Option func(*Device) error

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(log Logger) Option {
	return func(d *Device) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}
		d.log = log
		return nil
	}
}

// WithTimeout sets the default operation timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		d.config.Timeout = timeout
		return nil
	}
}

// WithRetryConfig wraps the transport in a TransportWithRetry using the
// given policy. Without this option the device never retries on its own.
func WithRetryConfig(config *RetryConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return errors.New("retry config cannot be nil")
		}
		d.config.RetryConfig = config
		d.transport = NewTransportWithRetry(d.transport, config)
		return nil
	}
}

// WithCloseWakeupSources overrides the wakeup sources armed by Close.
// An empty set leaves the chip unable to wake until a hard reset.
func WithCloseWakeupSources(sources ...WakeupSource) Option {
	return func(d *Device) error {
		d.config.CloseWakeup = sources
		return nil
	}
}

// WithDiscovery installs a custom discovery implementation behind the
// Sense/Listen facade. The default drives the chip directly.
func WithDiscovery(discovery Discovery) Option {
	return func(d *Device) error {
		if discovery == nil {
			return errors.New("discovery cannot be nil")
		}
		d.discovery = discovery
		return nil
	}
}
