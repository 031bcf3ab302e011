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

package uart

import (
	"fmt"

	pn532 "github.com/gaitQ/go-pn532"
	"golang.org/x/sys/unix"
)

// validatePort rejects paths that are not character devices before the
// serial library opens them. Opening a regular file "succeeds" and then
// fails confusingly on the first read; failing early names the real problem.
func validatePort(portName string) error {
	var st unix.Stat_t
	if err := unix.Stat(portName, &st); err != nil {
		return &pn532.TransportError{
			Op: "open", Port: portName,
			Err:  fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err),
			Type: pn532.ErrorTypePermanent,
		}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return &pn532.TransportError{
			Op: "open", Port: portName,
			Err:  fmt.Errorf("%w: not a character device", pn532.ErrDeviceNotSupported),
			Type: pn532.ErrorTypePermanent,
		}
	}
	return nil
}
