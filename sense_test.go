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

package pn532_test

import (
	"context"
	"testing"
	"time"

	pn532 "github.com/gaitQ/go-pn532"
	"github.com/gaitQ/go-pn532/internal/chiptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenPassiveRolesUnsupported(t *testing.T) {
	t.Parallel()

	mock := pn532.NewMockTransport()
	dev, err := pn532.New(mock)
	require.NoError(t, err)

	ctx := context.Background()
	listens := map[string]func() (*pn532.Target, error){
		"tta": func() (*pn532.Target, error) { return dev.ListenTTA(ctx, time.Second) },
		"ttb": func() (*pn532.Target, error) { return dev.ListenTTB(ctx, time.Second) },
		"ttf": func() (*pn532.Target, error) { return dev.ListenTTF(ctx, time.Second) },
	}
	for name, listen := range listens {
		target, err := listen()
		require.ErrorIsf(t, err, pn532.ErrListenUnsupported, "listen %s", name)
		assert.Nilf(t, target, "listen %s", name)
	}

	// The refusal is local: no bytes may reach the chip
	assert.Zero(t, mock.TotalCalls())
	assert.Empty(t, mock.WrittenFrames())
}

func TestSensePassiveEmptyField(t *testing.T) {
	t.Parallel()

	chip := chiptest.New()
	dev, err := pn532.New(chip)
	require.NoError(t, err)

	target, err := dev.SenseTTA(context.Background())
	require.NoError(t, err)
	assert.Nil(t, target)
	assert.Equal(t, []byte{0x4A}, chip.Commands())
}

func TestSensePassiveEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sense func(*pn532.Device) (*pn532.Target, error)
		name  string
		want  []byte
	}{
		{
			name:  "tta",
			sense: func(d *pn532.Device) (*pn532.Target, error) { return d.SenseTTA(context.Background()) },
			want:  []byte{0x01, 0x00},
		},
		{
			name:  "ttb",
			sense: func(d *pn532.Device) (*pn532.Target, error) { return d.SenseTTB(context.Background()) },
			want:  []byte{0x01, 0x03, 0x00},
		},
		{
			name:  "ttf",
			sense: func(d *pn532.Device) (*pn532.Target, error) { return d.SenseTTF(context.Background()) },
			want:  []byte{0x01, 0x01, 0x00, 0xFF, 0xFF, 0x01, 0x00},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := pn532.NewMockTransport()
			dev, err := pn532.New(mock)
			require.NoError(t, err)

			var payload []byte
			mock.SetHandler(0x4A, func(args []byte) ([]byte, error) {
				payload = append([]byte(nil), args...)
				return []byte{0x4B, 0x00}, nil
			})

			target, err := tt.sense(dev)
			require.NoError(t, err)
			assert.Nil(t, target)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestSensePassiveFoundTarget(t *testing.T) {
	t.Parallel()

	mock := pn532.NewMockTransport()
	dev, err := pn532.New(mock)
	require.NoError(t, err)

	// One type A target: SENS_RES 0x0004, SEL_RES 0x08, 4 byte UID
	mock.SetResponse(0x4A, []byte{
		0x4B, 0x01, 0x01,
		0x00, 0x04, 0x08, 0x04, 0xDE, 0xAD, 0xBE, 0xEF,
	})

	target, err := dev.SenseTTA(context.Background())
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, byte(0x01), target.LogicalNumber)
	assert.Equal(t, byte(0x00), target.BrTy)
	assert.Equal(t, []byte{0x00, 0x04, 0x08, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}, target.TargetData)
}

func TestListenDEPActivation(t *testing.T) {
	t.Parallel()

	mock := pn532.NewMockTransport()
	dev, err := pn532.New(mock)
	require.NoError(t, err)

	mock.SetResponse(0x8C, []byte{0x8D, 0x05, 0xD4, 0x06, 0x00})

	target, err := dev.ListenDEP(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, []byte{0xD4, 0x06, 0x00}, target.TargetData)
}

func TestCustomDiscoveryInstalled(t *testing.T) {
	t.Parallel()

	mock := pn532.NewMockTransport()
	custom := &stubDiscovery{target: &pn532.Target{LogicalNumber: 7}}
	dev, err := pn532.New(mock, pn532.WithDiscovery(custom))
	require.NoError(t, err)

	target, err := dev.SenseTTA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(7), target.LogicalNumber)
	assert.Equal(t, byte(0x00), custom.lastParams.BrTy)

	target, err = dev.SenseTTB(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(7), target.LogicalNumber)
	assert.Equal(t, byte(0x03), custom.lastParams.BrTy)
	assert.Equal(t, byte(0x01), custom.lastParams.DID)

	// The facade only dispatches; the chip stays untouched
	assert.Zero(t, mock.TotalCalls())
}

type stubDiscovery struct {
	target     *pn532.Target
	lastParams pn532.SenseParams
}

func (s *stubDiscovery) SensePassive(_ context.Context, params pn532.SenseParams) (*pn532.Target, error) {
	s.lastParams = params
	return s.target, nil
}

func (s *stubDiscovery) SenseDEP(context.Context) (*pn532.Target, error) {
	return s.target, nil
}

func (s *stubDiscovery) ListenDEP(context.Context, time.Duration) (*pn532.Target, error) {
	return s.target, nil
}
