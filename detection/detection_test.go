// go-regbridge
// Copyright (c) 2025 The go-regbridge Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-regbridge.
//
// go-regbridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-regbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-regbridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	err     error
	family  string
	devices []DeviceInfo
	wait    bool
}

func (s *stubDetector) Transport() string { return s.family }

func (s *stubDetector) Detect(ctx context.Context, _ *Options) ([]DeviceInfo, error) {
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.devices, s.err
}

// withRegistry swaps the global registry for the duration of a test.
func withRegistry(t *testing.T, detectors ...Detector) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = nil
	registryMu.Unlock()

	for _, d := range detectors {
		RegisterDetector(d)
	}

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

//nolint:paralleltest // mutates the global detector registry
func TestDetectAll_CollectsAndSkipsFailures(t *testing.T) {
	withRegistry(t,
		&stubDetector{family: "a", devices: []DeviceInfo{{Transport: "a", Path: "/dev/ttyACM0"}}},
		&stubDetector{family: "b", err: errors.New("enumeration failed")},
		&stubDetector{family: "c", err: ErrNoDevicesFound},
		&stubDetector{family: "d", devices: []DeviceInfo{{Transport: "d", Path: "COM7"}}},
	)

	devices, err := DetectAll(&Options{Mode: Passive})
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "/dev/ttyACM0", devices[0].Path)
	assert.Equal(t, "COM7", devices[1].Path)
}

//nolint:paralleltest // mutates the global detector registry
func TestDetectAll_NoDevices(t *testing.T) {
	withRegistry(t, &stubDetector{family: "a", err: ErrNoDevicesFound})

	_, err := DetectAll(nil)
	assert.ErrorIs(t, err, ErrNoDevicesFound)
}

//nolint:paralleltest // mutates the global detector registry
func TestDetectAll_Timeout(t *testing.T) {
	withRegistry(t, &stubDetector{family: "slow", wait: true})

	_, err := DetectAllContext(context.Background(), &Options{Timeout: 10 * time.Millisecond})
	require.ErrorIs(t, err, ErrDetectionTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfidence_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "low", Low.String())
	assert.Equal(t, "medium", Medium.String())
	assert.Equal(t, "high", High.String())
}
