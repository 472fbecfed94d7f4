// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ngl/backend"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (window system, engine shell) owns the device and queue and
// hands them over; this package never creates its own. DeviceHandle is
// an alias for gpucontext.DeviceProvider so hosts already integrated
// with the gpucontext ecosystem plug in directly.
type DeviceHandle = gpucontext.DeviceProvider

// FromProvider builds an adapter from a host device provider. The
// provider's device and queue must be backed by gogpu/wgpu/hal.
func FromProvider(h DeviceHandle) (*Adapter, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil device provider", backend.ErrBackendNotAvailable)
	}
	device, ok := h.Device().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider device is not a hal device", backend.ErrBackendNotAvailable)
	}
	queue, ok := h.Queue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider queue is not a hal queue", backend.ErrBackendNotAvailable)
	}
	return NewAdapter(device, queue), nil
}

// NullDeviceHandle is a DeviceHandle with no device. Useful in tests
// that only need the interface satisfied.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero adapter metadata for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
