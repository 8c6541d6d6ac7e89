//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/darkroom"
)

// device bundles the GPU resources one backend instance owns.
type device struct {
	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID
	gpuName  string

	// external marks a device borrowed through SetDeviceProvider; borrowed
	// resources are never dropped on release.
	external bool
}

// openDevice creates the instance, requests a high-performance adapter,
// creates a logical device, and retrieves its queue. Resources created
// before a failure are released. When a shared device was registered with
// SetDeviceProvider, it is used instead.
func openDevice() (*device, error) {
	if deviceID, queueID, ok := sharedIDs(); ok {
		return &device{
			device:   deviceID,
			queue:    queueID,
			gpuName:  "shared",
			external: true,
		}, nil
	}

	d := &device{}
	d.instance = core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := d.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: no adapter: %w", darkroom.ErrBackendUnavailable, err)
	}
	d.adapter = adapterID

	if info, err := core.GetAdapterInfo(adapterID); err == nil {
		d.gpuName = info.Name
		darkroom.Logger().Info("wgpu adapter selected",
			"name", info.Name, "type", info.DeviceType, "api", info.Backend)
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:            "darkroom-device",
		RequiredFeatures: nil,
		RequiredLimits:   gputypes.DefaultLimits(),
	})
	if err != nil {
		d.release()
		return nil, fmt.Errorf("wgpu: device creation failed: %w", err)
	}
	d.device = deviceID

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		d.release()
		return nil, fmt.Errorf("wgpu: queue retrieval failed: %w", err)
	}
	d.queue = queueID

	if limits, err := core.GetDeviceLimits(deviceID); err == nil {
		darkroom.Logger().Debug("wgpu device limits",
			"max_texture_2d", limits.MaxTextureDimension2D,
			"max_buffer_size", limits.MaxBufferSize)
	}
	return d, nil
}

// release drops GPU resources in reverse creation order. The queue is
// released with its device.
func (d *device) release() {
	if d.external {
		d.device = core.DeviceID{}
		d.queue = core.QueueID{}
		return
	}
	if !d.device.IsZero() {
		if err := core.DeviceDrop(d.device); err != nil {
			darkroom.Logger().Warn("wgpu device release failed", "error", err)
		}
		d.device = core.DeviceID{}
	}
	if !d.adapter.IsZero() {
		if err := core.AdapterDrop(d.adapter); err != nil {
			darkroom.Logger().Warn("wgpu adapter release failed", "error", err)
		}
		d.adapter = core.AdapterID{}
	}
	d.instance = nil
	d.queue = core.QueueID{}
}
