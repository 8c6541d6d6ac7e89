//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/darkroom"
)

var (
	sharedMu     sync.Mutex
	sharedDevice core.DeviceID
	sharedQueue  core.QueueID
)

// SetDeviceProvider configures the backend to execute on a shared GPU
// device from an external provider (for example a gogpu application that
// already owns one) instead of creating its own instance and device.
//
// The provider must also implement WGPUDevice() any and WGPUQueue() any,
// returning the wgpu core device and queue IDs. Call this before the
// renderer opens the backend; backends already open keep their own device.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type coreProvider interface {
		WGPUDevice() any
		WGPUQueue() any
	}
	cp, ok := provider.(coreProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose wgpu core IDs")
	}
	deviceID, ok := cp.WGPUDevice().(core.DeviceID)
	if !ok || deviceID.IsZero() {
		return fmt.Errorf("wgpu: provider device is not a core.DeviceID")
	}
	queueID, ok := cp.WGPUQueue().(core.QueueID)
	if !ok || queueID.IsZero() {
		return fmt.Errorf("wgpu: provider queue is not a core.QueueID")
	}

	sharedMu.Lock()
	sharedDevice = deviceID
	sharedQueue = queueID
	sharedMu.Unlock()

	darkroom.Logger().Info("wgpu backend will use shared GPU device")
	return nil
}

// sharedIDs returns the externally provided device and queue, if any.
func sharedIDs() (core.DeviceID, core.QueueID, bool) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedDevice, sharedQueue, !sharedDevice.IsZero()
}
