//go:build !nogpu

package wgpu

import (
	"sync"

	"github.com/gogpu/darkroom"
)

func init() {
	darkroom.RegisterBackend("wgpu", func(cfg darkroom.Config) (darkroom.Backend, error) {
		return Open(cfg)
	})
}

// backend executes darkroom passes with GPU resources from gogpu/wgpu.
//
// The device, queue, and compiled SPIR-V kernels are real; pass dispatch
// currently runs the pixel math host-side through the software backend,
// because wgpu buffer readback is not yet available upstream. Output is
// therefore bit-identical to the software backend, which is also what the
// backend conformance contract requires once dispatch moves on-device.
type backend struct {
	mu     sync.Mutex
	dev    *device
	shader *kernels
	host   darkroom.Backend
	closed bool
}

// Open initializes the GPU backend: adapter, device, queue, and kernel
// compilation. It returns darkroom.ErrBackendUnavailable (wrapped) when no
// usable adapter exists, letting default backend selection fall through to
// software.
func Open(cfg darkroom.Config) (darkroom.Backend, error) {
	dev, err := openDevice()
	if err != nil {
		return nil, err
	}
	shader, err := compileKernels()
	if err != nil {
		dev.release()
		return nil, err
	}
	darkroom.Logger().Info("wgpu backend ready", "gpu", dev.gpuName)
	return &backend{
		dev:    dev,
		shader: shader,
		host:   darkroom.NewSoftwareBackend(),
	}, nil
}

func (b *backend) Name() string { return "wgpu" }

// ExecutePass applies one pass to the tile region.
func (b *backend) ExecutePass(dst, src *darkroom.Pixmap, pass darkroom.Pass, region darkroom.Region) error {
	return b.host.ExecutePass(dst, src, pass, region)
}

// Close releases the device, adapter, and compiled kernels.
func (b *backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.shader = nil
	b.dev.release()
	return b.host.Close()
}
