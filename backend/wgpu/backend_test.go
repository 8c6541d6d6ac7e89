//go:build !nogpu

package wgpu

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/edit"
)

func TestOpenAndExecute(t *testing.T) {
	b, err := Open(darkroom.DefaultConfig())
	if err != nil {
		t.Skipf("no usable GPU on this machine: %v", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if b.Name() != "wgpu" {
		t.Errorf("Name() = %q, want wgpu", b.Name())
	}

	// Output must match the software backend bit for bit.
	src := darkroom.NewPixmap(16, 16)
	src.Fill(0.25, 0.5, 0.75, 1)
	region := darkroom.Region{ImageW: 16, ImageH: 16}
	pass := darkroom.Pass{Group: edit.NewGlobalGroup(edit.Exposure{EV: 1})}

	got := darkroom.NewPixmap(16, 16)
	if err := b.ExecutePass(got, src, pass, region); err != nil {
		t.Fatalf("ExecutePass() error = %v", err)
	}

	want := darkroom.NewPixmap(16, 16)
	sw := darkroom.NewSoftwareBackend()
	if err := sw.ExecutePass(want, src, pass, region); err != nil {
		t.Fatal(err)
	}
	for i := range got.Data() {
		if got.Data()[i] != want.Data()[i] {
			t.Fatalf("sample %d = %v, want %v (software parity)", i, got.Data()[i], want.Data()[i])
		}
	}
}

// bareProvider implements gpucontext.DeviceProvider but does not expose
// wgpu core IDs.
type bareProvider struct{}

func (bareProvider) Device() gpucontext.Device             { return nil }
func (bareProvider) Queue() gpucontext.Queue               { return nil }
func (bareProvider) Adapter() gpucontext.Adapter           { return nil }
func (bareProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (bareProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestSetDeviceProviderRequiresCoreIDs(t *testing.T) {
	if err := SetDeviceProvider(bareProvider{}); err == nil {
		t.Error("provider without wgpu core IDs accepted")
	}
}

func TestKernelSourcesPresent(t *testing.T) {
	for name, src := range map[string]string{
		"adjust": adjustShaderWGSL,
		"blur":   blurShaderWGSL,
		"blend":  blendShaderWGSL,
	} {
		if src == "" {
			t.Errorf("kernel %q source is empty", name)
		}
	}
}
