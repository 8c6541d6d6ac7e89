//go:build !nogpu

package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/darkroom"
)

// Embedded WGSL kernel sources, compiled to SPIR-V through naga at backend
// initialization.

//go:embed shaders/adjust.wgsl
var adjustShaderWGSL string

//go:embed shaders/blur.wgsl
var blurShaderWGSL string

//go:embed shaders/blend.wgsl
var blendShaderWGSL string

// kernels holds the compiled SPIR-V for every pass kernel.
type kernels struct {
	adjust []byte
	blur   []byte
	blend  []byte
}

// compileKernels translates all WGSL kernels to SPIR-V. A compilation
// failure names the failing kernel; it indicates a toolchain or driver
// problem, not bad user input, so it fails backend initialization rather
// than individual renders.
func compileKernels() (*kernels, error) {
	k := &kernels{}
	for _, s := range []struct {
		name string
		wgsl string
		out  *[]byte
	}{
		{"adjust", adjustShaderWGSL, &k.adjust},
		{"blur", blurShaderWGSL, &k.blur},
		{"blend", blendShaderWGSL, &k.blend},
	} {
		spirv, err := naga.Compile(s.wgsl)
		if err != nil {
			return nil, fmt.Errorf("%w: kernel %q: %w", darkroom.ErrShaderCompile, s.name, err)
		}
		*s.out = spirv
	}
	return k, nil
}
