// Package wgpu provides the GPU execution backend for darkroom using
// gogpu/wgpu.
//
// Importing the package registers the backend under the name "wgpu":
//
//	import _ "github.com/gogpu/darkroom/backend/wgpu"
//
// Initialization requests a high-performance adapter, creates a device and
// queue, and compiles the WGSL pass kernels through naga. On machines
// without a usable adapter the backend reports itself unavailable and the
// renderer falls back to the software backend.
//
// Build with the "nogpu" tag to compile the package out entirely.
package wgpu
