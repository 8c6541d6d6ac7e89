//go:build nogpu

package wgpu

// With the nogpu build tag the package compiles to nothing and registers
// no backend; the renderer's default selection uses software only.
