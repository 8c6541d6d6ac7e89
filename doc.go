// Package darkroom provides a non-destructive, tiled, cached photo
// adjustment pipeline for Go.
//
// # Overview
//
// darkroom takes a decoded pixel buffer plus an ordered stack of tonal,
// color, and masked local adjustments, and produces a composited preview or
// export buffer. Images are processed as a grid of tiles with halo overlap,
// so sources far larger than a single GPU texture allocation render
// seamlessly. Pass outputs are memoized in an LRU result cache keyed by
// image identity, adjustment-stack content, tile, and pass, so editing one
// slider recomputes only the affected suffix of the pipeline.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/darkroom"
//	    "github.com/gogpu/darkroom/decode"
//	    "github.com/gogpu/darkroom/edit"
//	)
//
//	img, _ := decode.File("photo.png")
//
//	state := edit.NewState()
//	state, _ = state.Append(edit.NewGlobalGroup(edit.Exposure{EV: 0.7}))
//
//	r, _ := darkroom.NewRenderer()
//	defer r.Close()
//
//	out, _ := r.Render(context.Background(), state, img)
//
// # Architecture
//
// The library is organized into:
//   - Root: Pixmap buffers, Image sources, the pipeline compiler and
//     executor, and the Renderer facade
//   - edit: adjustment model, serialization, history with undo/redo
//   - mask: mask expression trees and the feathering compositor
//   - tile, cache: tile scheduling and the result cache
//   - backend/wgpu: GPU execution backend (import for registration)
//   - decode, segment, lens: image loading, AI mask service client, and
//     the lens correction database
//
// # Working Space
//
// Pixel data is held as float32 RGBA in normalized [0, 1] working values.
// Intermediate buffers may carry extended-range values; they are clamped at
// the output conversion, not in between, so highlight detail survives
// multi-pass editing.
package darkroom

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
