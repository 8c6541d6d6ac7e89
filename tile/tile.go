// Package tile partitions an image into GPU-sized tiles with halo overlap
// and reassembles tile outputs into one logical image.
//
// Each tile has a core region, which is the only part copied into the
// reassembled output, and a halo margin on every side sized to the total
// spatial reach of the active pass list. Halo pixels are working state:
// they give convolutions correct input at tile boundaries and are never
// user-visible. Tiles at image edges clamp their halo to the image boundary
// (no wraparound).
//
// Thread safety: a Grid is immutable after construction and safe for
// concurrent reads.
package tile

// Tile describes one rectangular processing region.
//
// Core coordinates are in image space. The outer region (core plus the
// clamped halo margins) is what a pass executor actually processes; only
// the core lands in the output.
type Tile struct {
	// ID is the tile's index in its grid, row-major.
	ID int

	// X, Y is the core origin in image space.
	X, Y int

	// CoreW, CoreH is the core size. Edge tiles may be smaller than the
	// grid's core size.
	CoreW, CoreH int

	// HaloLeft, HaloTop, HaloRight, HaloBottom are the halo margins
	// actually available on each side after clamping to the image.
	HaloLeft, HaloTop, HaloRight, HaloBottom int
}

// OuterX returns the x origin of the tile's outer region in image space.
func (t Tile) OuterX() int { return t.X - t.HaloLeft }

// OuterY returns the y origin of the tile's outer region in image space.
func (t Tile) OuterY() int { return t.Y - t.HaloTop }

// OuterW returns the width of the outer region.
func (t Tile) OuterW() int { return t.HaloLeft + t.CoreW + t.HaloRight }

// OuterH returns the height of the outer region.
func (t Tile) OuterH() int { return t.HaloTop + t.CoreH + t.HaloBottom }

// CoreOffsetX returns the x offset of the core within the outer region.
func (t Tile) CoreOffsetX() int { return t.HaloLeft }

// CoreOffsetY returns the y offset of the core within the outer region.
func (t Tile) CoreOffsetY() int { return t.HaloTop }

// Contains reports whether the image-space pixel (px, py) is in the core.
func (t Tile) Contains(px, py int) bool {
	return px >= t.X && px < t.X+t.CoreW && py >= t.Y && py < t.Y+t.CoreH
}
