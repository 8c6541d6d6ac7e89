package tile

// Grid partitions an image into core-sized tiles with a uniform halo
// demand. Edge tiles have reduced core dimensions when the image is not
// evenly divisible by the core size, and reduced halo where the halo would
// cross the image boundary.
//
// The halo is recomputed by the caller whenever the compiled pass list
// changes; a Grid is cheap to rebuild and carries no pixel data.
type Grid struct {
	tiles    []Tile
	tilesX   int
	tilesY   int
	width    int
	height   int
	coreSize int
	halo     int
}

// NewGrid creates a grid covering width x height with the given core tile
// size and halo demand. A halo of 0 produces butt-joined tiles.
func NewGrid(width, height, coreSize, halo int) *Grid {
	if width <= 0 || height <= 0 || coreSize <= 0 {
		return &Grid{coreSize: coreSize, halo: halo}
	}
	if halo < 0 {
		halo = 0
	}

	tilesX := (width + coreSize - 1) / coreSize
	tilesY := (height + coreSize - 1) / coreSize

	g := &Grid{
		tiles:    make([]Tile, 0, tilesX*tilesY),
		tilesX:   tilesX,
		tilesY:   tilesY,
		width:    width,
		height:   height,
		coreSize: coreSize,
		halo:     halo,
	}

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x := tx * coreSize
			y := ty * coreSize

			coreW := coreSize
			if x+coreW > width {
				coreW = width - x
			}
			coreH := coreSize
			if y+coreH > height {
				coreH = height - y
			}

			t := Tile{
				ID:    ty*tilesX + tx,
				X:     x,
				Y:     y,
				CoreW: coreW,
				CoreH: coreH,
			}

			// Clamp halo to the image boundary on each side.
			t.HaloLeft = minInt(halo, x)
			t.HaloTop = minInt(halo, y)
			t.HaloRight = minInt(halo, width-(x+coreW))
			t.HaloBottom = minInt(halo, height-(y+coreH))

			g.tiles = append(g.tiles, t)
		}
	}

	return g
}

// Tiles returns all tiles in row-major order.
// The returned slice must not be modified.
func (g *Grid) Tiles() []Tile {
	return g.tiles
}

// Len returns the number of tiles.
func (g *Grid) Len() int {
	return len(g.tiles)
}

// TileAt returns the tile at grid coordinates (tx, ty) and true, or a zero
// Tile and false when out of bounds.
func (g *Grid) TileAt(tx, ty int) (Tile, bool) {
	if tx < 0 || tx >= g.tilesX || ty < 0 || ty >= g.tilesY {
		return Tile{}, false
	}
	return g.tiles[ty*g.tilesX+tx], true
}

// TilesX returns the number of tile columns.
func (g *Grid) TilesX() int { return g.tilesX }

// TilesY returns the number of tile rows.
func (g *Grid) TilesY() int { return g.tilesY }

// Width returns the covered image width.
func (g *Grid) Width() int { return g.width }

// Height returns the covered image height.
func (g *Grid) Height() int { return g.height }

// CoreSize returns the core tile edge length.
func (g *Grid) CoreSize() int { return g.coreSize }

// Halo returns the halo demand the grid was built with.
func (g *Grid) Halo() int { return g.halo }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
