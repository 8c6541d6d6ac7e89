package tile

import "testing"

func TestNewGridCoversImage(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		core, halo int
		wantTiles  int
	}{
		{"single tile exact", 512, 512, 512, 0, 1},
		{"single tile smaller", 100, 80, 512, 16, 1},
		{"2x2", 1000, 900, 512, 8, 4},
		{"uneven 3x2", 1300, 700, 512, 8, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(tt.w, tt.h, tt.core, tt.halo)
			if g.Len() != tt.wantTiles {
				t.Fatalf("Len() = %d, want %d", g.Len(), tt.wantTiles)
			}

			// Every pixel belongs to exactly one core.
			covered := make([]bool, tt.w*tt.h)
			for _, tl := range g.Tiles() {
				for y := tl.Y; y < tl.Y+tl.CoreH; y++ {
					for x := tl.X; x < tl.X+tl.CoreW; x++ {
						i := y*tt.w + x
						if covered[i] {
							t.Fatalf("pixel (%d,%d) covered twice", x, y)
						}
						covered[i] = true
					}
				}
			}
			for i, c := range covered {
				if !c {
					t.Fatalf("pixel %d not covered by any core", i)
				}
			}
		})
	}
}

func TestGridHaloClampedAtEdges(t *testing.T) {
	g := NewGrid(1000, 1000, 512, 32)

	tl, ok := g.TileAt(0, 0)
	if !ok {
		t.Fatal("missing tile (0,0)")
	}
	if tl.HaloLeft != 0 || tl.HaloTop != 0 {
		t.Errorf("corner tile has left/top halo %d/%d, want 0/0", tl.HaloLeft, tl.HaloTop)
	}
	if tl.HaloRight != 32 || tl.HaloBottom != 32 {
		t.Errorf("corner tile has right/bottom halo %d/%d, want 32/32", tl.HaloRight, tl.HaloBottom)
	}

	br, ok := g.TileAt(1, 1)
	if !ok {
		t.Fatal("missing tile (1,1)")
	}
	if br.CoreW != 488 || br.CoreH != 488 {
		t.Errorf("edge tile core = %dx%d, want 488x488", br.CoreW, br.CoreH)
	}
	if br.HaloRight != 0 || br.HaloBottom != 0 {
		t.Errorf("edge tile has right/bottom halo %d/%d, want 0/0", br.HaloRight, br.HaloBottom)
	}
	if br.HaloLeft != 32 || br.HaloTop != 32 {
		t.Errorf("edge tile has left/top halo %d/%d, want 32/32", br.HaloLeft, br.HaloTop)
	}
}

func TestTileOuterGeometry(t *testing.T) {
	tl := Tile{ID: 3, X: 512, Y: 512, CoreW: 512, CoreH: 400, HaloLeft: 16, HaloTop: 16, HaloRight: 8, HaloBottom: 0}

	if tl.OuterX() != 496 || tl.OuterY() != 496 {
		t.Errorf("outer origin = (%d,%d), want (496,496)", tl.OuterX(), tl.OuterY())
	}
	if tl.OuterW() != 536 || tl.OuterH() != 416 {
		t.Errorf("outer size = %dx%d, want 536x416", tl.OuterW(), tl.OuterH())
	}
	if tl.CoreOffsetX() != 16 || tl.CoreOffsetY() != 16 {
		t.Errorf("core offset = (%d,%d), want (16,16)", tl.CoreOffsetX(), tl.CoreOffsetY())
	}

	if !tl.Contains(512, 512) || !tl.Contains(1023, 911) {
		t.Error("Contains rejected core pixels")
	}
	if tl.Contains(511, 512) || tl.Contains(512, 912) {
		t.Error("Contains accepted pixels outside the core")
	}
}

func TestNewGridDegenerate(t *testing.T) {
	g := NewGrid(0, 100, 512, 8)
	if g.Len() != 0 {
		t.Errorf("zero-width grid has %d tiles, want 0", g.Len())
	}
}
