package mask

import (
	"math"
	"testing"
)

func TestRasterizeFeatherZeroIdentity(t *testing.T) {
	// Feather radius 0 must be bit-identical to the unblurred mask.
	bm := NewBitmapPlane(16, 16)
	for i := range bm.Data {
		bm.Data[i] = float32(i%7) / 6
	}
	m := NewBitmap(bm)
	m.Feather = 0

	plane := Rasterize(m, 0, 0, 16, 16)

	for i := range plane {
		if plane[i] != bm.Data[i] {
			t.Fatalf("pixel %d changed: got %v, want bit-identical %v", i, plane[i], bm.Data[i])
		}
	}
}

func TestRasterizeCombineOps(t *testing.T) {
	// Two constant planes exercise each operator's per-pixel formula.
	plane := func(v float32) *Mask {
		b := NewBitmapPlane(2, 2)
		for i := range b.Data {
			b.Data[i] = v
		}
		return NewBitmap(b)
	}

	tests := []struct {
		name string
		m    *Mask
		want float32
	}{
		{"add clamps", Combine(OpAdd, plane(0.7), plane(0.6)), 1},
		{"add", Combine(OpAdd, plane(0.2), plane(0.3)), 0.5},
		{"subtract clamps", Combine(OpSubtract, plane(0.3), plane(0.6)), 0},
		{"subtract", Combine(OpSubtract, plane(0.8), plane(0.3)), 0.5},
		{"intersect", Combine(OpIntersect, plane(0.5), plane(0.5)), 0.25},
		{"invert", Combine(OpInvert, plane(0.2)), 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rasterize(tt.m, 0, 0, 2, 2)
			for i, v := range got {
				if math.Abs(float64(v-tt.want)) > 1e-6 {
					t.Fatalf("pixel %d = %v, want %v", i, v, tt.want)
				}
			}
		})
	}
}

func TestRasterizeFoldOrder(t *testing.T) {
	// Earlier mask ops apply first: (a add b) intersect c differs from
	// a add (b intersect c). The fold is strictly left to right within
	// one node's children.
	a := NewBitmapPlane(1, 1)
	a.Data[0] = 0.5
	b := NewBitmapPlane(1, 1)
	b.Data[0] = 0.5
	c := NewBitmapPlane(1, 1)
	c.Data[0] = 0.5

	// ((0.5 add 0.5) = 1) then nested intersect 0.5 = 0.5
	m := Combine(OpIntersect, Combine(OpAdd, NewBitmap(a), NewBitmap(b)), NewBitmap(c))
	got := Rasterize(m, 0, 0, 1, 1)
	if math.Abs(float64(got[0]-0.5)) > 1e-6 {
		t.Errorf("fold result = %v, want 0.5", got[0])
	}
}

func TestRasterizeLinearRamp(t *testing.T) {
	m := NewLinear(0, 0, 100, 0)
	plane := Rasterize(m, 0, 0, 100, 1)

	if plane[0] < 0.98 {
		t.Errorf("start weight = %v, want ~1", plane[0])
	}
	if plane[99] > 0.02 {
		t.Errorf("end weight = %v, want ~0", plane[99])
	}
	mid := plane[50]
	if math.Abs(float64(mid-0.5)) > 0.02 {
		t.Errorf("mid weight = %v, want ~0.5", mid)
	}
	// Monotone along the ramp.
	for i := 1; i < 100; i++ {
		if plane[i] > plane[i-1]+1e-6 {
			t.Fatalf("ramp not monotone at %d", i)
		}
	}
}

func TestRasterizeRadialFeatherBoundary(t *testing.T) {
	// radius=5 feather on a hard-edged circular mask: value at the
	// original boundary is ~0.5, saturating back to 0/1 at distance
	// > ~2x radius from the boundary.
	const size = 128
	const r = 40.0
	m := NewRadial(size/2, size/2, r, r)
	m.Feather = 5

	plane := Rasterize(m, 0, 0, size, size)

	// Sample along the +x axis from the center.
	row := plane[(size/2)*size:]

	boundary := row[size/2+int(r)]
	if math.Abs(float64(boundary-0.5)) > 0.1 {
		t.Errorf("weight at boundary = %v, want ~0.5", boundary)
	}

	inside := row[size/2+int(r)-11] // > 2x radius inside the boundary
	if inside < 0.999 {
		t.Errorf("weight 11px inside = %v, want saturated to 1", inside)
	}

	outside := row[size/2+int(r)+11]
	if outside > 0.001 {
		t.Errorf("weight 11px outside = %v, want saturated to 0", outside)
	}
}

func TestRasterizeOpacityScales(t *testing.T) {
	m := NewRadial(8, 8, 100, 100) // covers the whole window
	m.Opacity = 0.4

	plane := Rasterize(m, 0, 0, 16, 16)
	for i, v := range plane {
		if math.Abs(float64(v-0.4)) > 1e-6 {
			t.Fatalf("pixel %d = %v, want 0.4", i, v)
		}
	}
}

func TestRasterizeWindowOffset(t *testing.T) {
	// Rasterizing a sub-window must match the corresponding region of the
	// full rasterization (tile-resolution evaluation is position-exact).
	m := NewRadial(30, 30, 12, 12)

	full := Rasterize(m, 0, 0, 64, 64)
	sub := Rasterize(m, 20, 20, 24, 24)

	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			want := full[(y+20)*64+(x+20)]
			got := sub[y*24+x]
			if got != want {
				t.Fatalf("window pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}
