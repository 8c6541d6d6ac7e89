package mask

import (
	"hash/fnv"
	"testing"
)

func TestValidate(t *testing.T) {
	bm := NewBitmapPlane(4, 4)

	tests := []struct {
		name    string
		mask    *Mask
		wantErr bool
	}{
		{"bitmap ok", NewBitmap(bm), false},
		{"linear ok", NewLinear(0, 0, 100, 0), false},
		{"radial ok", NewRadial(50, 50, 20, 30), false},
		{"combine ok", Combine(OpAdd, NewRadial(0, 0, 1, 1), NewLinear(0, 0, 1, 1)), false},
		{"invert ok", Combine(OpInvert, NewRadial(0, 0, 1, 1)), false},
		{"opacity too high", &Mask{Kind: KindRadial, Opacity: 1.5, RX: 1, RY: 1}, true},
		{"negative feather", &Mask{Kind: KindRadial, Opacity: 1, Feather: -1, RX: 1, RY: 1}, true},
		{"bitmap missing plane", &Mask{Kind: KindBitmap, Opacity: 1}, true},
		{"linear degenerate", NewLinear(5, 5, 5, 5), true},
		{"radial zero radius", NewRadial(0, 0, 0, 10), true},
		{"invert two children", Combine(OpInvert, NewRadial(0, 0, 1, 1), NewRadial(0, 0, 1, 1)), true},
		{"combine empty", Combine(OpAdd), true},
		{"unknown kind", &Mask{Kind: "swirl", Opacity: 1}, true},
		{"unknown op", &Mask{Kind: KindCombine, Opacity: 1, Op: "xor", Children: []*Mask{NewRadial(0, 0, 1, 1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mask.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloneIndependence(t *testing.T) {
	bm := NewBitmapPlane(2, 2)
	bm.Data[0] = 0.5
	m := Combine(OpAdd, NewBitmap(bm), NewRadial(1, 1, 1, 1))

	c := m.Clone()
	bm.Data[0] = 0.9
	m.Children[1].RX = 99

	if c.Children[0].Bitmap.Data[0] != 0.5 {
		t.Error("clone shares bitmap plane with original")
	}
	if c.Children[1].RX != 1 {
		t.Error("clone shares child node with original")
	}
}

func TestFeatherReach(t *testing.T) {
	inner := NewRadial(0, 0, 10, 10)
	inner.Feather = 3
	outer := Combine(OpInvert, inner)
	outer.Feather = 5

	if got := outer.FeatherReach(); got != 8 {
		t.Errorf("FeatherReach() = %v, want 8 (nested feathers sum)", got)
	}
	if got := NewLinear(0, 0, 1, 1).FeatherReach(); got != 0 {
		t.Errorf("unfeathered reach = %v, want 0", got)
	}
}

func TestAppendHashDistinguishesContent(t *testing.T) {
	hashOf := func(m *Mask) uint64 {
		h := fnv.New64a()
		m.AppendHash(h)
		return h.Sum64()
	}

	a := NewRadial(10, 10, 5, 5)
	b := NewRadial(10, 10, 5, 6)
	if hashOf(a) == hashOf(b) {
		t.Error("different geometry hashed equal")
	}

	// Same geometry, different stroke content.
	p1 := NewBitmapPlane(4, 4)
	p2 := NewBitmapPlane(4, 4)
	p2.Data[7] = 1
	if hashOf(NewBitmap(p1)) == hashOf(NewBitmap(p2)) {
		t.Error("different bitmap strokes hashed equal")
	}

	c := a.Clone()
	if hashOf(a) != hashOf(c) {
		t.Error("clone hashed differently from original")
	}
}
