package mask

import "math"

// Scaled returns a copy of the tree with all geometry scaled by factor f:
// parametric coordinates, feather radii, and bitmap planes (resampled
// bilinearly). Used for fast-path proxy rendering, where the mask must
// land on the reduced-resolution frame at the same relative position.
func Scaled(m *Mask, f float64) *Mask {
	if m == nil || f == 1 {
		return m.Clone()
	}
	c := *m
	c.Feather = m.Feather * f
	c.X0, c.Y0 = m.X0*f, m.Y0*f
	c.X1, c.Y1 = m.X1*f, m.Y1*f
	c.CX, c.CY = m.CX*f, m.CY*f
	c.RX, c.RY = m.RX*f, m.RY*f

	if m.Bitmap != nil {
		c.Bitmap = m.Bitmap.resample(f)
	}
	if len(m.Children) > 0 {
		c.Children = make([]*Mask, len(m.Children))
		for i, ch := range m.Children {
			c.Children[i] = Scaled(ch, f)
		}
	}
	return &c
}

// resample scales the plane by f with bilinear filtering.
func (b *Bitmap) resample(f float64) *Bitmap {
	nw := int(math.Round(float64(b.W) * f))
	nh := int(math.Round(float64(b.H) * f))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	out := NewBitmapPlane(nw, nh)

	for y := 0; y < nh; y++ {
		sy := (float64(y)+0.5)/f - 0.5
		y0 := int(math.Floor(sy))
		fy := float32(sy - float64(y0))
		for x := 0; x < nw; x++ {
			sx := (float64(x)+0.5)/f - 0.5
			x0 := int(math.Floor(sx))
			fx := float32(sx - float64(x0))

			top := b.At(x0, y0) + (b.At(x0+1, y0)-b.At(x0, y0))*fx
			bot := b.At(x0, y0+1) + (b.At(x0+1, y0+1)-b.At(x0, y0+1))*fx
			out.Data[y*nw+x] = top + (bot-top)*fy
		}
	}
	return out
}
