package mask

import (
	"github.com/gogpu/darkroom/internal/filter"
)

// Rasterize evaluates the mask tree bottom-up over the image-space
// rectangle (x, y, w, h), returning a w*h weight plane in [0, 1].
//
// Leaf masks rasterize directly (bitmap) or from parametric geometry at
// the requested resolution. Combination nodes fold per pixel, left to
// right. Feathering then blurs the combined plane; the rectangle is
// expected to include the caller's halo so the blur has correct context at
// tile boundaries. Node opacity scales the result last.
func Rasterize(m *Mask, x, y, w, h int) []float32 {
	plane := rasterizeNode(m, x, y, w, h)

	// Weights must end up in [0, 1]: combine ops clamp already, but
	// opacity scaling of a blurred plane can only shrink values, so a
	// single final clamp covers float dust from the convolution.
	for i, v := range plane {
		if v < 0 {
			plane[i] = 0
		} else if v > 1 {
			plane[i] = 1
		}
	}
	return plane
}

// rasterizeNode evaluates one node including its feather and opacity.
func rasterizeNode(m *Mask, x, y, w, h int) []float32 {
	var plane []float32

	switch m.Kind {
	case KindBitmap:
		plane = rasterBitmap(m.Bitmap, x, y, w, h)
	case KindLinear:
		plane = rasterLinear(m, x, y, w, h)
	case KindRadial:
		plane = rasterRadial(m, x, y, w, h)
	case KindCombine:
		plane = rasterizeNode(m.Children[0], x, y, w, h)
		if m.Op == OpInvert {
			for i := range plane {
				plane[i] = 1 - plane[i]
			}
		} else {
			for _, child := range m.Children[1:] {
				b := rasterizeNode(child, x, y, w, h)
				combineInto(plane, b, m.Op)
			}
		}
	default:
		// Unreachable for validated masks.
		plane = make([]float32, w*h)
	}

	// Feather radius 0 skips convolution entirely so the plane stays
	// bit-identical to its unblurred form.
	if m.Feather > 0 {
		blurred := make([]float32, len(plane))
		filter.BlurPlane(plane, blurred, w, h, filter.CachedKernel(m.Feather))
		plane = blurred
	}

	if m.Opacity != 1 {
		op := float32(m.Opacity)
		for i := range plane {
			plane[i] *= op
		}
	}
	return plane
}

// combineInto applies dst = op(dst, src) per pixel.
func combineInto(dst, src []float32, op Op) {
	switch op {
	case OpAdd:
		for i := range dst {
			v := dst[i] + src[i]
			if v > 1 {
				v = 1
			}
			dst[i] = v
		}
	case OpSubtract:
		for i := range dst {
			v := dst[i] - src[i]
			if v < 0 {
				v = 0
			}
			dst[i] = v
		}
	case OpIntersect:
		for i := range dst {
			dst[i] *= src[i]
		}
	}
}

// rasterBitmap samples an image-resolution weight plane at the rectangle,
// edge-clamping outside the plane.
func rasterBitmap(b *Bitmap, x, y, w, h int) []float32 {
	plane := make([]float32, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			plane[row*w+col] = b.At(x+col, y+row)
		}
	}
	return plane
}

// rasterLinear evaluates the gradient ramp at pixel centers.
func rasterLinear(m *Mask, x, y, w, h int) []float32 {
	plane := make([]float32, w*h)

	dx := m.X1 - m.X0
	dy := m.Y1 - m.Y0
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return plane
	}

	for row := 0; row < h; row++ {
		py := float64(y+row) + 0.5
		for col := 0; col < w; col++ {
			px := float64(x+col) + 0.5
			t := ((px-m.X0)*dx + (py-m.Y0)*dy) / lenSq
			switch {
			case t <= 0:
				plane[row*w+col] = 1
			case t >= 1:
				plane[row*w+col] = 0
			default:
				plane[row*w+col] = float32(1 - t)
			}
		}
	}
	return plane
}

// rasterRadial evaluates a hard-edged ellipse; softness comes from the
// node's feather radius, not from the shape itself.
func rasterRadial(m *Mask, x, y, w, h int) []float32 {
	plane := make([]float32, w*h)

	for row := 0; row < h; row++ {
		ny := (float64(y+row) + 0.5 - m.CY) / m.RY
		for col := 0; col < w; col++ {
			nx := (float64(x+col) + 0.5 - m.CX) / m.RX
			if nx*nx+ny*ny <= 1 {
				plane[row*w+col] = 1
			}
		}
	}
	return plane
}
