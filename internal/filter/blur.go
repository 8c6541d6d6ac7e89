package filter

import "sync"

// Separable Gaussian blur over float32 buffers.
//
// The blur runs in two passes: the horizontal pass reads the original
// buffer and writes an intermediate, the vertical pass reads that
// intermediate. This reconstructs a true 2D Gaussian, not two independent
// 1D blurs of the same source. Sample coordinates are edge-clamped, which
// is required for correctness both at image borders and at tile borders
// once halo is consumed.

// BlurPlane applies the separable kernel to a single-channel plane of
// dimensions w x h, writing into dst (which must have the same length).
// src and dst must not alias.
//
// Planes hold normalized [0, 1] weights (mask channels), so samples are
// accumulated without clamping.
func BlurPlane(src, dst []float32, w, h int, k *Kernel) {
	if k.Identity() {
		copy(dst, src)
		return
	}

	tmp := getTempBuffer(w * h)
	defer putTempBuffer(tmp)

	// Pass 1: horizontal, src -> tmp.
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var sum, weight float32
			for i, wt := range k.Weights {
				sx := clampCoord(x+i-k.Half, w)
				sum += src[row+sx] * wt
				weight += wt
			}
			if weight == 0 {
				tmp[row+x] = src[row+x]
				continue
			}
			tmp[row+x] = sum / weight
		}
	}

	// Pass 2: vertical, tmp -> dst.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, weight float32
			for i, wt := range k.Weights {
				sy := clampCoord(y+i-k.Half, h)
				sum += tmp[sy*w+x] * wt
				weight += wt
			}
			if weight == 0 {
				dst[y*w+x] = tmp[y*w+x]
				continue
			}
			dst[y*w+x] = sum / weight
		}
	}
}

// BlurRGBA applies the separable kernel to an interleaved RGBA float32
// buffer of dimensions w x h (len = w*h*4), writing into dst.
// src and dst must not alias.
//
// RGBA intermediates are extended-range, so each sample is clamped to
// MaxSample before accumulation.
func BlurRGBA(src, dst []float32, w, h int, k *Kernel) {
	if k.Identity() {
		copy(dst, src)
		return
	}

	tmp := getTempBuffer(w * h * 4)
	defer putTempBuffer(tmp)

	// Pass 1: horizontal, src -> tmp.
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w; x++ {
			var r, g, b, a, weight float32
			for i, wt := range k.Weights {
				sx := clampCoord(x+i-k.Half, w)
				si := row + sx*4
				r += clampSample(src[si+0]) * wt
				g += clampSample(src[si+1]) * wt
				b += clampSample(src[si+2]) * wt
				a += clampSample(src[si+3]) * wt
				weight += wt
			}
			di := row + x*4
			if weight == 0 {
				copy(tmp[di:di+4], src[di:di+4])
				continue
			}
			tmp[di+0] = r / weight
			tmp[di+1] = g / weight
			tmp[di+2] = b / weight
			tmp[di+3] = a / weight
		}
	}

	// Pass 2: vertical, tmp -> dst.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a, weight float32
			for i, wt := range k.Weights {
				sy := clampCoord(y+i-k.Half, h)
				si := (sy*w + x) * 4
				r += clampSample(tmp[si+0]) * wt
				g += clampSample(tmp[si+1]) * wt
				b += clampSample(tmp[si+2]) * wt
				a += clampSample(tmp[si+3]) * wt
				weight += wt
			}
			di := (y*w + x) * 4
			if weight == 0 {
				copy(dst[di:di+4], tmp[di:di+4])
				continue
			}
			dst[di+0] = r / weight
			dst[di+1] = g / weight
			dst[di+2] = b / weight
			dst[di+3] = a / weight
		}
	}
}

// clampCoord clamps a sample coordinate to [0, n) (edge extension).
func clampCoord(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// clampSample bounds an extended-range sample before accumulation.
// NaN compares false on both branches and falls through to 0 via the
// final return path, so non-finite inputs cannot poison the sum.
func clampSample(v float32) float32 {
	if v > MaxSample {
		return MaxSample
	}
	if v < -MaxSample {
		return -MaxSample
	}
	if v != v { // NaN
		return 0
	}
	return v
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// Temporary buffer pool shared by both blur entry points.
var tempBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 512*512*4)}
	},
}

// getTempBuffer retrieves a temporary buffer with at least size elements.
func getTempBuffer(size int) []float32 {
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	return wrapper.data[:size]
}

// putTempBuffer returns a temporary buffer to the pool.
func putTempBuffer(buf []float32) {
	if cap(buf) <= 32*1024*1024 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}
