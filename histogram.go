package darkroom

// Histogram holds 256-bin channel histograms of a rendered frame, computed
// from the display-quantized values so the bins match what an 8-bit export
// would contain.
type Histogram struct {
	R, G, B, Luma [256]uint32
}

// NewHistogram computes the histogram of a pixmap. Extended-range values
// clamp into the top and bottom bins, which is exactly the clipping the
// histogram exists to show.
func NewHistogram(p *Pixmap) *Histogram {
	h := &Histogram{}
	data := p.Data()
	for i := 0; i < len(data); i += 4 {
		r := quantize8(data[i])
		g := quantize8(data[i+1])
		b := quantize8(data[i+2])
		h.R[r]++
		h.G[g]++
		h.B[b]++
		h.Luma[quantize8(0.2126*data[i]+0.7152*data[i+1]+0.0722*data[i+2])]++
	}
	return h
}

// ClippedShadows returns the fraction of pixels in the bottom luma bin.
func (h *Histogram) ClippedShadows() float64 {
	return h.fraction(h.Luma[0])
}

// ClippedHighlights returns the fraction of pixels in the top luma bin.
func (h *Histogram) ClippedHighlights() float64 {
	return h.fraction(h.Luma[255])
}

func (h *Histogram) fraction(bin uint32) float64 {
	var total uint64
	for _, v := range h.Luma {
		total += uint64(v)
	}
	if total == 0 {
		return 0
	}
	return float64(bin) / float64(total)
}
