package darkroom

import (
	"math"

	"github.com/gogpu/darkroom/edit"
	"github.com/gogpu/darkroom/internal/filter"
	"github.com/gogpu/darkroom/mask"
)

func init() {
	RegisterBackend("software", func(cfg Config) (Backend, error) {
		return NewSoftwareBackend(), nil
	})
}

// NewSoftwareBackend returns the CPU execution backend. It is registered
// under the name "software" and always available; GPU backends also use it
// for host-side execution of stages their device path does not cover yet.
func NewSoftwareBackend() Backend {
	return &softwareBackend{}
}

// softwareBackend executes passes on the CPU. It is the reference
// implementation: other backends must match its output within float
// tolerance, and it is always available as a fallback.
type softwareBackend struct{}

func (b *softwareBackend) Name() string { return "software" }

func (b *softwareBackend) Close() error { return nil }

// ExecutePass applies one adjustment group to src's outer region, writing
// into dst. Masked groups blend the adjusted result against the input with
// per-pixel weight mask x group opacity; feather-0 masks blend through
// their exact unblurred weights.
func (b *softwareBackend) ExecutePass(dst, src *Pixmap, pass Pass, region Region) error {
	w, h := src.Width(), src.Height()
	copy(dst.Data(), src.Data())

	for _, a := range pass.Group.Adjustments {
		applyAdjustment(dst, a, region)
	}
	clampWorkingRange(dst)

	opacity := float32(pass.Group.Opacity)
	switch {
	case pass.Masked():
		weights := mask.Rasterize(pass.Group.Mask, region.X, region.Y, w, h)
		blendMasked(dst, src, weights, opacity)
	case opacity != 1:
		blendUniform(dst, src, opacity)
	}
	return nil
}

// applyAdjustment applies one adjustment in place on p.
func applyAdjustment(p *Pixmap, a edit.Adjustment, region Region) {
	switch adj := a.(type) {
	case edit.Exposure:
		applyExposure(p, adj)
	case edit.Contrast:
		applyContrast(p, adj)
	case edit.WhiteBalance:
		applyWhiteBalance(p, adj)
	case edit.Tone:
		applyTone(p, adj)
	case edit.Presence:
		applyPresence(p, adj)
	case edit.ToneCurve:
		applyToneCurve(p, adj)
	case edit.HSL:
		applyHSL(p, adj)
	case edit.ColorWheels:
		applyColorWheels(p, adj)
	case edit.Sharpen:
		applySharpen(p, adj)
	case edit.NoiseReduction:
		applyNoiseReduction(p, adj)
	case edit.Vignette:
		applyVignette(p, adj, region)
	case edit.Grain:
		applyGrain(p, adj, region)
	case edit.LensCorrection:
		applyLensCorrection(p, adj, region)
	}
}

// forEachPixel runs fn over every pixel's RGB triple in place.
func forEachPixel(p *Pixmap, fn func(r, g, b float32) (float32, float32, float32)) {
	data := p.Data()
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2] = fn(data[i], data[i+1], data[i+2])
	}
}

func applyExposure(p *Pixmap, a edit.Exposure) {
	if a.EV == 0 {
		return
	}
	gain := float32(math.Pow(2, a.EV))
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		return r * gain, g * gain, b * gain
	})
}

func applyContrast(p *Pixmap, a edit.Contrast) {
	if a.Amount == 0 {
		return
	}
	// tan keeps the midpoint fixed while the slope sweeps smoothly from
	// flat (-1) through identity (0) toward steep (+1).
	f := float32(math.Tan((a.Amount + 1) * math.Pi / 4))
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		return (r-0.5)*f + 0.5, (g-0.5)*f + 0.5, (b-0.5)*f + 0.5
	})
}

func applyWhiteBalance(p *Pixmap, a edit.WhiteBalance) {
	if a.Temperature == 0 && a.Tint == 0 {
		return
	}
	rGain := float32(1 + 0.2*a.Temperature/100)
	bGain := float32(1 - 0.2*a.Temperature/100)
	gGain := float32(1 - 0.1*a.Tint/100)
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		return r * rGain, g * gGain, b * bGain
	})
}

func applyTone(p *Pixmap, a edit.Tone) {
	if a.Highlights == 0 && a.Shadows == 0 && a.Whites == 0 && a.Blacks == 0 {
		return
	}
	hi := float32(a.Highlights)
	sh := float32(a.Shadows)
	wh := float32(a.Whites)
	bl := float32(a.Blacks)
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		l := luma(r, g, b)
		hw := smoothstep(0.5, 1, l)
		sw := 1 - smoothstep(0, 0.5, l)
		gain := 1 + hi*0.5*hw + wh*0.25
		lift := sh*0.3*sw + bl*0.15*(1-l)
		return r*gain + lift, g*gain + lift, b*gain + lift
	})
}

func applyPresence(p *Pixmap, a edit.Presence) {
	if a.Saturation != 0 || a.Vibrance != 0 {
		sat := float32(a.Saturation)
		vib := float32(a.Vibrance)
		forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
			l := luma(r, g, b)
			maxC := max3(r, g, b)
			minC := min3(r, g, b)
			var satLevel float32
			if maxC > 1e-6 {
				satLevel = (maxC - minC) / maxC
			}
			// Vibrance boosts muted colors harder than already-vivid ones.
			f := (1 + sat) * (1 + vib*(1-satLevel))
			return l + (r-l)*f, l + (g-l)*f, l + (b-l)*f
		})
	}
	if a.Clarity != 0 {
		applyClarity(p, float32(a.Clarity))
	}
}

// applyClarity adds local contrast: it pushes each pixel away from a
// heavily blurred copy of the luminance plane.
func applyClarity(p *Pixmap, amount float32) {
	w, h := p.Width(), p.Height()
	data := p.Data()

	plane := make([]float32, w*h)
	for i := 0; i < w*h; i++ {
		plane[i] = luma(data[i*4], data[i*4+1], data[i*4+2])
	}
	blurred := make([]float32, w*h)
	filter.BlurPlane(plane, blurred, w, h, filter.CachedKernel(clarityRadius))

	k := amount * 0.3
	for i := 0; i < w*h; i++ {
		d := (plane[i] - blurred[i]) * k
		data[i*4+0] += d
		data[i*4+1] += d
		data[i*4+2] += d
	}
}

func applyToneCurve(p *Pixmap, a edit.ToneCurve) {
	if a.Identity() {
		return
	}
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		return float32(a.Eval(float64(r))), float32(a.Eval(float64(g))), float32(a.Eval(float64(b)))
	})
}

// Band centers in degrees on the hue wheel, matching the eight HSL bands.
var bandCenters = [8]float32{0, 30, 60, 120, 180, 240, 280, 320}

const bandWidth = 45.0

func applyHSL(p *Pixmap, a edit.HSL) {
	if a.Identity() {
		return
	}
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		hue, sat, lit := rgbToHSL(r, g, b)
		if sat < 1e-4 {
			return r, g, b
		}

		var hueShift, satShift, litShift float32
		for i, c := range bandCenters {
			w := bandWeight(hue, c)
			if w == 0 {
				continue
			}
			band := a.Bands[i]
			hueShift += w * float32(band.Hue)
			satShift += w * float32(band.Saturation)
			litShift += w * float32(band.Luminance)
		}
		// Near-gray pixels have unstable hue; fade the effect out.
		gray := smoothstep(0, 0.1, sat)
		hueShift *= gray
		satShift *= gray
		litShift *= gray

		hue = wrapHue(hue + hueShift)
		sat = clamp01(sat * (1 + satShift))
		lit = clamp01(lit * (1 + litShift*0.5))
		return hslToRGB(hue, sat, lit)
	})
}

// bandWeight is a triangular falloff from a band center, zero beyond
// bandWidth degrees. Adjacent bands overlap so shifts blend smoothly.
func bandWeight(hue, center float32) float32 {
	d := hue - center
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	if d < 0 {
		d = -d
	}
	if d >= bandWidth {
		return 0
	}
	return 1 - d/bandWidth
}

func applyColorWheels(p *Pixmap, a edit.ColorWheels) {
	if a.Identity() {
		return
	}
	shift := func(r, g, b, w float32, pt edit.WheelPoint) (float32, float32, float32) {
		k := w * float32(pt.Intensity) * 0.3
		if k == 0 {
			return r, g, b
		}
		x := float32(pt.X)
		y := float32(pt.Y)
		return r + x*k, g - (x+y)*0.5*k, b + y*k
	}
	forEachPixel(p, func(r, g, b float32) (float32, float32, float32) {
		l := luma(r, g, b)
		sw := 1 - smoothstep(0.1, 0.5, l)
		mw := 1 - abs32(l-0.5)*2
		if mw < 0 {
			mw = 0
		}
		hw := smoothstep(0.5, 0.9, l)
		r, g, b = shift(r, g, b, sw, a.Shadows)
		r, g, b = shift(r, g, b, mw, a.Midtones)
		r, g, b = shift(r, g, b, hw, a.Highlights)
		return r, g, b
	})
}

// applySharpen is an unsharp mask: add back the detail lost to a Gaussian
// blur, scaled by amount.
func applySharpen(p *Pixmap, a edit.Sharpen) {
	if a.Amount == 0 {
		return
	}
	w, h := p.Width(), p.Height()
	data := p.Data()
	blurred := make([]float32, len(data))
	filter.BlurRGBA(data, blurred, w, h, filter.CachedKernel(a.Radius))

	amt := float32(a.Amount)
	for i := 0; i < len(data); i += 4 {
		data[i+0] += (data[i+0] - blurred[i+0]) * amt
		data[i+1] += (data[i+1] - blurred[i+1]) * amt
		data[i+2] += (data[i+2] - blurred[i+2]) * amt
	}
}

// applyNoiseReduction blends toward a Gaussian-smoothed copy.
func applyNoiseReduction(p *Pixmap, a edit.NoiseReduction) {
	if a.Amount == 0 {
		return
	}
	w, h := p.Width(), p.Height()
	data := p.Data()
	blurred := make([]float32, len(data))
	filter.BlurRGBA(data, blurred, w, h, filter.CachedKernel(a.Radius))

	amt := float32(a.Amount)
	for i := 0; i < len(data); i += 4 {
		data[i+0] += (blurred[i+0] - data[i+0]) * amt
		data[i+1] += (blurred[i+1] - data[i+1]) * amt
		data[i+2] += (blurred[i+2] - data[i+2]) * amt
	}
}

// applyVignette darkens toward the corners by normalized distance from the
// image center. Distance is computed in absolute image coordinates, so a
// tile renders the same falloff it would inside a whole-image render.
func applyVignette(p *Pixmap, a edit.Vignette, region Region) {
	if a.Amount == 0 {
		return
	}
	cx := float32(region.ImageW) / 2
	cy := float32(region.ImageH) / 2
	halfDiag := float32(math.Hypot(float64(cx), float64(cy)))
	amt := float32(a.Amount)

	w := p.Width()
	data := p.Data()
	for i := 0; i < len(data); i += 4 {
		px := i / 4 % w
		py := i / 4 / w
		dx := float32(region.X+px) + 0.5 - cx
		dy := float32(region.Y+py) + 0.5 - cy
		nd := float32(math.Sqrt(float64(dx*dx+dy*dy))) / halfDiag
		f := 1 - amt*0.8*smoothstep(0.3, 1, nd)
		data[i+0] *= f
		data[i+1] *= f
		data[i+2] *= f
	}
}

// applyGrain overlays hash noise keyed by absolute pixel position and the
// adjustment's seed. Position keying makes the grain field independent of
// tiling: a pixel gets the same grain no matter which tile renders it.
func applyGrain(p *Pixmap, a edit.Grain, region Region) {
	if a.Amount == 0 {
		return
	}
	amt := float32(a.Amount) * 0.1
	size := a.Size
	if size < 0.5 {
		size = 1
	}

	w := p.Width()
	data := p.Data()
	for i := 0; i < len(data); i += 4 {
		px := region.X + i/4%w
		py := region.Y + i/4/w
		gx := int(float64(px) / size)
		gy := int(float64(py) / size)
		n := grainNoise(gx, gy, a.Seed) * amt
		data[i+0] += n
		data[i+1] += n
		data[i+2] += n
	}
}

// grainNoise hashes a grid cell and seed to a deterministic value in
// [-1, 1].
func grainNoise(x, y int, seed int64) float32 {
	h := uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F ^ uint64(seed)*0x165667B19E3779F9
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return float32(h&0xFFFFFF)/float32(0x800000) - 1
}

// applyLensCorrection resamples through a polynomial radial distortion
// model. Each output pixel samples the source at a radius scaled by
// 1 + k1*r^2 + k2*r^4 + k3*r^6 (r normalized to the half-diagonal), with
// bilinear filtering. Displaced samples land inside the tile halo; the
// compiler sized it from MaxDisplacement.
func applyLensCorrection(p *Pixmap, a edit.LensCorrection, region Region) {
	if a.Identity() {
		return
	}
	src := p.Clone()
	cx := float64(region.ImageW) / 2
	cy := float64(region.ImageH) / 2
	halfDiagSq := cx*cx + cy*cy

	w, h := p.Width(), p.Height()
	data := p.Data()
	for y := 0; y < h; y++ {
		iy := float64(region.Y+y) + 0.5
		for x := 0; x < w; x++ {
			ix := float64(region.X+x) + 0.5
			dx := ix - cx
			dy := iy - cy
			r2 := (dx*dx + dy*dy) / halfDiagSq
			f := 1 + r2*(a.K1+r2*(a.K2+r2*a.K3))
			// Source position in tile-local coordinates.
			sx := cx + dx*f - float64(region.X)
			sy := cy + dy*f - float64(region.Y)
			i := (y*w + x) * 4
			sampleBilinear(src, sx-0.5, sy-0.5, data[i:i+4])
		}
	}
}

// sampleBilinear writes the bilinear sample at (x, y) into out, edge
// clamping coordinates outside the buffer.
func sampleBilinear(p *Pixmap, x, y float64, out []float32) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))

	w, h := p.Width(), p.Height()
	c := func(ix, iy int) []float32 {
		ix = clampIndex(ix, w)
		iy = clampIndex(iy, h)
		i := (iy*w + ix) * 4
		return p.Data()[i : i+4]
	}
	p00 := c(x0, y0)
	p10 := c(x0+1, y0)
	p01 := c(x0, y0+1)
	p11 := c(x0+1, y0+1)
	for ch := 0; ch < 4; ch++ {
		top := p00[ch] + (p10[ch]-p00[ch])*fx
		bot := p01[ch] + (p11[ch]-p01[ch])*fx
		out[ch] = top + (bot-top)*fy
	}
}

// blendMasked blends adjusted pixels (in dst) against the pass input (src)
// with per-pixel weight mask x opacity.
func blendMasked(dst, src *Pixmap, weights []float32, opacity float32) {
	d := dst.Data()
	s := src.Data()
	for i := range weights {
		w := weights[i] * opacity
		if w == 1 {
			continue
		}
		j := i * 4
		if w == 0 {
			copy(d[j:j+4], s[j:j+4])
			continue
		}
		for ch := 0; ch < 4; ch++ {
			d[j+ch] = s[j+ch] + (d[j+ch]-s[j+ch])*w
		}
	}
}

// blendUniform blends with a constant weight (global group opacity).
func blendUniform(dst, src *Pixmap, w float32) {
	d := dst.Data()
	s := src.Data()
	for i := range d {
		d[i] = s[i] + (d[i]-s[i])*w
	}
}

// clampWorkingRange bounds every channel to [0, MaxSample] and flushes
// non-finite values to 0. Extended-range values above 1.0 survive between
// passes; only display conversion quantizes them away.
func clampWorkingRange(p *Pixmap) {
	data := p.Data()
	for i, v := range data {
		switch {
		case v != v: // NaN
			data[i] = 0
		case v < 0:
			data[i] = 0
		case v > filter.MaxSample:
			data[i] = filter.MaxSample
		}
	}
}

func luma(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func smoothstep(lo, hi, v float32) float32 {
	t := (v - lo) / (hi - lo)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// rgbToHSL converts to hue in degrees [0, 360), saturation and lightness
// in [0, 1]. Extended-range inputs are clamped to [0, 1] for the
// conversion.
func rgbToHSL(r, g, b float32) (hue, sat, lit float32) {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)
	maxC := max3(r, g, b)
	minC := min3(r, g, b)
	lit = (maxC + minC) / 2

	d := maxC - minC
	if d == 0 {
		return 0, 0, lit
	}
	if lit > 0.5 {
		sat = d / (2 - maxC - minC)
	} else {
		sat = d / (maxC + minC)
	}

	switch maxC {
	case r:
		hue = (g - b) / d
		if g < b {
			hue += 6
		}
	case g:
		hue = (b-r)/d + 2
	default:
		hue = (r-g)/d + 4
	}
	return hue * 60, sat, lit
}

func hslToRGB(hue, sat, lit float32) (r, g, b float32) {
	if sat == 0 {
		return lit, lit, lit
	}
	var q float32
	if lit < 0.5 {
		q = lit * (1 + sat)
	} else {
		q = lit + sat - lit*sat
	}
	p := 2*lit - q
	h := hue / 360
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func wrapHue(h float32) float32 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}
