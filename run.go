package darkroom

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/darkroom/edit"
	"github.com/gogpu/darkroom/mask"
)

// proxyFor returns the reduced-resolution proxy image for img, building it
// on first use. The proxy keeps the source's color space tag and gets its
// own identity, so proxy tiles form their own cache population.
func (r *Renderer) proxyFor(img *Image, edge int) (*Image, error) {
	r.mu.Lock()
	if proxy, ok := r.proxies[img.ID()]; ok {
		r.mu.Unlock()
		return proxy, nil
	}
	r.mu.Unlock()

	w, h := img.Width(), img.Height()
	var pw, ph int
	if w >= h {
		pw = edge
		ph = h * edge / w
	} else {
		ph = edge
		pw = w * edge / h
	}
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}

	// Proxies exist to be fast: bilinear via the 8-bit path is plenty for
	// interactive preview, and the full-resolution export path never
	// touches it.
	src := img.Pix().ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	proxy := NewImage(FromImage(dst), img.ColorSpace(), img.BitDepth())

	r.mu.Lock()
	if existing, ok := r.proxies[img.ID()]; ok {
		// Lost a build race; keep the first so cache keys stay stable.
		r.mu.Unlock()
		return existing, nil
	}
	r.proxies[img.ID()] = proxy
	r.mu.Unlock()

	Logger().Debug("proxy built", "image", img.ID(), "size", pw*ph)
	return proxy, nil
}

// scaleState maps an edit state onto a proxy's coordinate system: mask
// geometry, feather radii, and spatial adjustment radii all scale by f so
// the preview shows the same relative effect the full render will.
// Non-spatial parameters pass through untouched.
func scaleState(s edit.State, f float64) edit.State {
	groups := make([]edit.Group, 0, s.Len())
	for _, g := range s.Groups() {
		sg := g
		sg.Mask = mask.Scaled(g.Mask, f)
		sg.Adjustments = make([]edit.Adjustment, len(g.Adjustments))
		for i, a := range g.Adjustments {
			sg.Adjustments[i] = scaleAdjustment(a, f)
		}
		groups = append(groups, sg)
	}
	out, err := edit.NewStateWith(groups...)
	if err != nil {
		// Scaling preserves validity; reaching this means a bug upstream.
		Logger().Warn("proxy state scaling failed, using original", "error", err)
		return s
	}
	return out
}

func scaleAdjustment(a edit.Adjustment, f float64) edit.Adjustment {
	switch adj := a.(type) {
	case edit.Sharpen:
		if adj.Amount != 0 {
			adj.Radius = clampRadius(adj.Radius * f)
		}
		return adj
	case edit.NoiseReduction:
		if adj.Amount != 0 {
			adj.Radius = clampRadius(adj.Radius * f)
		}
		return adj
	case edit.Grain:
		if adj.Amount != 0 {
			adj.Size = adj.Size * f
			if adj.Size < 0.5 {
				adj.Size = 0.5
			}
		}
		return adj
	}
	return a
}

// clampRadius keeps a scaled radius inside its declared range.
func clampRadius(r float64) float64 {
	if r < 0.1 {
		return 0.1
	}
	if r > 10 {
		return 10
	}
	return r
}
