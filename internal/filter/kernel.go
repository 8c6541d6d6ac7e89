package filter

import (
	"math"
	"sync"
)

// MaxSample is the largest representable value in the pipeline's
// extended-range intermediate buffers (rgba16float maximum). Samples are
// clamped to this bound before accumulation so a single non-finite or
// runaway value cannot propagate through a weighted sum.
const MaxSample = 65504.0

// Kernel is a 1D Gaussian convolution kernel.
//
// Weights cover the support [-ceil(radius), +ceil(radius)] with
// sigma = radius / 2. Weights are stored unnormalized; convolution divides
// by the sum of weights actually applied, which keeps edge-clamped samples
// energy-preserving.
type Kernel struct {
	// Radius is the requested blur radius in pixels.
	Radius float64

	// Weights holds the unnormalized Gaussian taps, center at index Half.
	Weights []float32

	// Half is the number of taps on each side of the center.
	Half int
}

// NewKernel generates a 1D Gaussian kernel for the given radius.
//
// For radius <= 0, returns a single-tap identity kernel so callers get
// bit-identical output without special-casing (feather radius 0 must not
// soften its input).
func NewKernel(radius float64) *Kernel {
	if radius <= 0 {
		return &Kernel{Radius: radius, Weights: []float32{1}, Half: 0}
	}

	sigma := radius / 2
	half := int(math.Ceil(radius))
	size := half*2 + 1

	weights := make([]float32, size)
	twoSigmaSq := 2 * sigma * sigma
	for i := 0; i < size; i++ {
		x := float64(i - half)
		weights[i] = float32(math.Exp(-(x * x) / twoSigmaSq))
	}

	return &Kernel{Radius: radius, Weights: weights, Half: half}
}

// Identity reports whether this kernel is a no-op.
func (k *Kernel) Identity() bool {
	return k.Half == 0
}

// kernelCache caches computed kernels keyed by radius quantized to 0.01.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int]*Kernel
	maxLen int
}

var defaultKernelCache = &kernelCache{
	cache:  make(map[int]*Kernel),
	maxLen: 64,
}

func (c *kernelCache) get(radius float64) *Kernel {
	key := int(radius * 100)

	c.mu.RLock()
	if k, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return k
	}
	c.mu.RUnlock()

	k := NewKernel(radius)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Kernels are tiny; dropping half on overflow is cheaper than LRU.
		count := 0
		for key := range c.cache {
			delete(c.cache, key)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = k
	c.mu.Unlock()

	return k
}

// CachedKernel returns a cached kernel for the radius.
// More efficient when the same radius is used repeatedly, which is the
// normal case for feathered masks across many tiles.
func CachedKernel(radius float64) *Kernel {
	return defaultKernelCache.get(radius)
}
