package darkroom

import (
	"math"

	"github.com/gogpu/darkroom/edit"
)

// Pass is one executable unit of a compiled plan: a single adjustment
// group applied to a tile's outer region. Passes run strictly in order;
// pass i+1 reads pass i's output.
type Pass struct {
	// ID is the pass index in the plan.
	ID int

	// GroupIndex is the index of the source group in the edit state.
	// Identity groups compile to no pass, so GroupIndex can run ahead
	// of ID.
	GroupIndex int

	// Group is the adjustment group this pass renders.
	Group edit.Group

	// StackHash is the chained hash of the edit-state prefix through this
	// pass's group. It is the invalidation axis of the result cache: a
	// parameter change in group k changes the stack hash of every pass at
	// or after k and no pass before it.
	StackHash uint64
}

// Masked reports whether the pass blends through a mask.
func (p Pass) Masked() bool { return p.Group.Mask != nil }

// clarityRadius is the fixed local-contrast blur radius used by the
// clarity adjustment, in full-resolution pixels.
const clarityRadius = 15.0

// reach returns the spatial reach of the pass in pixels: how far outside
// a pixel the pass may read. Convolution radii within one pass sum, since
// each convolution spreads the previous one's support further. Each term
// is ceiled individually because that is the actual kernel support; a
// ceiling of the sum could fall one pixel short of the summed supports.
func (p Pass) reach(width, height int) float64 {
	var r float64
	for _, a := range p.Group.Adjustments {
		switch adj := a.(type) {
		case edit.Sharpen:
			r += math.Ceil(adj.ConvolutionRadius())
		case edit.NoiseReduction:
			r += math.Ceil(adj.ConvolutionRadius())
		case edit.Presence:
			if adj.Clarity != 0 {
				r += clarityRadius
			}
		case edit.LensCorrection:
			if !adj.Identity() {
				// +1 for the bilinear sample's far corner.
				r += adj.MaxDisplacement(width, height) + 1
			}
		}
	}
	if p.Group.Mask != nil {
		r += p.Group.Mask.FeatherReach()
	}
	return r
}

// ceilInt rounds a non-negative float up to an int.
func ceilInt(v float64) int {
	return int(math.Ceil(v))
}
