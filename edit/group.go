package edit

import (
	"fmt"
	"hash"

	"github.com/gogpu/darkroom/mask"
)

// Group is one entry of the edit state: an ordered list of adjustments,
// applied globally or scoped by a mask. Masked groups blend their result
// against their input with per-pixel weight mask × opacity.
type Group struct {
	// Label is a user-facing name ("Sky", "Subject"). Not hashed; renaming
	// a group never invalidates cached tiles.
	Label string

	// Mask scopes the group; nil means global.
	Mask *mask.Mask

	// Opacity scales the group's blend weight, in [0, 1].
	Opacity float64

	Adjustments []Adjustment
}

// NewGlobalGroup creates an unmasked group applying to the whole frame.
func NewGlobalGroup(adjs ...Adjustment) Group {
	return Group{Opacity: 1, Adjustments: adjs}
}

// NewMaskedGroup creates a group scoped by the given mask.
func NewMaskedGroup(m *mask.Mask, adjs ...Adjustment) Group {
	return Group{Opacity: 1, Mask: m, Adjustments: adjs}
}

// Global reports whether the group applies to the whole frame.
func (g Group) Global() bool { return g.Mask == nil }

// Identity reports whether rendering the group would change nothing.
func (g Group) Identity() bool {
	if g.Opacity == 0 && !g.Global() {
		return true
	}
	for _, a := range g.Adjustments {
		if !a.Identity() {
			return false
		}
	}
	return true
}

// Validate checks the group's adjustments and mask.
func (g Group) Validate() error {
	if g.Opacity < 0 || g.Opacity > 1 {
		return fmt.Errorf("edit: group opacity %v out of range [0, 1]", g.Opacity)
	}
	for i, a := range g.Adjustments {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("edit: adjustment %d: %w", i, err)
		}
	}
	if g.Mask != nil {
		return g.Mask.Validate()
	}
	return nil
}

// Clone returns a deep copy. Mask bitmap planes are copied too.
func (g Group) Clone() Group {
	c := g
	c.Mask = g.Mask.Clone()
	c.Adjustments = make([]Adjustment, len(g.Adjustments))
	for i, a := range g.Adjustments {
		c.Adjustments[i] = a.Clone()
	}
	return c
}

// AppendHash writes the group's render-relevant content to h. The label is
// deliberately excluded.
func (g Group) AppendHash(h hash.Hash64) {
	hashFloat(h, g.Opacity)
	if g.Mask != nil {
		_, _ = h.Write([]byte{1})
		g.Mask.AppendHash(h)
	} else {
		_, _ = h.Write([]byte{0})
	}
	hashFloat(h, float64(len(g.Adjustments)))
	for _, a := range g.Adjustments {
		a.AppendHash(h)
	}
}
