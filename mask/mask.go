// Package mask models the masks that scope adjustment groups to part of a
// frame: dense bitmaps (brush strokes, AI segmentation output), parametric
// gradients, and boolean combinations of other masks.
//
// A mask is a tagged variant tree. Leaves rasterize to per-pixel weights in
// [0, 1]; combination nodes fold their children left to right. Every node
// carries an opacity scalar and an optional feather radius; feathering runs
// the shared separable convolution kernel over the weight plane, and a
// feather radius of 0 leaves the plane bit-identical to its unblurred
// input.
package mask

import (
	"errors"
	"fmt"
	"hash"
	"math"
)

// Kind discriminates mask variants.
type Kind string

// Mask kinds.
const (
	KindBitmap  Kind = "bitmap"
	KindLinear  Kind = "linear"
	KindRadial  Kind = "radial"
	KindCombine Kind = "combine"
)

// Op is a boolean combination operator applied during the left-to-right
// fold over a combine node's children.
type Op string

// Combination operators. Earlier mask operations apply first.
const (
	// OpAdd accumulates coverage: clamp(a+b, 0, 1).
	OpAdd Op = "add"
	// OpSubtract carves coverage away: clamp(a-b, 0, 1).
	OpSubtract Op = "subtract"
	// OpIntersect keeps overlap only: a*b.
	OpIntersect Op = "intersect"
	// OpInvert flips its single child: 1-a.
	OpInvert Op = "invert"
)

// Validation errors.
var (
	ErrUnknownKind = errors.New("mask: unknown kind")
	ErrUnknownOp   = errors.New("mask: unknown combine op")
)

// Bitmap is a dense weight plane, one float per pixel in [0, 1].
// Brush strokes and AI segmentation results are delivered as bitmaps at
// source image resolution.
type Bitmap struct {
	W, H int
	Data []float32
}

// NewBitmapPlane creates an empty (all-zero) weight plane.
func NewBitmapPlane(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, Data: make([]float32, w*h)}
}

// At returns the weight at (x, y), edge-clamped.
func (b *Bitmap) At(x, y int) float32 {
	if b.W == 0 || b.H == 0 {
		return 0
	}
	if x < 0 {
		x = 0
	} else if x >= b.W {
		x = b.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= b.H {
		y = b.H - 1
	}
	return b.Data[y*b.W+x]
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	c := &Bitmap{W: b.W, H: b.H, Data: make([]float32, len(b.Data))}
	copy(c.Data, b.Data)
	return c
}

// Mask is one node of a mask expression tree.
//
// The active fields depend on Kind; unused fields stay at their zero value
// and are omitted from serialized documents. Masks are treated as immutable
// once attached to an adjustment group: edits replace the mask rather than
// mutating it, so history snapshots can share nodes safely.
type Mask struct {
	Kind Kind `json:"kind"`

	// Opacity scales the node's final weight, in [0, 1].
	Opacity float64 `json:"opacity"`

	// Feather is the Gaussian feather radius in pixels, >= 0.
	// 0 skips convolution entirely.
	Feather float64 `json:"feather,omitempty"`

	// Bitmap leaf payload.
	Bitmap *Bitmap `json:"bitmap,omitempty"`

	// Linear gradient leaf: weight 1 at (X0, Y0) falling to 0 at (X1, Y1),
	// in image-space pixels.
	X0 float64 `json:"x0,omitempty"`
	Y0 float64 `json:"y0,omitempty"`
	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`

	// Radial gradient leaf: weight 1 inside the ellipse centered at
	// (CX, CY) with radii (RX, RY), 0 outside.
	CX float64 `json:"cx,omitempty"`
	CY float64 `json:"cy,omitempty"`
	RX float64 `json:"rx,omitempty"`
	RY float64 `json:"ry,omitempty"`

	// Combine node payload.
	Op       Op      `json:"op,omitempty"`
	Children []*Mask `json:"children,omitempty"`
}

// NewBitmap wraps a weight plane as a full-opacity bitmap mask.
func NewBitmap(b *Bitmap) *Mask {
	return &Mask{Kind: KindBitmap, Opacity: 1, Bitmap: b}
}

// NewLinear creates a linear gradient mask with weight 1 at (x0, y0)
// falling to 0 at (x1, y1).
func NewLinear(x0, y0, x1, y1 float64) *Mask {
	return &Mask{Kind: KindLinear, Opacity: 1, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// NewRadial creates a radial (elliptical) mask with weight 1 inside.
func NewRadial(cx, cy, rx, ry float64) *Mask {
	return &Mask{Kind: KindRadial, Opacity: 1, CX: cx, CY: cy, RX: rx, RY: ry}
}

// Combine folds children with the given operator, left to right.
func Combine(op Op, children ...*Mask) *Mask {
	return &Mask{Kind: KindCombine, Opacity: 1, Op: op, Children: children}
}

// Validate checks the node and its subtree for malformed parameters.
func (m *Mask) Validate() error {
	if m.Opacity < 0 || m.Opacity > 1 {
		return fmt.Errorf("mask: opacity %v out of range [0, 1]", m.Opacity)
	}
	if m.Feather < 0 || math.IsNaN(m.Feather) {
		return fmt.Errorf("mask: feather %v must be >= 0", m.Feather)
	}

	switch m.Kind {
	case KindBitmap:
		if m.Bitmap == nil || len(m.Bitmap.Data) != m.Bitmap.W*m.Bitmap.H {
			return errors.New("mask: bitmap plane missing or malformed")
		}
	case KindLinear:
		if m.X0 == m.X1 && m.Y0 == m.Y1 {
			return errors.New("mask: linear gradient endpoints coincide")
		}
	case KindRadial:
		if m.RX <= 0 || m.RY <= 0 {
			return fmt.Errorf("mask: radial radii %v x %v must be > 0", m.RX, m.RY)
		}
	case KindCombine:
		switch m.Op {
		case OpInvert:
			if len(m.Children) != 1 {
				return errors.New("mask: invert takes exactly one child")
			}
		case OpAdd, OpSubtract, OpIntersect:
			if len(m.Children) == 0 {
				return errors.New("mask: combine node has no children")
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownOp, m.Op)
		}
		for _, c := range m.Children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// Clone returns a deep copy of the tree. Bitmap planes are copied too, so
// history snapshots never alias live brush buffers.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	c := *m
	if m.Bitmap != nil {
		c.Bitmap = m.Bitmap.Clone()
	}
	if len(m.Children) > 0 {
		c.Children = make([]*Mask, len(m.Children))
		for i, ch := range m.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// FeatherReach returns the total spatial reach of feathering along the
// deepest path of the tree, in pixels. Feather radii nest: a parent blur
// spreads an already-blurred child further, so reaches along a path sum.
// Each radius is ceiled because the blur kernel's support is the ceiling
// of its radius. The tile scheduler folds this into the halo demand.
func (m *Mask) FeatherReach() float64 {
	if m == nil {
		return 0
	}
	var child float64
	for _, c := range m.Children {
		if r := c.FeatherReach(); r > child {
			child = r
		}
	}
	return child + math.Ceil(m.Feather)
}

// AppendHash writes the node's content to h for adjustment-stack hashing.
// Bitmap planes hash their full content: two brush masks with the same
// geometry but different strokes must produce different cache keys.
func (m *Mask) AppendHash(h hash.Hash64) {
	writeString(h, string(m.Kind))
	writeFloat(h, m.Opacity)
	writeFloat(h, m.Feather)

	switch m.Kind {
	case KindBitmap:
		writeInt(h, m.Bitmap.W)
		writeInt(h, m.Bitmap.H)
		for _, v := range m.Bitmap.Data {
			writeFloat(h, float64(v))
		}
	case KindLinear:
		writeFloat(h, m.X0)
		writeFloat(h, m.Y0)
		writeFloat(h, m.X1)
		writeFloat(h, m.Y1)
	case KindRadial:
		writeFloat(h, m.CX)
		writeFloat(h, m.CY)
		writeFloat(h, m.RX)
		writeFloat(h, m.RY)
	case KindCombine:
		writeString(h, string(m.Op))
		writeInt(h, len(m.Children))
		for _, c := range m.Children {
			c.AppendHash(h)
		}
	}
}

func writeString(h hash.Hash64, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}

func writeFloat(h hash.Hash64, f float64) {
	bits := math.Float64bits(f)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}

func writeInt(h hash.Hash64, v int) {
	writeFloat(h, float64(v))
}
