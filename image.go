package darkroom

import "github.com/google/uuid"

// ColorSpace tags the color space of a decoded image.
// The pipeline carries the tag through to output; it never converts between
// spaces on its own.
type ColorSpace string

// Color space tags for decoded images.
const (
	ColorSpaceSRGB      ColorSpace = "srgb"
	ColorSpaceDisplayP3 ColorSpace = "display-p3"
	ColorSpaceAdobeRGB  ColorSpace = "adobe-rgb"
	ColorSpaceLinear    ColorSpace = "linear"
)

// Image is an immutable decoded source image.
//
// The pixel buffer is owned by the caller and borrowed read-only by pipeline
// runs; nothing in darkroom writes to it. Each Image carries a unique
// identity used for cache keying, so two decodes of the same file are
// distinct cache populations.
type Image struct {
	id         string
	pix        *Pixmap
	colorSpace ColorSpace
	bitDepth   int
}

// NewImage wraps a pixmap as an immutable source image, assigning it a
// fresh identity. bitDepth records the source bit depth (8 for JPEG,
// 16 for most TIFF/RAW-derived sources).
func NewImage(pix *Pixmap, cs ColorSpace, bitDepth int) *Image {
	return &Image{
		id:         uuid.NewString(),
		pix:        pix,
		colorSpace: cs,
		bitDepth:   bitDepth,
	}
}

// ID returns the unique identity of this image.
// The identity participates in every cache key derived from the image.
func (im *Image) ID() string { return im.id }

// Pix returns the source pixel buffer. Callers must not modify it.
func (im *Image) Pix() *Pixmap { return im.pix }

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.pix.Width() }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.pix.Height() }

// ColorSpace returns the color space tag recorded at decode time.
func (im *Image) ColorSpace() ColorSpace { return im.colorSpace }

// BitDepth returns the source bit depth recorded at decode time.
func (im *Image) BitDepth() int { return im.bitDepth }
