package darkroom

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Pixmap represents a rectangular pixel buffer.
//
// Pixels are stored as float32 RGBA, 4 values per pixel, in normalized
// working values. Unlike display buffers, a Pixmap may temporarily hold
// extended-range values above 1.0 between pipeline passes; values are only
// clamped when converting to an 8-bit image.
type Pixmap struct {
	width  int
	height int
	data   []float32 // RGBA format, 4 floats per pixel
}

// NewPixmap creates a new pixmap with the given dimensions.
// All pixels start at transparent black.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]float32, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format, 4 floats per pixel).
func (p *Pixmap) Data() []float32 {
	return p.data
}

// ByteSize returns the memory footprint of the pixel data in bytes.
// Used by the result cache to account entries against its budget.
func (p *Pixmap) ByteSize() int {
	return len(p.data) * 4
}

// SetPixel sets a single pixel. Out-of-bounds coordinates are ignored.
func (p *Pixmap) SetPixel(x, y int, r, g, b, a float32) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = r
	p.data[i+1] = g
	p.data[i+2] = b
	p.data[i+3] = a
}

// Pixel returns a single pixel. Out-of-bounds coordinates return zeros.
func (p *Pixmap) Pixel(x, y int) (r, g, b, a float32) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return 0, 0, 0, 0
	}
	i := (y*p.width + x) * 4
	return p.data[i+0], p.data[i+1], p.data[i+2], p.data[i+3]
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{
		width:  p.width,
		height: p.height,
		data:   make([]float32, len(p.data)),
	}
	copy(c.data, p.data)
	return c
}

// SubRegion copies the rectangle (x, y, w, h) into a new pixmap.
// The rectangle is clipped to the pixmap bounds; pixels outside the source
// are edge-clamped so the result always has the requested dimensions.
func (p *Pixmap) SubRegion(x, y, w, h int) *Pixmap {
	out := NewPixmap(w, h)
	for row := 0; row < h; row++ {
		sy := clampIndex(y+row, p.height)
		for col := 0; col < w; col++ {
			sx := clampIndex(x+col, p.width)
			si := (sy*p.width + sx) * 4
			di := (row*w + col) * 4
			copy(out.data[di:di+4], p.data[si:si+4])
		}
	}
	return out
}

// CopyInto writes the rectangle (sx, sy, w, h) of p into dst at (dx, dy).
// Regions falling outside either buffer are skipped.
func (p *Pixmap) CopyInto(dst *Pixmap, sx, sy, w, h, dx, dy int) {
	for row := 0; row < h; row++ {
		py := sy + row
		qy := dy + row
		if py < 0 || py >= p.height || qy < 0 || qy >= dst.height {
			continue
		}
		for col := 0; col < w; col++ {
			px := sx + col
			qx := dx + col
			if px < 0 || px >= p.width || qx < 0 || qx >= dst.width {
				continue
			}
			si := (py*p.width + px) * 4
			di := (qy*dst.width + qx) * 4
			copy(dst.data[di:di+4], p.data[si:si+4])
		}
	}
}

// Fill sets every pixel to the given color.
func (p *Pixmap) Fill(r, g, b, a float32) {
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// ToImage converts the pixmap to an image.RGBA, clamping to [0, 1] and
// quantizing to 8 bits per channel.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	for i := 0; i < p.width*p.height; i++ {
		img.Pix[i*4+0] = quantize8(p.data[i*4+0])
		img.Pix[i*4+1] = quantize8(p.data[i*4+1])
		img.Pix[i*4+2] = quantize8(p.data[i*4+2])
		img.Pix[i*4+3] = quantize8(p.data[i*4+3])
	}
	return img
}

// FromImage creates a pixmap from an image, normalizing channels to [0, 1].
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pm := NewPixmap(width, height)

	// Fast path for the common decoded formats.
	switch src := img.(type) {
	case *image.RGBA:
		for i := 0; i < width*height*4; i++ {
			pm.data[i] = float32(src.Pix[i]) / 255
		}
		return pm
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				si := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				di := (y*width + x) * 4
				a := float32(src.Pix[si+3]) / 255
				pm.data[di+0] = float32(src.Pix[si+0]) / 255 * a
				pm.data[di+1] = float32(src.Pix[si+1]) / 255 * a
				pm.data[di+2] = float32(src.Pix[si+2]) / 255 * a
				pm.data[di+3] = a
			}
		}
		return pm
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			i := (y*width + x) * 4
			pm.data[i+0] = float32(c.R) / 255
			pm.data[i+1] = float32(c.G) / 255
			pm.data[i+2] = float32(c.B) / 255
			pm.data[i+3] = float32(c.A) / 255
		}
	}
	return pm
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// quantize8 clamps a working value to [0, 1] and rounds to 8 bits.
func quantize8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// clampIndex clamps i to [0, n).
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
