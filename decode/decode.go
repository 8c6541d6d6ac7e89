// Package decode loads source images for editing.
//
// Beyond the standard library's JPEG, PNG, and GIF support it registers
// the TIFF, BMP, and WebP decoders from golang.org/x/image, which covers
// the formats camera-adjacent tooling actually emits. Decoded frames are
// wrapped as darkroom images with a fresh cache identity.
package decode

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	// Standard formats register through their init functions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/darkroom"
)

// File decodes the image at path.
func File(path string) (*darkroom.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := Reader(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", path, err)
	}
	return img, nil
}

// Bytes decodes an image from an in-memory encoding.
func Bytes(data []byte) (*darkroom.Image, error) {
	return Reader(bytes.NewReader(data))
}

// Reader decodes an image from r using whatever registered format matches
// its magic bytes.
func Reader(r io.Reader) (*darkroom.Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	depth := bitDepth(src)
	pix := darkroom.FromImage(src)
	img := darkroom.NewImage(pix, darkroom.ColorSpaceSRGB, depth)

	darkroom.Logger().Debug("image decoded",
		"format", format,
		"width", img.Width(), "height", img.Height(),
		"bit_depth", depth)
	return img, nil
}

// bitDepth reports the source sample depth. 16-bit-per-channel image types
// (most TIFFs derived from RAW processing) keep their precision tag even
// though the working buffer is float either way.
func bitDepth(img image.Image) int {
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		return 16
	default:
		return 8
	}
}
