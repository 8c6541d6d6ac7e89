package decode

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func TestReaderPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := Reader(&buf)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if img.Width() != 8 || img.Height() != 4 {
		t.Errorf("decoded %dx%d, want 8x4", img.Width(), img.Height())
	}
	if img.BitDepth() != 8 {
		t.Errorf("BitDepth() = %d, want 8", img.BitDepth())
	}
	r, g, b, a := img.Pix().Pixel(3, 2)
	if r != 1 || g != 1 || b != 1 || a != 1 {
		t.Errorf("white pixel decoded as (%v, %v, %v, %v)", r, g, b, a)
	}
}

func TestReader16BitTIFF(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}

	img, err := Reader(&buf)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if img.BitDepth() != 16 {
		t.Errorf("BitDepth() = %d, want 16", img.BitDepth())
	}
}

func TestFreshIdentityPerDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	a, err := Reader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() {
		t.Error("two decodes share an identity; cache populations would collide")
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	img, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if img.Width() != 3 {
		t.Errorf("width = %d, want 3", img.Width())
	}

	if _, err := File(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("missing file accepted")
	}
}
