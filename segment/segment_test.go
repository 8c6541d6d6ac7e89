package segment

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gogpu/darkroom"
)

func testImage(w, h int) *darkroom.Image {
	pix := darkroom.NewPixmap(w, h)
	pix.Fill(0.5, 0.5, 0.5, 1)
	return darkroom.NewImage(pix, darkroom.ColorSpaceSRGB, 8)
}

func maskPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSegment(t *testing.T) {
	img := testImage(32, 24)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/segment" {
			t.Errorf("path = %q, want /v1/segment", r.URL.Path)
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("multipart parse: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		if got := r.FormValue("points"); got == "" {
			t.Error("missing points field")
		}
		_, _ = w.Write(maskPNG(t, 32, 24))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	bm, err := c.Segment(context.Background(), img, []Point{{X: 10, Y: 5, Positive: true}})
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if bm.W != 32 || bm.H != 24 {
		t.Errorf("mask is %dx%d, want 32x24", bm.W, bm.H)
	}
	// Grayscale 255 maps to weight 1.
	if got := bm.Data[255]; got != 1 {
		t.Errorf("weight at 255-gray pixel = %v, want 1", got)
	}
}

func TestSegmentDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(maskPNG(t, 8, 8))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Segment(context.Background(), testImage(32, 24), nil); err == nil {
		t.Error("mismatched mask dimensions accepted")
	}
}

func TestSegmentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Segment(context.Background(), testImage(8, 8), nil)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestSegmentUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	_, err := c.Segment(context.Background(), testImage(8, 8), nil)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}
