// Package segment talks to an external AI segmentation service and turns
// its responses into mask bitmaps.
//
// The service contract is plain HTTP: the client uploads the image as a
// PNG in a multipart form together with optional point prompts, and the
// service answers with a grayscale PNG at source resolution where pixel
// intensity is mask coverage. The package stays transport-thin on purpose;
// model selection and prompting semantics live server-side.
package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/mask"
)

// ErrServiceUnavailable reports that the segmentation service could not be
// reached or answered with a server error.
var ErrServiceUnavailable = errors.New("segment: service unavailable")

// DefaultTimeout bounds one segmentation round trip.
const DefaultTimeout = 30 * time.Second

// Point is a positive or negative click prompt in image coordinates.
type Point struct {
	X, Y     int
	Positive bool
}

// Client calls a segmentation service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
// Pass nil to use a default HTTP client with DefaultTimeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, http: hc}
}

// Segment asks the service for a subject mask of img, guided by the given
// point prompts. The returned bitmap has the image's dimensions with
// weights in [0, 1].
func (c *Client) Segment(ctx context.Context, img *darkroom.Image, points []Point) (*mask.Bitmap, error) {
	body, contentType, err := buildRequestBody(img, points)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/segment", body)
	if err != nil {
		return nil, fmt.Errorf("segment: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("segment: status %d: %s", resp.StatusCode, msg)
	}

	bm, err := decodeMask(resp.Body, img.Width(), img.Height())
	if err != nil {
		return nil, err
	}
	darkroom.Logger().Debug("segmentation received",
		"image", img.ID(), "points", len(points), "elapsed", time.Since(start))
	return bm, nil
}

// buildRequestBody encodes the multipart upload: the frame as PNG plus the
// point prompts as a JSON field.
func buildRequestBody(img *darkroom.Image, points []Point) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", "frame.png")
	if err != nil {
		return nil, "", fmt.Errorf("segment: build upload: %w", err)
	}
	if err := png.Encode(part, img.Pix().ToImage()); err != nil {
		return nil, "", fmt.Errorf("segment: encode frame: %w", err)
	}

	if len(points) > 0 {
		type pointJSON struct {
			X        int  `json:"x"`
			Y        int  `json:"y"`
			Positive bool `json:"positive"`
		}
		pts := make([]pointJSON, len(points))
		for i, p := range points {
			pts[i] = pointJSON{X: p.X, Y: p.Y, Positive: p.Positive}
		}
		data, err := json.Marshal(pts)
		if err != nil {
			return nil, "", fmt.Errorf("segment: encode points: %w", err)
		}
		if err := w.WriteField("points", string(data)); err != nil {
			return nil, "", fmt.Errorf("segment: build upload: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("segment: build upload: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeMask turns the service's grayscale PNG into a weight plane,
// rejecting responses whose dimensions do not match the source frame.
func decodeMask(r io.Reader, wantW, wantH int) (*mask.Bitmap, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("segment: decode response: %w", err)
	}
	b := src.Bounds()
	if b.Dx() != wantW || b.Dy() != wantH {
		return nil, fmt.Errorf("segment: mask is %dx%d, frame is %dx%d",
			b.Dx(), b.Dy(), wantW, wantH)
	}

	bm := mask.NewBitmapPlane(wantW, wantH)
	if gray, ok := src.(*image.Gray); ok {
		for i, v := range gray.Pix {
			bm.Data[i] = float32(v) / 255
		}
		return bm, nil
	}
	for y := 0; y < wantH; y++ {
		for x := 0; x < wantW; x++ {
			g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			bm.Data[y*wantW+x] = float32(g.Y) / 255
		}
	}
	return bm, nil
}
