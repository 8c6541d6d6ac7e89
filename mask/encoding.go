package mask

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
)

// Bitmap planes serialize their samples as base64 of little-endian float32
// bytes rather than a JSON number array. This keeps sidecar documents
// compact and round-trips every sample bit-exactly.

type bitmapJSON struct {
	W    int    `json:"w"`
	H    int    `json:"h"`
	Data string `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (b *Bitmap) MarshalJSON() ([]byte, error) {
	raw := make([]byte, len(b.Data)*4)
	for i, v := range b.Data {
		bits := math.Float32bits(v)
		raw[i*4] = byte(bits)
		raw[i*4+1] = byte(bits >> 8)
		raw[i*4+2] = byte(bits >> 16)
		raw[i*4+3] = byte(bits >> 24)
	}
	return json.Marshal(bitmapJSON{
		W:    b.W,
		H:    b.H,
		Data: base64.StdEncoding.EncodeToString(raw),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bitmap) UnmarshalJSON(data []byte) error {
	var enc bitmapJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(enc.Data)
	if err != nil {
		return err
	}
	if enc.W < 0 || enc.H < 0 || len(raw) != enc.W*enc.H*4 {
		return errors.New("mask: bitmap plane size mismatch")
	}
	b.W = enc.W
	b.H = enc.H
	b.Data = make([]float32, enc.W*enc.H)
	for i := range b.Data {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 |
			uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		b.Data[i] = math.Float32frombits(bits)
	}
	return nil
}
