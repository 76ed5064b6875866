// Package img handles decoding of user-supplied image bytes into a
// normalized RGB form. Color-space normalization is the only
// preprocessing performed; anything fancier belongs to the model worker.
package img

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

// ErrDecode reports that the supplied bytes are not a valid image.
var ErrDecode = errors.New("invalid image data")

// DecodeRGB decodes raw bytes into an RGBA image. Any decode failure is
// wrapped with ErrDecode so callers can classify it as a request-level
// failure rather than an infrastructure one.
func DecodeRGB(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba, nil
}

// EncodePNG serializes an image as PNG for transport to the model worker.
func EncodePNG(m image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return nil, fmt.Errorf("img: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizePNG decodes arbitrary image bytes and re-encodes them as
// RGB-normalized PNG. This is the canonical wire form handed to the
// embedding model and detector.
func NormalizePNG(data []byte) ([]byte, error) {
	rgba, err := DecodeRGB(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(rgba)
}
