// internal/services/image.go
package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// MaxAvatarInputBytes is the image API's upload limit.
	MaxAvatarInputBytes = 4 * 1024 * 1024
	maxImageDimension   = 800
	// maxSourceDimension bounds the width and height of a photo before it is decoded.
	maxSourceDimension = 4096
)

// DecodedImage is the payload of a data URL.
type DecodedImage struct {
	MimeType string
	Data     []byte
}

// ParseDataURL decodes a base64 "data:<mime>;base64,<payload>" URL.
func ParseDataURL(dataURL string) (*DecodedImage, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURL
	}

	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &DecodedImage{MimeType: mimeType, Data: data}, nil
}

// EncodeDataURL is the inverse of ParseDataURL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// NormalizeToPNG returns PNG bytes for a photo data URL. PNG input passes
// through; other formats are scaled to fit 800x800 and re-encoded. The result
// must stay within MaxAvatarInputBytes.
func NormalizeToPNG(dataURL string) ([]byte, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}

	out := img.Data
	if img.MimeType != "image/png" {
		out, err = reencodePNG(img.Data)
		if err != nil {
			return nil, err
		}
	}

	if len(out) > MaxAvatarInputBytes {
		return nil, ErrImageTooLarge
	}
	return out, nil
}

func reencodePNG(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if cfg.Width > maxSourceDimension || cfg.Height > maxSourceDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	dst := fitWithin(src, maxImageDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return src
	}

	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
