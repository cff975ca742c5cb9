package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImageInput = errors.New("invalid image input")

const (
	DefaultMaxDim        = 800
	DefaultQuality       = 70
	DefaultMaxInputBytes = 1 << 20
	DefaultMaxPixels     = 40_000_000

	dataURIPrefix = "data:image/jpeg;base64,"
)

// Normalizer turns an uploaded image into a small embedded JPEG data URI.
// Zero fields fall back to the defaults above.
type Normalizer struct {
	MaxDim        int
	Quality       int
	MaxInputBytes int
	// MaxPixels caps the declared width*height; checked before decoding.
	MaxPixels int
}

func New(maxDim, quality, maxInputBytes int) *Normalizer {
	return &Normalizer{MaxDim: maxDim, Quality: quality, MaxInputBytes: maxInputBytes}
}

// Validate is the gate in front of Normalize: content type must be image/*
// and the raw size must fit MaxInputBytes.
func (n *Normalizer) Validate(contentType string, size int) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %q is not an image", ErrInvalidImageInput, contentType)
	}
	if size <= 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidImageInput)
	}
	if limit := n.maxInput(); size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidImageInput, size, limit)
	}
	return nil
}

func (n *Normalizer) Normalize(raw []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: decode header: %w", ErrInvalidImageInput, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: %s image has no pixels", ErrInvalidImageInput, format)
	}
	if limit := n.maxPixels(); cfg.Width > limit/cfg.Height {
		return "", fmt.Errorf("%w: %dx%d %s exceeds %d pixels", ErrInvalidImageInput, cfg.Width, cfg.Height, format, limit)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrInvalidImageInput, err)
	}
	b := src.Bounds()
	if b.Empty() {
		return "", fmt.Errorf("%w: %s image has no pixels", ErrInvalidImageInput, format)
	}

	w, h := Fit(b.Dx(), b.Dy(), n.maxDim())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// jpeg tidak punya alpha, jadi latar putih dulu
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.quality()}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Fit scales w x h down so neither side exceeds limit, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Decode reads a data URI produced by Normalize back into an image.
func Decode(uri string) (image.Image, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, fmt.Errorf("%w: not a jpeg data uri", ErrInvalidImageInput)
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(dataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImageInput, err)
	}
	return jpeg.Decode(bytes.NewReader(raw))
}

func (n *Normalizer) maxDim() int {
	if n.MaxDim > 0 {
		return n.MaxDim
	}
	return DefaultMaxDim
}

func (n *Normalizer) quality() int {
	if n.Quality > 0 && n.Quality <= 100 {
		return n.Quality
	}
	return DefaultQuality
}

func (n *Normalizer) maxInput() int {
	if n.MaxInputBytes > 0 {
		return n.MaxInputBytes
	}
	return DefaultMaxInputBytes
}

func (n *Normalizer) maxPixels() int {
	if n.MaxPixels > 0 {
		return n.MaxPixels
	}
	return DefaultMaxPixels
}
