package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 5 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeBoundsLargeImage(t *testing.T) {
	n := New(0, 0, 0)
	uri, err := n.Normalize(pngBytes(t, 2000, 1000))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	img, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestNormalizeTallImage(t *testing.T) {
	n := &Normalizer{MaxDim: 100}
	uri, err := n.Normalize(pngBytes(t, 300, 900))
	require.NoError(t, err)
	img, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(33, 100), img.Bounds().Size())
}

func TestNormalizeKeepsSmallImageSize(t *testing.T) {
	n := New(800, 70, 1<<20)
	uri, err := n.Normalize(pngBytes(t, 40, 30))
	require.NoError(t, err)
	img, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), img.Bounds().Size())
}

func TestNormalizeFlattensTransparencyOntoWhite(t *testing.T) {
	pal := color.Palette{color.Transparent, color.Black}
	src := image.NewPaletted(image.Rect(0, 0, 16, 16), pal)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	uri, err := New(0, 0, 0).Normalize(buf.Bytes())
	require.NoError(t, err)
	img, err := Decode(uri)
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := New(0, 0, 0).Normalize([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidImageInput)
}

func TestNormalizeRejectsTooManyPixels(t *testing.T) {
	// a flat gray canvas compresses to almost nothing whatever its size
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2000, 2000))))
	raw := buf.Bytes()

	n := New(0, 0, 64*1024)
	n.MaxPixels = 1_000_000
	require.NoError(t, n.Validate("image/png", len(raw)), "small upload passes the byte gate")
	_, err := n.Normalize(raw)
	require.ErrorIs(t, err, ErrInvalidImageInput)
	assert.Contains(t, err.Error(), "2000x2000")

	n = &Normalizer{MaxPixels: 100 * 100}
	_, err = n.Normalize(pngBytes(t, 100, 100))
	assert.NoError(t, err, "exactly at the ceiling")
	_, err = n.Normalize(pngBytes(t, 101, 100))
	assert.ErrorIs(t, err, ErrInvalidImageInput)
}

func TestValidate(t *testing.T) {
	n := New(800, 70, 1024)
	assert.NoError(t, n.Validate("image/png", 1024))
	assert.NoError(t, n.Validate("IMAGE/JPEG", 10))
	assert.ErrorIs(t, n.Validate("application/pdf", 10), ErrInvalidImageInput)
	assert.ErrorIs(t, n.Validate("", 10), ErrInvalidImageInput)
	assert.ErrorIs(t, n.Validate("image/png", 1025), ErrInvalidImageInput)
	assert.ErrorIs(t, n.Validate("image/png", 0), ErrInvalidImageInput)

	// default ceiling is 1 MiB
	assert.NoError(t, (&Normalizer{}).Validate("image/gif", 1<<20))
	assert.Error(t, (&Normalizer{}).Validate("image/gif", 1<<20+1))
}

func TestFitProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	props := gopter.NewProperties(params)

	props.Property("never exceeds the limit and never grows", prop.ForAll(
		func(w, h, limit int) bool {
			fw, fh := Fit(w, h, limit)
			if fw < 1 || fh < 1 || fw > limit || fh > limit {
				return false
			}
			return fw <= w && fh <= h
		},
		gen.IntRange(1, 10000), gen.IntRange(1, 10000), gen.IntRange(1, 2000),
	))

	props.Property("larger side lands exactly on the limit when scaled", prop.ForAll(
		func(w, h, limit int) bool {
			if w <= limit && h <= limit {
				return true
			}
			fw, fh := Fit(w, h, limit)
			return max(fw, fh) == limit
		},
		gen.IntRange(1, 10000), gen.IntRange(1, 10000), gen.IntRange(1, 2000),
	))

	props.TestingRun(t)
}
