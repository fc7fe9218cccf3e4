package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func TestApplyOpacityIdentityAtFullOpacity(t *testing.T) {
	src := testPNG(t, 4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 200})

	out := ApplyOpacity(src, 1.0)
	assert.Equal(t, src, out, "full opacity must return the input bytes untouched")

	out = ApplyOpacity(src, 1.5)
	assert.Equal(t, src, out)
}

func TestApplyOpacityScalesAlpha(t *testing.T) {
	src := testPNG(t, 4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 200})

	out := ApplyOpacity(src, 0.5)
	require.NotEqual(t, src, out)

	img := decodePNG(t, out)
	_, _, _, a := img.At(1, 1).RGBA()
	// 200 * 0.5 rounded, premultiplied back out of RGBA() 16-bit space.
	assert.InDelta(t, 100, int(a>>8), 1)
}

func TestApplyOpacityNegativeClampsToZero(t *testing.T) {
	src := testPNG(t, 2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	img := decodePNG(t, ApplyOpacity(src, -3))
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a)
}

func TestApplyOpacityBrokenInputPassesThrough(t *testing.T) {
	src := []byte("definitely not an image")
	assert.Equal(t, src, ApplyOpacity(src, 0.5))
}

func TestNormalizeToCoverExactDimensions(t *testing.T) {
	src := testPNG(t, 100, 50, color.NRGBA{R: 5, G: 5, B: 5, A: 255})

	out := NormalizeToCover(src, 40, 60)
	img := decodePNG(t, out)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestNormalizeToCoverInvalidInputPassesThrough(t *testing.T) {
	src := []byte("garbage")
	assert.Equal(t, src, NormalizeToCover(src, 10, 10))

	valid := testPNG(t, 8, 8, color.NRGBA{A: 255})
	assert.Equal(t, valid, NormalizeToCover(valid, 0, 10))
}

func TestDetectImageType(t *testing.T) {
	pngBytes := testPNG(t, 2, 2, color.NRGBA{A: 255})
	assert.Equal(t, "PNG", detectImageType(pngBytes))
	assert.Equal(t, "JPG", detectImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}))
	assert.Equal(t, "GIF", detectImageType([]byte("GIF89a.......")))
	assert.Equal(t, "", detectImageType([]byte("plain text")))
}

func TestReencodePNG(t *testing.T) {
	src := testPNG(t, 3, 3, color.NRGBA{R: 9, A: 255})
	out, ok := reencodePNG(src)
	require.True(t, ok)
	assert.Equal(t, "PNG", detectImageType(out))

	_, ok = reencodePNG([]byte("nope"))
	assert.False(t, ok)
}
