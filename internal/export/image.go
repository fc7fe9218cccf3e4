package export

import (
	"bytes"
	"log/slog"

	"github.com/disintegration/imaging"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// ApplyOpacity scales the alpha channel of every pixel by opacity, clamped
// to [0,1], and re-encodes the image as PNG. Opacity >= 1 is the identity
// and returns the input bytes untouched. Decode or encode failures also
// return the input untouched; a broken image must never break an export.
func ApplyOpacity(img []byte, opacity float64) []byte {
	if opacity >= 1 {
		return img
	}
	if opacity < 0 {
		opacity = 0
	}

	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		slog.Warn("export.image.apply_opacity_decode_failed", "error", err)
		return img
	}

	nrgba := imaging.Clone(src)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = uint8(float64(nrgba.Pix[i])*opacity + 0.5)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, nrgba, imaging.PNG); err != nil {
		slog.Warn("export.image.apply_opacity_encode_failed", "error", err)
		return img
	}
	return buf.Bytes()
}

// NormalizeToCover scales the image proportionally so both dimensions reach
// at least the target, then center-crops to exactly width x height. On any
// failure the input bytes come back unchanged.
func NormalizeToCover(img []byte, width, height int) []byte {
	if width <= 0 || height <= 0 {
		return img
	}

	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		slog.Warn("export.image.normalize_decode_failed", "error", err)
		return img
	}

	filled := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, filled, imaging.PNG); err != nil {
		slog.Warn("export.image.normalize_encode_failed", "error", err)
		return img
	}
	return buf.Bytes()
}

// detectImageType sniffs the format name gofpdf expects for registration.
func detectImageType(b []byte) string {
	switch {
	case len(b) > 8 && bytes.Equal(b[:8], pngMagic):
		return "PNG"
	case len(b) > 3 && b[0] == 0xFF && b[1] == 0xD8:
		return "JPG"
	case len(b) > 6 && (bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a"))):
		return "GIF"
	default:
		return ""
	}
}

// reencodePNG decodes and re-encodes arbitrary raster bytes as PNG so only
// images gofpdf is guaranteed to accept ever reach a document.
func reencodePNG(b []byte) ([]byte, bool) {
	src, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, false
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
