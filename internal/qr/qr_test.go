package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	gozxingqr "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	b, err := PNG("hello", DefaultOptions())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte{0x89, 'P', 'N', 'G'}), "not png")

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestPNGDecodesToContent(t *testing.T) {
	b, err := PNG("https://example.com/?q=HELLO", DefaultOptions())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_PURE_BARCODE: true}
	res, err := gozxingqr.NewQRCodeReader().Decode(bmp, hints)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/?q=HELLO", res.GetText())
}

func TestSVG(t *testing.T) {
	b, err := SVG("hello", DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")
	assert.Contains(t, string(b), `width="320"`)
}

func TestPNGAndSVGShareModules(t *testing.T) {
	opts := DefaultOptions()
	l, err := newLayout("hello", opts)
	require.NoError(t, err)
	require.Greater(t, l.ppm, 1)

	b, err := PNG("hello", opts)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	svg, err := SVG("hello", opts)
	require.NoError(t, err)

	isDark := func(p image.Point) bool {
		r, _, _, _ := img.At(p.X, p.Y).RGBA()
		return r < 0x8000
	}
	for y, row := range l.bitmap {
		for x, dark := range row {
			m := l.module(x, y)
			assert.Equal(t, dark, isDark(m.Min), "module %d,%d top-left", x, y)
			assert.Equal(t, dark, isDark(m.Max.Sub(image.Pt(1, 1))), "module %d,%d bottom-right", x, y)
			if dark {
				rect := fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="black"/>`, m.Min.X, m.Min.Y, l.ppm, l.ppm)
				assert.Contains(t, string(svg), rect)
			}
		}
	}
	assert.False(t, isDark(image.Pt(l.offset-1, l.offset)), "margin")
}

func TestDeterministic(t *testing.T) {
	a, err := PNG("HELLO", DefaultOptions())
	require.NoError(t, err)
	b, err := PNG("HELLO", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s1, _ := SVG("HELLO", DefaultOptions())
	s2, _ := SVG("HELLO", DefaultOptions())
	assert.Equal(t, s1, s2)
}

func TestScaled(t *testing.T) {
	o := DefaultOptions().Scaled(2)
	assert.Equal(t, 600, o.Size)
	assert.Equal(t, 20, o.Margin)
	assert.Equal(t, DefaultOptions(), DefaultOptions().Scaled(1))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("High")
	require.NoError(t, err)
	assert.Equal(t, qrcode.Highest, lvl)

	lvl, err = ParseLevel("medium")
	require.NoError(t, err)
	assert.Equal(t, qrcode.Medium, lvl)

	_, err = ParseLevel("ultra")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}
