package generator

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzeguitarist/qrgen/internal/barcode"
)

func TestGenerateQR(t *testing.T) {
	res := Default().Generate(Request{Text: "HELLO", Kind: KindQR})
	require.Empty(t, res.Err)
	assert.True(t, strings.HasPrefix(res.PNGDataURI, "data:image/png;base64,"))
	assert.Contains(t, res.SVG, "<svg")
	assert.True(t, res.OK())
}

func TestGenerateQRIgnoresSymbology(t *testing.T) {
	g := Default()
	a := g.Generate(Request{Text: "HELLO", Kind: KindQR})
	b := g.Generate(Request{Text: "HELLO", Kind: KindQR, Symbology: barcode.EAN13})
	assert.Equal(t, a, b)
}

func TestGenerateBarcode(t *testing.T) {
	res := Default().Generate(Request{Text: "Order #42", Kind: KindBarcode, Symbology: barcode.Code128})
	require.Empty(t, res.Err)
	assert.NotEmpty(t, res.PNGDataURI)
	assert.Contains(t, res.SVG, "<svg")
}

func TestGenerateEAN13Error(t *testing.T) {
	for _, text := range []string{"123", "hello world"} {
		res := Default().Generate(Request{Text: text, Kind: KindBarcode, Symbology: barcode.EAN13})
		assert.NotEmpty(t, res.Err, text)
		assert.Empty(t, res.PNGDataURI, text)
		assert.Empty(t, res.SVG, text)
		assert.False(t, res.OK())
	}
}

func TestGenerateRejectsLongText(t *testing.T) {
	g := Default()
	long := strings.Repeat("A", barcode.MaxContentLen+1)
	for _, req := range []Request{
		{Text: long, Kind: KindBarcode, Symbology: barcode.Code39},
		{Text: long, Kind: KindBarcode, Symbology: barcode.Code93},
		{Text: long, Kind: KindQR},
	} {
		res := g.Generate(req)
		assert.NotEmpty(t, res.Err, req.Symbology)
		assert.Empty(t, res.PNGDataURI)
		assert.Empty(t, res.SVG)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	g := Default()
	for _, req := range []Request{
		{Text: "HELLO", Kind: KindQR},
		{Text: "HELLO", Kind: KindBarcode, Symbology: barcode.Code39},
	} {
		assert.Equal(t, g.Generate(req), g.Generate(req))
	}
}

func TestGenerateScale(t *testing.T) {
	g := Default()
	normal := g.Generate(Request{Text: "HELLO", Kind: KindQR})
	high := g.Generate(Request{Text: "HELLO", Kind: KindQR, Scale: ResolutionHigh.Scale()})

	dn, err := PrepareDownload(DownloadRequest{Format: FormatPNG, Kind: KindQR, Source: normal})
	require.NoError(t, err)
	dh, err := PrepareDownload(DownloadRequest{Format: FormatPNG, Kind: KindQR, Source: high})
	require.NoError(t, err)

	in, err := png.Decode(bytes.NewReader(dn.Body))
	require.NoError(t, err)
	ih, err := png.Decode(bytes.NewReader(dh.Body))
	require.NoError(t, err)
	assert.Equal(t, 2*in.Bounds().Dx(), ih.Bounds().Dx())
}

func TestPrepareDownloadPNG(t *testing.T) {
	res := Default().Generate(Request{Text: "HELLO", Kind: KindQR})
	d, err := PrepareDownload(DownloadRequest{Format: FormatPNG, Kind: KindQR, Source: res})
	require.NoError(t, err)
	assert.Equal(t, "qr_code.png", d.Filename)
	assert.Equal(t, "application/octet-stream", d.ContentType)

	want, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.PNGDataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, want, d.Body)
	_, err = png.Decode(bytes.NewReader(d.Body))
	assert.NoError(t, err)
}

func TestPrepareDownloadSVG(t *testing.T) {
	res := Default().Generate(Request{Text: "12345", Kind: KindBarcode, Symbology: barcode.Code128})
	d, err := PrepareDownload(DownloadRequest{Format: FormatSVG, Kind: KindBarcode, Source: res})
	require.NoError(t, err)
	assert.Equal(t, "barcode_code.svg", d.Filename)
	assert.Equal(t, res.SVG, string(d.Body))
}

func TestPrepareDownloadRejectsError(t *testing.T) {
	_, err := PrepareDownload(DownloadRequest{Format: FormatPNG, Kind: KindBarcode, Source: Result{Err: "bad"}})
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = PrepareDownload(DownloadRequest{Format: FormatPNG, Kind: KindQR, Source: Result{PNGDataURI: "garbage", SVG: "<svg/>"}})
	assert.ErrorIs(t, err, ErrBadDataURI)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "qr_code.svg", Filename(KindQR, FormatSVG))
	assert.Equal(t, "barcode_code.png", Filename(KindBarcode, FormatPNG))
}

func TestParse(t *testing.T) {
	assert.Equal(t, KindQR, ParseKind(""))
	assert.Equal(t, KindBarcode, ParseKind("QR"))
	assert.Equal(t, KindBarcode, ParseKind(" qr"))
	assert.Equal(t, KindBarcode, ParseKind("barcode"))
	assert.Equal(t, KindBarcode, ParseKind("anything"))
	assert.Equal(t, FormatSVG, ParseFormat("svg"))
	assert.Equal(t, FormatPNG, ParseFormat("gif"))
	assert.Equal(t, ResolutionHigh, ParseResolution("HIGH"))
	assert.Equal(t, 1, ParseResolution("").Scale())
}

func TestSVGDataURI(t *testing.T) {
	res := Result{PNGDataURI: "x", SVG: "<svg/>"}
	assert.Equal(t, "data:image/svg+xml;base64,PHN2Zy8+", res.SVGDataURI())
	assert.Empty(t, Result{}.SVGDataURI())
}
