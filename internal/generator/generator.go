// Package generator maps a form submission to rendered QR or barcode images
// and builds file downloads from them.
package generator

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/yuzeguitarist/qrgen/internal/barcode"
	"github.com/yuzeguitarist/qrgen/internal/qr"
)

const pngDataURIPrefix = "data:image/png;base64,"

var (
	ErrNoImage    = errors.New("result holds no image")
	ErrBadDataURI = errors.New("malformed png data uri")
)

type Kind string

const (
	KindQR      Kind = "qr"
	KindBarcode Kind = "barcode"
)

// ParseKind treats any value other than exactly "qr" as a barcode request.
// An empty value means the field was left out and defaults to a QR code.
func ParseKind(s string) Kind {
	if s == "" || s == string(KindQR) {
		return KindQR
	}
	return KindBarcode
}

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatSVG)) {
		return FormatSVG
	}
	return FormatPNG
}

type Resolution string

const (
	ResolutionNormal Resolution = "normal"
	ResolutionHigh   Resolution = "high"
)

func ParseResolution(s string) Resolution {
	if strings.EqualFold(strings.TrimSpace(s), string(ResolutionHigh)) {
		return ResolutionHigh
	}
	return ResolutionNormal
}

// Scale is the geometry multiplier for the resolution.
func (r Resolution) Scale() int {
	if r == ResolutionHigh {
		return 2
	}
	return 1
}

// Request is one submission. Symbology is ignored for QR codes.
type Request struct {
	Text      string
	Kind      Kind
	Symbology barcode.Symbology
	Scale     int
}

// Result carries either both renderings or an error message, never a mix.
type Result struct {
	PNGDataURI string `json:"png,omitempty"`
	SVG        string `json:"svg,omitempty"`
	Err        string `json:"error,omitempty"`
}

func (r Result) OK() bool { return r.Err == "" && r.PNGDataURI != "" }

// SVGDataURI wraps the SVG markup for use in an <img> src.
func (r Result) SVGDataURI() string {
	if r.SVG == "" {
		return ""
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(r.SVG))
}

func failed(err error) Result { return Result{Err: err.Error()} }

// Generator holds the fixed encoder parameters.
type Generator struct {
	QR      qr.Options
	Barcode barcode.Options
}

func New(q qr.Options, b barcode.Options) *Generator {
	return &Generator{QR: q, Barcode: b}
}

func Default() *Generator {
	return New(qr.DefaultOptions(), barcode.DefaultOptions())
}

// Generate renders the request. Encoder failures come back in Result.Err with
// the encoder's own message.
func (g *Generator) Generate(req Request) Result {
	var (
		png, svg []byte
		err      error
	)
	switch req.Kind {
	case KindQR:
		opts := g.QR.Scaled(req.Scale)
		if png, err = qr.PNG(req.Text, opts); err != nil {
			return failed(err)
		}
		if svg, err = qr.SVG(req.Text, opts); err != nil {
			return failed(err)
		}
	default:
		sym := req.Symbology
		if sym == "" {
			sym = barcode.Code128
		}
		opts := g.Barcode.Scaled(req.Scale)
		if png, err = barcode.PNG(req.Text, sym, opts); err != nil {
			return failed(err)
		}
		if svg, err = barcode.SVG(req.Text, sym, opts); err != nil {
			return failed(err)
		}
	}
	return Result{
		PNGDataURI: pngDataURIPrefix + base64.StdEncoding.EncodeToString(png),
		SVG:        string(svg),
	}
}

type DownloadRequest struct {
	Format     Format
	Resolution Resolution
	Kind       Kind
	Source     Result
}

type Download struct {
	Body        []byte
	Filename    string
	ContentType string
}

// Filename is the suggested attachment name, e.g. qr_code.png.
func Filename(kind Kind, format Format) string {
	return fmt.Sprintf("%s_code.%s", kind, format)
}

// PrepareDownload turns a successful result into attachment bytes. Resolution
// is applied by the caller when it builds Source.
func PrepareDownload(d DownloadRequest) (Download, error) {
	if d.Source.Err != "" || d.Source.PNGDataURI == "" {
		return Download{}, ErrNoImage
	}
	out := Download{
		Filename:    Filename(d.Kind, d.Format),
		ContentType: "application/octet-stream",
	}
	switch d.Format {
	case FormatSVG:
		out.Body = []byte(d.Source.SVG)
	default:
		_, payload, ok := strings.Cut(d.Source.PNGDataURI, ",")
		if !ok {
			return Download{}, ErrBadDataURI
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Download{}, fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
		out.Body = b
	}
	return out, nil
}
