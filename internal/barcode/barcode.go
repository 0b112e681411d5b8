// Package barcode renders linear symbologies through boombuler/barcode.
package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
)

var (
	ErrUnsupported    = errors.New("unsupported barcode type")
	ErrInvalidContent = errors.New("invalid barcode content")
)

// MaxContentLen caps the input in bytes. Code 39 and Code 93 place no limit
// of their own, and encoding cost grows with the length.
const MaxContentLen = 4096

// Symbology is the form value naming a linear code.
type Symbology string

const (
	Code128 Symbology = "C128"
	Code39  Symbology = "C39"
	Code93  Symbology = "C93"
	EAN13   Symbology = "EAN13"
	EAN8    Symbology = "EAN8"
)

// Symbologies lists the supported codes in the order the form offers them.
var Symbologies = []Symbology{Code128, Code39, EAN13, EAN8, Code93}

func (s Symbology) Label() string {
	switch s {
	case Code128:
		return "Code 128"
	case Code39:
		return "Code 39"
	case Code93:
		return "Code 93"
	case EAN13:
		return "EAN-13"
	case EAN8:
		return "EAN-8"
	}
	return string(s)
}

// Options set the pixel width of one narrow module and the bar height.
type Options struct {
	ModuleWidth int
	Height      int
}

func DefaultOptions() Options {
	return Options{ModuleWidth: 2, Height: 100}
}

func (o Options) Scaled(factor int) Options {
	if factor <= 1 {
		return o
	}
	o.ModuleWidth *= factor
	o.Height *= factor
	return o
}

// Encode produces the unscaled symbol, one pixel per module.
// Encoder failures keep the library's message and wrap ErrInvalidContent.
func Encode(content string, sym Symbology) (barcode.Barcode, error) {
	if len(content) > MaxContentLen {
		return nil, &contentError{err: fmt.Errorf("content too long: %d bytes, limit %d", len(content), MaxContentLen)}
	}
	var (
		bc  barcode.Barcode
		err error
	)
	switch sym {
	case Code128:
		bc, err = code128.Encode(content)
	case Code39:
		bc, err = code39.Encode(strings.ToUpper(content), false, false)
	case Code93:
		bc, err = code93.Encode(strings.ToUpper(content), true, false)
	case EAN13:
		if err = checkDigits(content, "EAN-13", 12, 13); err != nil {
			return nil, err
		}
		bc, err = ean.Encode(content)
	case EAN8:
		if err = checkDigits(content, "EAN-8", 7, 8); err != nil {
			return nil, err
		}
		bc, err = ean.Encode(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, string(sym))
	}
	if err != nil {
		return nil, &contentError{err: err}
	}
	return bc, nil
}

// checkDigits enforces the length ean.Encode would otherwise reinterpret as
// a different EAN variant.
func checkDigits(content, name string, lengths ...int) error {
	for _, r := range content {
		if r < '0' || r > '9' {
			return &contentError{err: fmt.Errorf("%s accepts digits only", name)}
		}
	}
	for _, n := range lengths {
		if len(content) == n {
			return nil
		}
	}
	return &contentError{err: fmt.Errorf("%s requires %d or %d digits, got %d", name, lengths[0], lengths[1], len(content))}
}

type contentError struct{ err error }

func (e *contentError) Error() string { return e.err.Error() }

func (e *contentError) Is(target error) bool { return target == ErrInvalidContent }

func (e *contentError) Unwrap() error { return e.err }

func PNG(content string, sym Symbology, opts Options) ([]byte, error) {
	bc, err := Encode(content, sym)
	if err != nil {
		return nil, err
	}
	modules := bc.Bounds().Dx()
	scaled, err := barcode.Scale(bc, modules*opts.ModuleWidth, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode barcode png: %w", err)
	}
	return buf.Bytes(), nil
}

func SVG(content string, sym Symbology, opts Options) ([]byte, error) {
	bc, err := Encode(content, sym)
	if err != nil {
		return nil, err
	}
	b := bc.Bounds()
	w := b.Dx() * opts.ModuleWidth

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" standalone="no"?>` + "\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d">`, w, opts.Height, w, opts.Height)
	fmt.Fprintf(&buf, `<desc>%s</desc>`, escape(xmlChars(bc.Content())))
	buf.WriteString(`<g fill="black" stroke="none">`)
	run := 0
	for x := b.Min.X; x <= b.Max.X; x++ {
		if x < b.Max.X && isBar(bc, x, b.Min.Y) {
			run++
			continue
		}
		if run > 0 {
			start := x - b.Min.X - run
			fmt.Fprintf(&buf, `<rect x="%d" y="0" width="%d" height="%d"/>`, start*opts.ModuleWidth, run*opts.ModuleWidth, opts.Height)
			run = 0
		}
	}
	buf.WriteString(`</g></svg>`)
	return buf.Bytes(), nil
}

func isBar(bc barcode.Barcode, x, y int) bool {
	r, g, b, _ := bc.At(x, y).RGBA()
	return r+g+b < 3*0x8000
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return svgEscaper.Replace(s) }

// xmlChars drops runes XML 1.0 cannot carry, such as the control codes
// Code 128 accepts.
func xmlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == utf8.RuneError, r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}
