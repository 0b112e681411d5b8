// Package qr renders QR symbols as PNG and SVG with a pixel quiet zone.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

var ErrUnknownLevel = errors.New("unknown error correction level")

// Options control the rendered geometry. Size is the symbol edge in pixels,
// Margin the white border added on every side.
type Options struct {
	Size   int
	Margin int
	Level  qrcode.RecoveryLevel
}

// DefaultOptions are the form defaults: 300px symbol, 10px margin, 30% recovery.
func DefaultOptions() Options {
	return Options{Size: 300, Margin: 10, Level: qrcode.Highest}
}

// Scaled multiplies the geometry by factor, keeping the recovery level.
func (o Options) Scaled(factor int) Options {
	if factor <= 1 {
		return o
	}
	o.Size *= factor
	o.Margin *= factor
	return o
}

// ParseLevel maps a config name to a recovery level.
// "high" is the 30% level, matching the usual L/M/Q/H naming.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "l", "low":
		return qrcode.Low, nil
	case "m", "medium":
		return qrcode.Medium, nil
	case "q", "quartile":
		return qrcode.High, nil
	case "h", "high", "highest", "":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

func encode(content string, level qrcode.RecoveryLevel) (*qrcode.QRCode, error) {
	q, err := qrcode.New(content, level)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q, nil
}

// layout places the module matrix on a square canvas of Size+2*Margin pixels.
// Modules are ppm pixels wide and the symbol is centred, so any remainder of
// Size that does not divide evenly joins the margin.
type layout struct {
	bitmap [][]bool
	ppm    int
	offset int
	width  int
}

func newLayout(content string, opts Options) (layout, error) {
	q, err := encode(content, opts.Level)
	if err != nil {
		return layout{}, err
	}
	bitmap := q.Bitmap()
	n := len(bitmap)
	if n == 0 {
		return layout{}, fmt.Errorf("empty qr")
	}
	size := opts.Size
	if size < n {
		size = n
	}
	ppm := size / n
	return layout{
		bitmap: bitmap,
		ppm:    ppm,
		offset: opts.Margin + (size-n*ppm)/2,
		width:  size + 2*opts.Margin,
	}, nil
}

// module is the pixel rectangle of module (x, y).
func (l layout) module(x, y int) image.Rectangle {
	return image.Rect(l.offset+x*l.ppm, l.offset+y*l.ppm, l.offset+(x+1)*l.ppm, l.offset+(y+1)*l.ppm)
}

func PNG(content string, opts Options) ([]byte, error) {
	l, err := newLayout(content, opts)
	if err != nil {
		return nil, err
	}
	canvas := imaging.New(l.width, l.width, color.White)
	black := image.NewUniform(color.Black)
	for y, row := range l.bitmap {
		for x, dark := range row {
			if dark {
				draw.Draw(canvas, l.module(x, y), black, image.Point{}, draw.Src)
			}
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SVG draws the PNG's module layout as rects.
func SVG(content string, opts Options) ([]byte, error) {
	l, err := newLayout(content, opts)
	if err != nil {
		return nil, err
	}
	w := l.width

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, w, w, w, w)
	buf.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	for y, row := range l.bitmap {
		for x, dark := range row {
			if dark {
				m := l.module(x, y)
				fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="black"/>`, m.Min.X, m.Min.Y, l.ppm, l.ppm)
			}
		}
	}
	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}
