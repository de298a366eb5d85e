// Package raster converts rendered SVG documents to PNG.
//
// Vector shapes go through oksvg/rasterx. oksvg skips <image> and <text>, so
// inlined PNG data URIs are composited with x/image/draw and unrotated text is
// drawn with the Go Bold face. Rotated watermark text is not rasterized.
package raster

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrRasterize is returned for any conversion failure. Callers serve the SVG instead.
var ErrRasterize = errors.New("rasterize failed")

const (
	// BaseDensity maps one SVG user unit to one output pixel.
	BaseDensity = 72
	// MaxDimension bounds the output width and height in pixels.
	MaxDimension = 4096

	pngDataPrefix = "data:image/png;base64,"
)

// Rasterizer converts SVG to PNG. It is safe for concurrent use.
type Rasterizer struct {
	font *opentype.Font
}

// New parses the embedded label font.
func New() (*Rasterizer, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	return &Rasterizer{font: f}, nil
}

// Rasterize renders doc at density dots per inch, where BaseDensity yields
// one pixel per user unit.
func (r *Rasterizer) Rasterize(doc []byte, density float64) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", ErrRasterize, p)
		}
	}()

	if density <= 0 || math.IsNaN(density) || math.IsInf(density, 0) {
		return nil, fmt.Errorf("%w: density %v", ErrRasterize, density)
	}
	scale := density / BaseDensity

	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: parse svg: %v", ErrRasterize, err)
	}
	w := int(math.Round(icon.ViewBox.W * scale))
	h := int(math.Round(icon.ViewBox.H * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty canvas", ErrRasterize)
	}
	if w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrRasterize, w, h, MaxDimension)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	overlays, err := parseOverlays(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	for _, im := range overlays.images {
		if err := drawImage(img, im, scale); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
		}
	}
	for _, t := range overlays.texts {
		if err := r.drawText(img, t, scale); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRasterize, err)
	}
	return buf.Bytes(), nil
}

type imageElem struct {
	x, y, w, h float64
	href       string
}

type textElem struct {
	x, y    float64
	content string
	size    float64
	fill    color.Color
	opacity float64
	anchor  string
}

type overlays struct {
	images []imageElem
	texts  []textElem
}

// parseOverlays collects the elements oksvg ignores, in document order per kind.
func parseOverlays(doc []byte) (overlays, error) {
	var out overlays
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var cur *textElem
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("scan svg: %w", err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "image":
				out.images = append(out.images, imageElem{
					x:    attrFloat(se.Attr, "x"),
					y:    attrFloat(se.Attr, "y"),
					w:    attrFloat(se.Attr, "width"),
					h:    attrFloat(se.Attr, "height"),
					href: attr(se.Attr, "href"),
				})
			case "text":
				if attr(se.Attr, "transform") != "" {
					continue
				}
				t := textElem{
					x:       attrFloat(se.Attr, "x"),
					y:       attrFloat(se.Attr, "y"),
					size:    16,
					fill:    color.Black,
					opacity: 1,
				}
				applyStyle(&t, attr(se.Attr, "style"))
				cur = &t
			}
		case xml.CharData:
			if cur != nil {
				cur.content += string(se)
			}
		case xml.EndElement:
			if se.Name.Local == "text" && cur != nil {
				out.texts = append(out.texts, *cur)
				cur = nil
			}
		}
	}
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrFloat(attrs []xml.Attr, name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(attr(attrs, name), "px"), 64)
	if err != nil {
		return 0
	}
	return v
}

func applyStyle(t *textElem, style string) {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "font-size":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && f > 0 {
				t.size = f
			}
		case "fill":
			if c, err := colorful.Hex(v); err == nil {
				t.fill = c
			}
		case "fill-opacity":
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				t.opacity = f
			}
		case "text-anchor":
			t.anchor = v
		}
	}
}

func drawImage(dst *image.RGBA, im imageElem, scale float64) error {
	if !strings.HasPrefix(im.href, pngDataPrefix) {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(im.href, pngDataPrefix))
	if err != nil {
		return fmt.Errorf("decode image data: %w", err)
	}
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode png: %w", err)
	}
	rect := image.Rect(
		int(math.Round(im.x*scale)),
		int(math.Round(im.y*scale)),
		int(math.Round((im.x+im.w)*scale)),
		int(math.Round((im.y+im.h)*scale)),
	)
	xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Over, nil)
	return nil
}

func (r *Rasterizer) drawText(dst *image.RGBA, t textElem, scale float64) error {
	content := strings.TrimSpace(t.content)
	if content == "" {
		return nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    t.size * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	cr, cg, cb, _ := t.fill.RGBA()
	src := image.NewUniform(color.NRGBA{
		R: uint8(cr >> 8),
		G: uint8(cg >> 8),
		B: uint8(cb >> 8),
		A: uint8(math.Round(255 * math.Max(0, math.Min(1, t.opacity)))),
	})

	x := fixed.Int26_6(math.Round(t.x * scale * 64))
	y := fixed.Int26_6(math.Round(t.y * scale * 64))
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	switch t.anchor {
	case "middle":
		x -= d.MeasureString(content) / 2
	case "end":
		x -= d.MeasureString(content)
	}
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(content)
	return nil
}
