// Package render synthesizes the avatar SVG documents.
//
// Every renderer paints back to front: background, watermark text, the avatar
// bitmap, then the title, serial and footer with a drop shadow. Output is a
// self-contained 800x800 document whose only external content is the avatar
// bitmap inlined as a data URI.
package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"solana-avatar-lab/internal/domain"
)

const (
	Width  = 800
	Height = 800

	// avatar placement
	avatarCX   = Width / 2
	avatarCY   = 380
	avatarSize = 320
	ringRadius = 190

	shadowID     = "shadow"
	backgroundID = "bg"

	fontFamily = "font-family:'Arial Black','Helvetica Neue',Arial,sans-serif"
)

// ContentType is the media type of rendered documents.
const ContentType = "image/svg+xml"

// Renderer turns a derived identity into an SVG document.
type Renderer interface {
	Name() string
	Render(id *domain.Identity) ([]byte, error)
}

// AssetSource provides the avatar bitmap for an index as a data URI.
type AssetSource interface {
	DataURI(index int) (string, error)
}

// Brand is the text painted on every image.
type Brand struct {
	Name      string // title and watermark text
	FooterURL string
}

// DefaultBrand is used when no brand is configured.
var DefaultBrand = Brand{Name: "SOLFACE", FooterURL: "solface.app"}

// watermark is one decorative brand text element.
type watermark struct {
	x, y    int
	angle   int
	opacity float64
	size    int
}

// watermarks is the fixed constellation painted by the tier and classic renderers.
var watermarks = []watermark{
	{x: 120, y: 110, angle: -30, opacity: 0.08, size: 48},
	{x: 640, y: 150, angle: 25, opacity: 0.06, size: 40},
	{x: 90, y: 420, angle: -60, opacity: 0.05, size: 56},
	{x: 720, y: 460, angle: 60, opacity: 0.07, size: 44},
	{x: 200, y: 700, angle: 15, opacity: 0.06, size: 52},
	{x: 610, y: 690, angle: -20, opacity: 0.08, size: 36},
	{x: 400, y: 250, angle: 0, opacity: 0.04, size: 96},
	{x: 400, y: 560, angle: 180, opacity: 0.04, size: 64},
}

// backgroundPaint resolves a background into a fill and, for gradients, the
// stop list. The switch covers every Background variant.
func backgroundPaint(bg domain.Background) (fill string, stops []svg.Offcolor, err error) {
	switch b := bg.(type) {
	case domain.SolidBackground:
		return "fill:" + b.Color, nil, nil
	case domain.GradientBackground:
		return "fill:url(#" + backgroundID + ")", []svg.Offcolor{
			{Offset: 0, Color: b.Color1, Opacity: 1},
			{Offset: 100, Color: b.Color2, Opacity: 1},
		}, nil
	case nil:
		return "", nil, fmt.Errorf("render: missing background")
	default:
		return "", nil, fmt.Errorf("render: unsupported background %T", bg)
	}
}

// canvas wraps an svgo document with the shared layout steps.
type canvas struct {
	*svg.SVG
	buf   bytes.Buffer
	brand Brand
}

func newCanvas(brand Brand) *canvas {
	c := &canvas{brand: brand}
	c.SVG = svg.New(&c.buf)
	c.Start(Width, Height, fmt.Sprintf(`viewBox="0 0 %d %d"`, Width, Height))
	return c
}

// defs writes the optional background gradient and the drop-shadow filter.
func (c *canvas) defs(stops []svg.Offcolor, x1, y1, x2, y2 uint8) {
	c.Def()
	if len(stops) > 0 {
		c.LinearGradient(backgroundID, x1, y1, x2, y2, stops)
	}
	c.Filter(shadowID)
	c.FeGaussianBlur(svg.Filterspec{In: "SourceAlpha", Result: "blur"}, 4, 4)
	c.FeOffset(svg.Filterspec{In: "blur", Result: "offset"}, 0, 4)
	c.FeMerge([]string{"offset", "SourceGraphic"})
	c.Fend()
	c.DefEnd()
}

func (c *canvas) background(fill string) {
	c.Rect(0, 0, Width, Height, fill)
}

func (c *canvas) watermark(w watermark) {
	c.Text(w.x, w.y, c.brand.Name,
		fmt.Sprintf(`transform="rotate(%d %d %d)"`, w.angle, w.x, w.y),
		fmt.Sprintf("text-anchor:middle;%s;font-size:%dpx;fill:#FFFFFF;fill-opacity:%.2f", fontFamily, w.size, w.opacity))
}

// avatar paints the colored ring and the bitmap centered on it.
func (c *canvas) avatar(ringColor string, ringOpacity float64, dataURI string) {
	c.Circle(avatarCX, avatarCY, ringRadius, fmt.Sprintf("fill:%s;fill-opacity:%.2f", ringColor, ringOpacity))
	c.Image(avatarCX-avatarSize/2, avatarCY-avatarSize/2, avatarSize, avatarSize, dataURI)
}

// labels paints the title, serial and footer.
func (c *canvas) labels(serial string) {
	shadow := fmt.Sprintf(`filter="url(#%s)"`, shadowID)
	c.Text(Width/2, 110, c.brand.Name, shadow,
		fmt.Sprintf("text-anchor:middle;%s;font-size:72px;font-weight:900;fill:#FFFFFF", fontFamily))
	c.Text(Width/2, 660, "#"+serial, shadow,
		fmt.Sprintf("text-anchor:middle;%s;font-size:56px;font-weight:700;fill:#FFFFFF", fontFamily))
	c.Text(Width/2, 760, c.brand.FooterURL, shadow,
		fmt.Sprintf("text-anchor:middle;%s;font-size:24px;fill:#FFFFFF;fill-opacity:0.85", fontFamily))
}

func (c *canvas) bytes() []byte {
	c.End()
	return c.buf.Bytes()
}

// Fallback returns the static image served when rendering fails unexpectedly.
func Fallback(brand Brand) []byte {
	c := newCanvas(brand)
	c.defs(nil, 0, 0, 0, 0)
	c.background("fill:#2D3436")
	c.Circle(avatarCX, avatarCY, ringRadius, "fill:#636E72")
	c.Text(Width/2, avatarCY+30, "?",
		fmt.Sprintf("text-anchor:middle;%s;font-size:160px;fill:#DFE6E9", fontFamily))
	c.labels("0000")
	return c.bytes()
}
