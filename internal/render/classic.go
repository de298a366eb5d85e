package render

import (
	svg "github.com/ajstarks/svgo"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/gradient"
)

// ClassicRenderer paints the original design: one of twelve named gradients
// selected by hash mod 12. It ignores the balance and the tier palette.
type ClassicRenderer struct {
	brand  Brand
	assets AssetSource
}

// NewClassicRenderer creates a ClassicRenderer.
func NewClassicRenderer(brand Brand, assets AssetSource) *ClassicRenderer {
	return &ClassicRenderer{brand: brand, assets: assets}
}

// Name implements Renderer.
func (r *ClassicRenderer) Name() string { return "classic" }

// Render implements Renderer.
func (r *ClassicRenderer) Render(id *domain.Identity) ([]byte, error) {
	uri, err := r.assets.DataURI(id.AvatarIndex())
	if err != nil {
		return nil, err
	}

	g := gradient.ForHash(id.Hash)
	x1, y1, x2, y2 := g.Vector()

	c := newCanvas(r.brand)
	c.Title(g.Name)
	c.defs([]svg.Offcolor{
		{Offset: 0, Color: g.From, Opacity: 1},
		{Offset: 100, Color: g.To, Opacity: 1},
	}, x1, y1, x2, y2)
	c.background("fill:url(#" + backgroundID + ")")
	for _, w := range watermarks {
		c.watermark(w)
	}
	c.avatar("#FFFFFF", 0.2, uri)
	c.labels(id.SerialNumber)
	return c.bytes(), nil
}
