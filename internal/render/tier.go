package render

import (
	"solana-avatar-lab/internal/domain"
)

// TierRenderer paints the balance-aware design: the avatar color and the
// solid or gradient background come from the 69-color tier palette.
type TierRenderer struct {
	brand  Brand
	assets AssetSource
}

// NewTierRenderer creates a TierRenderer.
func NewTierRenderer(brand Brand, assets AssetSource) *TierRenderer {
	return &TierRenderer{brand: brand, assets: assets}
}

// Name implements Renderer.
func (r *TierRenderer) Name() string { return "tier" }

// Render implements Renderer.
func (r *TierRenderer) Render(id *domain.Identity) ([]byte, error) {
	fill, stops, err := backgroundPaint(id.Background)
	if err != nil {
		return nil, err
	}
	uri, err := r.assets.DataURI(id.AvatarIndex())
	if err != nil {
		return nil, err
	}

	c := newCanvas(r.brand)
	c.defs(stops, 0, 0, 100, 100)
	c.background(fill)
	for _, w := range watermarks {
		c.watermark(w)
	}
	c.avatar(id.AvatarColor, 1, uri)
	c.labels(id.SerialNumber)
	return c.bytes(), nil
}
