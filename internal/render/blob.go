package render

import (
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/gradient"
)

const (
	blobCount       = 3
	blobPoints      = 6
	watermarkRadius = 280
)

// BlobRenderer paints procedural blobs over the named gradient. Unlike the
// other renderers the watermark count and rotation derive from the hash.
type BlobRenderer struct {
	brand  Brand
	assets AssetSource
}

// NewBlobRenderer creates a BlobRenderer.
func NewBlobRenderer(brand Brand, assets AssetSource) *BlobRenderer {
	return &BlobRenderer{brand: brand, assets: assets}
}

// Name implements Renderer.
func (r *BlobRenderer) Name() string { return "blob" }

// WatermarkCount returns 3 + hash mod 5.
func WatermarkCount(hash uint32) int {
	return 3 + int(hash%5)
}

// WatermarkRotation returns hash mod 360.
func WatermarkRotation(hash uint32) int {
	return int(hash % 360)
}

// Render implements Renderer.
func (r *BlobRenderer) Render(id *domain.Identity) ([]byte, error) {
	uri, err := r.assets.DataURI(id.AvatarIndex())
	if err != nil {
		return nil, err
	}

	g := gradient.ForHash(id.Hash)
	x1, y1, x2, y2 := g.Vector()

	c := newCanvas(r.brand)
	c.defs([]svg.Offcolor{
		{Offset: 0, Color: g.From, Opacity: 1},
		{Offset: 100, Color: g.To, Opacity: 1},
	}, x1, y1, x2, y2)
	c.background("fill:url(#" + backgroundID + ")")

	colors := append([]string{id.AvatarColor}, id.Background.Colors()...)
	seq := newSequence(id.Hash)
	for i := 0; i < blobCount; i++ {
		c.Path(blobPath(seq), fmt.Sprintf("fill:%s;fill-opacity:0.35", colors[i%len(colors)]))
	}

	n := WatermarkCount(id.Hash)
	base := WatermarkRotation(id.Hash)
	for i := 0; i < n; i++ {
		angle := (base + i*360/n) % 360
		rad := float64(angle) * math.Pi / 180
		c.watermark(watermark{
			x:       avatarCX + int(math.Round(watermarkRadius*math.Cos(rad))),
			y:       avatarCY + int(math.Round(watermarkRadius*math.Sin(rad))),
			angle:   angle,
			opacity: 0.07,
			size:    40,
		})
	}

	c.avatar(id.AvatarColor, 0.9, uri)
	c.labels(id.SerialNumber)
	return c.bytes(), nil
}

// sequence is a deterministic 32-bit LCG seeded by the address hash.
type sequence struct {
	state uint32
}

func newSequence(seed uint32) *sequence {
	return &sequence{state: seed}
}

// next returns a value in [0, n).
func (s *sequence) next(n int) int {
	s.state = s.state*1664525 + 1013904223
	return int((s.state >> 8) % uint32(n))
}

// blobPath builds a closed smooth shape around a random center.
func blobPath(seq *sequence) string {
	cx := 150 + seq.next(Width-300)
	cy := 150 + seq.next(Height-300)
	base := 90 + seq.next(110)

	type point struct{ x, y float64 }
	pts := make([]point, blobPoints)
	for i := range pts {
		rad := 2 * math.Pi * float64(i) / blobPoints
		radius := float64(base + seq.next(60) - 30)
		pts[i] = point{
			x: float64(cx) + radius*math.Cos(rad),
			y: float64(cy) + radius*math.Sin(rad),
		}
	}

	// Quadratic curves through segment midpoints give a smooth closed outline.
	mid := func(a, b point) point { return point{(a.x + b.x) / 2, (a.y + b.y) / 2} }
	var d strings.Builder
	start := mid(pts[blobPoints-1], pts[0])
	fmt.Fprintf(&d, "M%.1f,%.1f", start.x, start.y)
	for i := 0; i < blobPoints; i++ {
		ctrl := pts[i]
		end := mid(pts[i], pts[(i+1)%blobPoints])
		fmt.Fprintf(&d, " Q%.1f,%.1f %.1f,%.1f", ctrl.x, ctrl.y, end.x, end.y)
	}
	d.WriteString(" Z")
	return d.String()
}
