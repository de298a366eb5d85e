package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/identity"
)

const (
	wrappedSOL = "So11111111111111111111111111111111111111112" // even hash, gradient
	solidAddr  = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T" // odd hash, solid
)

var errNoAsset = errors.New("no asset")

type fakeAssets struct {
	requested []int
	err       error
}

func (f *fakeAssets) DataURI(index int) (string, error) {
	f.requested = append(f.requested, index)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("data:image/png;base64,QVNTRVQt%d", index), nil
}

func derive(t *testing.T, address string, balance float64) *domain.Identity {
	t.Helper()
	id, err := identity.Derive(address, balance)
	require.NoError(t, err)
	return id
}

// wellFormed decodes the whole document and counts elements by local name.
func wellFormed(t *testing.T, doc []byte) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
	return counts
}

func TestTierRenderer_Gradient(t *testing.T) {
	assets := &fakeAssets{}
	r := NewTierRenderer(DefaultBrand, assets)
	id := derive(t, wrappedSOL, 0)

	doc, err := r.Render(id)
	require.NoError(t, err)
	s := string(doc)

	counts := wellFormed(t, doc)
	assert.Equal(t, 1, counts["svg"])
	assert.Equal(t, 1, counts["linearGradient"])
	assert.Equal(t, 1, counts["filter"])
	assert.Equal(t, 1, counts["image"])
	assert.Equal(t, len(watermarks)+3, counts["text"])

	assert.Contains(t, s, `width="800" height="800"`)
	assert.Contains(t, s, `stop-color="#45B7D1"`)
	assert.Contains(t, s, `stop-color="#F8B500"`)
	assert.Contains(t, s, "fill:url(#bg)")
	assert.Contains(t, s, "fill:#F5B041")
	assert.Contains(t, s, "#0514")
	assert.Contains(t, s, "solface.app")
	assert.Contains(t, s, "data:image/png;base64,QVNTRVQt4")
	assert.Equal(t, []int{4}, assets.requested)
}

func TestTierRenderer_Solid(t *testing.T) {
	r := NewTierRenderer(DefaultBrand, &fakeAssets{})
	doc, err := r.Render(derive(t, solidAddr, 0))
	require.NoError(t, err)

	counts := wellFormed(t, doc)
	assert.Zero(t, counts["linearGradient"])
	assert.Contains(t, string(doc), "fill:#7a3e16")
	assert.Contains(t, string(doc), "fill:#85C1E9")
	assert.Contains(t, string(doc), "#5362")
}

func TestTierRenderer_StackingOrder(t *testing.T) {
	r := NewTierRenderer(DefaultBrand, &fakeAssets{})
	doc, err := r.Render(derive(t, wrappedSOL, 0))
	require.NoError(t, err)
	s := string(doc)

	bg := strings.Index(s, "<rect")
	wm := strings.Index(s, "rotate(")
	img := strings.Index(s, "<image")
	serial := strings.Index(s, "#0514")
	require.True(t, bg >= 0 && wm >= 0 && img >= 0 && serial >= 0)
	assert.Less(t, bg, wm)
	assert.Less(t, wm, img)
	assert.Less(t, img, serial)
}

func TestRenderers_Deterministic(t *testing.T) {
	renderers := []Renderer{
		NewTierRenderer(DefaultBrand, &fakeAssets{}),
		NewClassicRenderer(DefaultBrand, &fakeAssets{}),
		NewBlobRenderer(DefaultBrand, &fakeAssets{}),
	}
	for _, r := range renderers {
		t.Run(r.Name(), func(t *testing.T) {
			a, err := r.Render(derive(t, wrappedSOL, 0))
			require.NoError(t, err)
			b, err := r.Render(derive(t, wrappedSOL, 0))
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestRenderers_MissingAsset(t *testing.T) {
	renderers := []Renderer{
		NewTierRenderer(DefaultBrand, &fakeAssets{err: errNoAsset}),
		NewClassicRenderer(DefaultBrand, &fakeAssets{err: errNoAsset}),
		NewBlobRenderer(DefaultBrand, &fakeAssets{err: errNoAsset}),
	}
	for _, r := range renderers {
		_, err := r.Render(derive(t, wrappedSOL, 0))
		assert.ErrorIs(t, err, errNoAsset, r.Name())
	}
}

func TestClassicRenderer_IgnoresBalance(t *testing.T) {
	r := NewClassicRenderer(DefaultBrand, &fakeAssets{})

	low, err := r.Render(derive(t, wrappedSOL, 0))
	require.NoError(t, err)
	high, err := r.Render(derive(t, wrappedSOL, 5_000_000))
	require.NoError(t, err)
	assert.Equal(t, low, high)

	s := string(low)
	wellFormed(t, low)
	// hash mod 12 = 10: Ember
	assert.Contains(t, s, "<title>Ember</title>")
	assert.Contains(t, s, `stop-color="#F12711"`)
	assert.Contains(t, s, `stop-color="#F5AF19"`)
}

func TestClassicAndTierDiffer(t *testing.T) {
	id := derive(t, wrappedSOL, 0)
	tier, err := NewTierRenderer(DefaultBrand, &fakeAssets{}).Render(id)
	require.NoError(t, err)
	classic, err := NewClassicRenderer(DefaultBrand, &fakeAssets{}).Render(id)
	require.NoError(t, err)
	assert.NotEqual(t, tier, classic)
}

func TestBlobRenderer_HashDrivenWatermarks(t *testing.T) {
	assert.Equal(t, 7, WatermarkCount(1649035594))
	assert.Equal(t, 154, WatermarkRotation(1649035594))
	assert.Equal(t, 5, WatermarkCount(417029632))

	doc, err := NewBlobRenderer(DefaultBrand, &fakeAssets{}).Render(derive(t, wrappedSOL, 0))
	require.NoError(t, err)

	counts := wellFormed(t, doc)
	assert.Equal(t, 7+3, counts["text"])
	assert.Equal(t, blobCount, counts["path"])
	assert.Contains(t, string(doc), "rotate(154 ")
}

func TestBlobPath_Closed(t *testing.T) {
	d := blobPath(newSequence(42))
	assert.True(t, strings.HasPrefix(d, "M"))
	assert.True(t, strings.HasSuffix(d, " Z"))
	assert.Equal(t, blobPoints, strings.Count(d, "Q"))
}

func TestBackgroundPaint(t *testing.T) {
	fill, stops, err := backgroundPaint(domain.SolidBackground{Color: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "fill:#123456", fill)
	assert.Nil(t, stops)

	fill, stops, err = backgroundPaint(domain.GradientBackground{Color1: "#000000", Color2: "#FFFFFF"})
	require.NoError(t, err)
	assert.Equal(t, "fill:url(#bg)", fill)
	require.Len(t, stops, 2)
	assert.Equal(t, "#FFFFFF", stops[1].Color)

	_, _, err = backgroundPaint(nil)
	assert.Error(t, err)
}

func TestBrandTextEscaped(t *testing.T) {
	brand := Brand{Name: "A&B <Co>", FooterURL: "example.com"}
	doc, err := NewTierRenderer(brand, &fakeAssets{}).Render(derive(t, wrappedSOL, 0))
	require.NoError(t, err)
	wellFormed(t, doc)
	assert.Contains(t, string(doc), "A&amp;B &lt;Co&gt;")
}

func TestFallback(t *testing.T) {
	doc := Fallback(DefaultBrand)
	counts := wellFormed(t, doc)
	assert.Equal(t, 1, counts["svg"])
	assert.Zero(t, counts["image"])
	assert.Contains(t, string(doc), "SOLFACE")
}
