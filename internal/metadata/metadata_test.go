package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-avatar-lab/internal/identity"
)

var opts = Options{
	Name:        "SOLFACE",
	Symbol:      "SFACE",
	Description: "Deterministic avatars",
	BaseURL:     "https://solface.app/",
}

func trait(doc Document, name string) (string, bool) {
	for _, a := range doc.Attributes {
		if a.TraitType == name {
			return a.Value, true
		}
	}
	return "", false
}

func TestBuild_Gradient(t *testing.T) {
	addr := "So11111111111111111111111111111111111111112"
	id, err := identity.Derive(addr, 0)
	require.NoError(t, err)

	doc := Build(id, opts)

	assert.Equal(t, "SOLFACE #0514", doc.Name)
	assert.Equal(t, "SFACE", doc.Symbol)
	assert.Equal(t, "https://solface.app/api/avatar/"+addr+".png", doc.Image)
	assert.Equal(t, "https://solface.app/?address="+addr, doc.ExternalURL)

	for name, want := range map[string]string{
		"Background Type":    "Gradient",
		"Background Color 1": "#45B7D1",
		"Background Color 2": "#F8B500",
		"Avatar Color":       "#F5B041",
		"Rarity":             "Epic",
		"Serial Number":      "0514",
		"Generation":         "Genesis",
		"Tier":               "Commons",
	} {
		got, ok := trait(doc, name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := trait(doc, "Background Color")
	assert.False(t, ok)

	require.Len(t, doc.Properties.Files, 1)
	assert.Equal(t, doc.Image, doc.Properties.Files[0].URI)
	assert.Equal(t, "image", doc.Properties.Category)
	assert.Equal(t, []Creator{{Address: addr, Share: 100}}, doc.Properties.Creators)
}

func TestBuild_Solid(t *testing.T) {
	id, err := identity.Derive("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", 0)
	require.NoError(t, err)

	doc := Build(id, Options{Name: "X", Creator: "Creator111111111111111111111111111111111111"})

	bgType, _ := trait(doc, "Background Type")
	bgColor, _ := trait(doc, "Background Color")
	assert.Equal(t, "Solid", bgType)
	assert.Equal(t, "#7a3e16", bgColor)
	assert.Equal(t, "Creator111111111111111111111111111111111111", doc.Properties.Creators[0].Address)
}

func TestBuild_JSONShape(t *testing.T) {
	id, err := identity.Derive("11111111111111111111111111111111", 0)
	require.NoError(t, err)

	raw, err := json.Marshal(Build(id, opts))
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"name", "symbol", "description", "image", "external_url", "attributes", "properties"} {
		assert.Contains(t, generic, key)
	}
	props := generic["properties"].(map[string]any)
	assert.Contains(t, props, "files")
	assert.Contains(t, props, "creators")

	attrs := generic["attributes"].([]any)
	first := attrs[0].(map[string]any)
	assert.Contains(t, first, "trait_type")
	assert.Contains(t, first, "value")
}

func TestBuild_Deterministic(t *testing.T) {
	id, err := identity.Derive("DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy", 0)
	require.NoError(t, err)
	assert.Equal(t, Build(id, opts), Build(id, opts))
}
