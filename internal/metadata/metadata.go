// Package metadata builds the NFT metadata document for an identity.
package metadata

import (
	"fmt"
	"strings"

	"solana-avatar-lab/internal/domain"
)

// Generation is the fixed generation attribute of every avatar.
const Generation = "Genesis"

// Attribute is one trait of the metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// File is one entry of properties.files.
type File struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Creator is one entry of properties.creators.
type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

// Properties is the properties block of the metadata document.
type Properties struct {
	Files    []File    `json:"files"`
	Category string    `json:"category"`
	Creators []Creator `json:"creators"`
}

// Document is the metadata JSON consumed by NFT tooling.
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
	Properties  Properties  `json:"properties"`
}

// Options carries the brand and URL settings of the deployment.
type Options struct {
	Name        string // collection name, e.g. "SOLFACE"
	Symbol      string
	Description string
	BaseURL     string // public origin of the API, without trailing slash
	Creator     string // creator address; defaults to the avatar's own address
}

// ImageURL returns the PNG URL of the tier-aware image for address.
func ImageURL(baseURL, address string) string {
	return strings.TrimRight(baseURL, "/") + "/api/avatar/" + address + ".png"
}

// Build derives the metadata document. The result depends only on the
// identity and the options.
func Build(id *domain.Identity, opts Options) Document {
	base := strings.TrimRight(opts.BaseURL, "/")
	image := ImageURL(base, id.Address)

	creator := opts.Creator
	if creator == "" {
		creator = id.Address
	}

	return Document{
		Name:        fmt.Sprintf("%s #%s", opts.Name, id.SerialNumber),
		Symbol:      opts.Symbol,
		Description: opts.Description,
		Image:       image,
		ExternalURL: base + "/?address=" + id.Address,
		Attributes:  Attributes(id),
		Properties: Properties{
			Files:    []File{{URI: image, Type: "image/png"}},
			Category: "image",
			Creators: []Creator{{Address: creator, Share: 100}},
		},
	}
}

// Attributes lists the traits of an identity in a fixed order.
func Attributes(id *domain.Identity) []Attribute {
	attrs := make([]Attribute, 0, 10)
	switch bg := id.Background.(type) {
	case domain.SolidBackground:
		attrs = append(attrs,
			Attribute{TraitType: "Background Type", Value: "Solid"},
			Attribute{TraitType: "Background Color", Value: bg.Color},
		)
	case domain.GradientBackground:
		attrs = append(attrs,
			Attribute{TraitType: "Background Type", Value: "Gradient"},
			Attribute{TraitType: "Background Color 1", Value: bg.Color1},
			Attribute{TraitType: "Background Color 2", Value: bg.Color2},
		)
	}
	return append(attrs,
		Attribute{TraitType: "Avatar Color", Value: id.AvatarColor},
		Attribute{TraitType: "Rarity", Value: string(id.Rarity)},
		Attribute{TraitType: "Serial Number", Value: id.SerialNumber},
		Attribute{TraitType: "Generation", Value: Generation},
		Attribute{TraitType: "Tier", Value: id.TierName},
		Attribute{TraitType: "Address Kind", Value: string(id.Kind)},
	)
}
