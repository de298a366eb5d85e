// Package rarity derives the five-level rarity tag reported in metadata.
//
// This axis is computed from the address hash alone. It is unrelated to the
// balance-gated tier in package palette; the two must never be merged.
package rarity

import "solana-avatar-lab/internal/domain"

// bucket is a half-open [lo, hi) range over hash mod 100.
type bucket struct {
	hi     uint32
	rarity domain.Rarity
}

var buckets = []bucket{
	{hi: 50, rarity: domain.RarityCommon},
	{hi: 75, rarity: domain.RarityUncommon},
	{hi: 90, rarity: domain.RarityRare},
	{hi: 98, rarity: domain.RarityEpic},
	{hi: 100, rarity: domain.RarityLegendary},
}

// Index returns hash mod 100.
func Index(hash uint32) uint32 {
	return hash % 100
}

// FromHash maps a hash to its rarity tag.
func FromHash(hash uint32) domain.Rarity {
	idx := Index(hash)
	for _, b := range buckets {
		if idx < b.hi {
			return b.rarity
		}
	}
	return domain.RarityLegendary
}
