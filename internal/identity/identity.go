// Package identity derives the deterministic visual identity of an address.
//
// Derivation is a pure function of (address, balance): the address hash is
// computed once and reused for every decision (background parity, color
// selection, serial number, rarity and gradient index).
package identity

import (
	"fmt"

	"solana-avatar-lab/internal/composer"
	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/gradient"
	"solana-avatar-lab/internal/idhash"
	"solana-avatar-lab/internal/rarity"
)

// SerialModulus bounds the serial number shown on the image.
const SerialModulus = 9999

// Derive validates the address and returns its identity at the given balance.
// Returns domain.ErrInvalidAddress if the address fails the format check.
func Derive(address string, balance float64) (*domain.Identity, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, err
	}
	return FromHash(address, idhash.Sum(address), balance), nil
}

// FromHash builds the identity from a precomputed hash without validation.
func FromHash(address string, hash uint32, balance float64) *domain.Identity {
	scheme := composer.Compose(hash, balance)
	return &domain.Identity{
		Address:       address,
		Balance:       balance,
		Hash:          hash,
		AvatarColor:   scheme.AvatarColor,
		Background:    scheme.Background,
		Tier:          scheme.Tier,
		TierName:      scheme.TierName,
		SerialNumber:  Serial(hash),
		Rarity:        rarity.FromHash(hash),
		GradientIndex: gradient.Index(hash),
		Kind:          domain.KindOf(address),
	}
}

// Serial formats hash mod 9999 as a zero-padded four digit string.
func Serial(hash uint32) string {
	return fmt.Sprintf("%04d", hash%SerialModulus)
}
