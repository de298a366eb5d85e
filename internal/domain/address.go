package domain

import (
	"errors"
	"fmt"
	"regexp"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned when an address fails the format check.
var ErrInvalidAddress = errors.New("invalid address")

// addressPattern is the base58 alphabet (no 0, O, I, l) with Solana public key lengths.
var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidateAddress checks the structural format of an address.
// Must run before any derivation.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return fmt.Errorf("%w: %q must be 32-44 base58 characters", ErrInvalidAddress, address)
	}
	return nil
}

// AddressKind classifies a public key by its position relative to the ed25519 curve.
type AddressKind string

const (
	AddressKindWallet         AddressKind = "wallet"          // on-curve, has a private key
	AddressKindProgramDerived AddressKind = "program-derived" // off-curve PDA
	AddressKindUnknown        AddressKind = "unknown"         // does not decode to 32 bytes
)

// KindOf decodes the address and reports whether it is an on-curve wallet key
// or an off-curve program-derived address.
func KindOf(address string) AddressKind {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return AddressKindUnknown
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return AddressKindProgramDerived
	}
	return AddressKindWallet
}
