// Package selector picks avatar and background colors from the unlocked palette.
package selector

import (
	"solana-avatar-lab/internal/idhash"
	"solana-avatar-lab/internal/palette"
)

// MaxCollisionRetries caps the background collision retry loop.
// After the cap the last candidate is accepted even if it still collides.
const MaxCollisionRetries = 10

// Solid is the color choice for a solid background avatar.
type Solid struct {
	AvatarColor string
	Tier        int
	TierName    string
}

// Gradient is the color choice for a gradient background avatar.
type Gradient struct {
	AvatarColor string
	BgColor1    string
	BgColor2    string
	Tier        int
	TierName    string
}

// UseGradient reports whether the hash selects a gradient background.
// Even hashes use gradients.
func UseGradient(hash uint32) bool {
	return hash%2 == 0
}

// SelectSolid picks the avatar color for an address.
func SelectSolid(address string, balance float64) Solid {
	return SolidFromHash(idhash.Sum(address), balance)
}

// SolidFromHash picks the avatar color from a precomputed hash.
func SolidFromHash(hash uint32, balance float64) Solid {
	info := palette.TierFromBalance(balance)
	colors := palette.Unlocked(balance)
	return Solid{
		AvatarColor: colors[uint64(hash)%uint64(len(colors))],
		Tier:        info.Tier,
		TierName:    info.TierName,
	}
}

// SelectGradient picks the avatar color and two background colors for an address.
func SelectGradient(address string, balance float64) Gradient {
	return GradientFromHash(idhash.Sum(address), balance)
}

// GradientFromHash picks gradient colors from a precomputed hash.
func GradientFromHash(hash uint32, balance float64) Gradient {
	info := palette.TierFromBalance(balance)
	avatar, bg1, bg2 := pickGradient(hash, palette.Unlocked(balance))
	return Gradient{
		AvatarColor: avatar,
		BgColor1:    bg1,
		BgColor2:    bg2,
		Tier:        info.Tier,
		TierName:    info.TierName,
	}
}

// pickGradient implements the collision policy. Initial candidates are
// colors[h], colors[3h] and colors[5h]; each collision bumps one running
// counter and re-reads colors[h].
func pickGradient(hash uint32, colors []string) (avatar, bg1, bg2 string) {
	n := uint64(len(colors))
	h := uint64(hash)

	avatar = colors[h%n]
	bg1 = colors[(h*3)%n]
	bg2 = colors[(h*5)%n]

	for attempt := 0; bg1 == avatar && attempt < MaxCollisionRetries; attempt++ {
		h++
		bg1 = colors[h%n]
	}
	for attempt := 0; (bg2 == avatar || bg2 == bg1) && attempt < MaxCollisionRetries; attempt++ {
		h++
		bg2 = colors[h%n]
	}
	return avatar, bg1, bg2
}
