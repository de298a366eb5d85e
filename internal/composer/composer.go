// Package composer decides the background of an avatar: a two-color gradient
// on even hashes, otherwise a solid fill in a contrasting complementary color.
package composer

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/selector"
)

// MinBrightnessGap is the brightness distance below which the inverted
// background is pushed further away from the avatar color.
const MinBrightnessGap = 80

const (
	darkenFactor  = 0.4
	lightenFactor = 1.6
)

// Result is the composed color scheme for one hash and balance.
type Result struct {
	AvatarColor string
	Background  domain.Background
	Tier        int
	TierName    string
}

// Compose builds the color scheme for a hash. The same hash drives both the
// solid/gradient parity decision and the color selection.
func Compose(hash uint32, balance float64) Result {
	if selector.UseGradient(hash) {
		g := selector.GradientFromHash(hash, balance)
		return Result{
			AvatarColor: g.AvatarColor,
			Background:  domain.GradientBackground{Color1: g.BgColor1, Color2: g.BgColor2},
			Tier:        g.Tier,
			TierName:    g.TierName,
		}
	}
	s := selector.SolidFromHash(hash, balance)
	return Result{
		AvatarColor: s.AvatarColor,
		Background:  domain.SolidBackground{Color: Complementary(s.AvatarColor)},
		Tier:        s.Tier,
		TierName:    s.TierName,
	}
}

// Complementary returns a background color contrasting with avatarHex.
// Channels are inverted; when the brightness gap is still under
// MinBrightnessGap, a light avatar gets a darkened background and a dark
// avatar a lightened one. Output is lowercase #rrggbb.
// Inputs that are not valid hex colors are treated as black.
func Complementary(avatarHex string) string {
	c, err := colorful.Hex(avatarHex)
	if err != nil {
		c = colorful.Color{}
	}
	r, g, b := c.RGB255()
	cr, cg, cb := ComplementaryRGB(r, g, b)
	return fmt.Sprintf("#%02x%02x%02x", cr, cg, cb)
}

// ComplementaryRGB is the channel-level transform behind Complementary.
func ComplementaryRGB(r, g, b uint8) (uint8, uint8, uint8) {
	ir, ig, ib := 255-r, 255-g, 255-b

	avatarBrightness := Brightness(r, g, b)
	bgBrightness := Brightness(ir, ig, ib)
	if math.Abs(avatarBrightness-bgBrightness) >= MinBrightnessGap {
		return ir, ig, ib
	}
	if avatarBrightness > 127 {
		return scale(ir, darkenFactor), scale(ig, darkenFactor), scale(ib, darkenFactor)
	}
	return scale(ir, lightenFactor), scale(ig, lightenFactor), scale(ib, lightenFactor)
}

// Brightness is the arithmetic mean of the three channels.
func Brightness(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// HexBrightness parses a hex color and returns its Brightness.
func HexBrightness(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return Brightness(c.RGB255()), nil
}

// scale multiplies a channel, flooring and clamping to 255.
func scale(v uint8, factor float64) uint8 {
	return uint8(math.Min(255, math.Floor(float64(v)*factor)))
}
