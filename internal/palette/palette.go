// Package palette holds the fixed 69-color palette and its balance-gated tiers.
//
// Tiers are ordered by rarity: tier 1 is unlocked at balance 0, tier 4 at
// 1,000,000. The unlocked color set for a balance is the concatenation of
// every unlocked tier, in tier order, preserving each tier's internal order.
package palette

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// TotalColors is the size of the full palette.
const TotalColors = 69

// Tier is one balance-gated unlock level.
type Tier struct {
	Level     int
	Name      string
	Threshold float64 // minimum balance that unlocks this tier
	Colors    []string
}

// tiers is ordered by ascending threshold.
var tiers = []Tier{
	{
		Level:     1,
		Name:      "Commons",
		Threshold: 0,
		Colors: []string{
			"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
			"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
			"#F8B500", "#52BE80", "#EC7063", "#5DADE2", "#F5B041",
			"#AF7AC5", "#48C9B0", "#EB984E", "#5499C7", "#58D68D",
		},
	},
	{
		Level:     2,
		Name:      "Rares",
		Threshold: 10_000,
		Colors: []string{
			"#E74C3C", "#3498DB", "#2ECC71", "#9B59B6", "#F39C12",
			"#1ABC9C", "#E67E22", "#16A085", "#D35400", "#8E44AD",
			"#2980B9", "#27AE60", "#C0392B", "#F1C40F", "#00CEC9",
			"#6C5CE7", "#FD79A8", "#FDCB6E", "#E17055", "#0984E3",
		},
	},
	{
		Level:     3,
		Name:      "Epics",
		Threshold: 100_000,
		Colors: []string{
			"#00B894", "#A29BFE", "#FF7675", "#74B9FF", "#55EFC4",
			"#FAB1A0", "#81ECEC", "#FF9FF3", "#FECA57", "#54A0FF",
			"#5F27CD", "#01A3A4", "#EE5253", "#10AC84", "#FF9F43",
			"#C8D6E5", "#222F3E", "#341F97", "#F368E0", "#0ABDE3",
		},
	},
	{
		Level:     4,
		Name:      "Mythics",
		Threshold: 1_000_000,
		Colors: []string{
			"#FFD700", "#C0C0C0", "#E5E4E2", "#B9F2FF", "#50C878",
			"#E0115F", "#0F52BA", "#9966CC", "#FF4500",
		},
	},
}

// unlocked[i] is the concatenated color set for tier level i+1.
var unlocked [][]string

func init() {
	if err := validate(tiers); err != nil {
		panic(fmt.Sprintf("palette: %v", err))
	}
	unlocked = make([][]string, len(tiers))
	var acc []string
	for i, t := range tiers {
		acc = append(acc, t.Colors...)
		unlocked[i] = slices.Clip(slices.Clone(acc))
	}
}

// validate checks partition sizes, hex syntax and pairwise distinctness.
func validate(ts []Tier) error {
	wantSizes := []int{20, 20, 20, 9}
	if len(ts) != len(wantSizes) {
		return fmt.Errorf("expected %d tiers, got %d", len(wantSizes), len(ts))
	}
	seen := make(map[string]int, TotalColors)
	for i, t := range ts {
		if len(t.Colors) != wantSizes[i] {
			return fmt.Errorf("tier %d: expected %d colors, got %d", t.Level, wantSizes[i], len(t.Colors))
		}
		if i > 0 && t.Threshold <= ts[i-1].Threshold {
			return fmt.Errorf("tier %d: threshold %v is not above tier %d", t.Level, t.Threshold, ts[i-1].Level)
		}
		for _, c := range t.Colors {
			if _, err := colorful.Hex(c); err != nil || len(c) != 7 {
				return fmt.Errorf("tier %d: invalid color %q", t.Level, c)
			}
			key := strings.ToUpper(c)
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("duplicate color %s in tiers %d and %d", c, prev, t.Level)
			}
			seen[key] = t.Level
		}
	}
	if len(seen) != TotalColors {
		return fmt.Errorf("expected %d colors, got %d", TotalColors, len(seen))
	}
	return nil
}

// Tiers returns a copy of the tier table.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[i] = t
		out[i].Colors = slices.Clone(t.Colors)
	}
	return out
}

// All returns the full 69-color palette in tier order.
func All() []string {
	return slices.Clone(unlocked[len(unlocked)-1])
}

// TierInfo describes the tier unlocked by a balance.
type TierInfo struct {
	Tier               int      `json:"tier"`
	TierName           string   `json:"tierName"`
	UnlockedColorCount int      `json:"unlockedColorCount"`
	TotalColorCount    int      `json:"totalColorCount"`
	NextThreshold      *float64 `json:"nextThreshold"` // nil at the max tier
	AmountNeeded       float64  `json:"amountNeeded"`
}

// levelFor returns the highest tier level whose threshold is met.
// Thresholds are checked highest first so the ranges are exclusive.
// Negative and NaN balances fall into tier 1.
func levelFor(balance float64) int {
	if math.IsNaN(balance) {
		return 1
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if balance >= tiers[i].Threshold {
			return tiers[i].Level
		}
	}
	return 1
}

// TierFromBalance returns the tier info for a balance.
func TierFromBalance(balance float64) TierInfo {
	if math.IsNaN(balance) || balance < 0 {
		balance = 0
	}
	level := levelFor(balance)
	t := tiers[level-1]
	info := TierInfo{
		Tier:               t.Level,
		TierName:           t.Name,
		UnlockedColorCount: len(unlocked[level-1]),
		TotalColorCount:    TotalColors,
	}
	if level < len(tiers) {
		next := tiers[level].Threshold
		info.NextThreshold = &next
		info.AmountNeeded = next - balance
	}
	return info
}

// AvailableColors returns the unlocked colors for a balance, tier 1 first.
func AvailableColors(balance float64) []string {
	return slices.Clone(Unlocked(balance))
}

// Unlocked returns the shared unlocked color slice for a balance.
// Callers must not modify it.
func Unlocked(balance float64) []string {
	return unlocked[levelFor(balance)-1]
}
