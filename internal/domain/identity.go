package domain

// BackgroundMode selects how the canvas background is painted.
type BackgroundMode string

const (
	BackgroundSolid    BackgroundMode = "solid"
	BackgroundGradient BackgroundMode = "gradient"
)

// Background is a closed union: SolidBackground | GradientBackground.
type Background interface {
	Mode() BackgroundMode
	// Colors returns the background colors in paint order.
	Colors() []string
	isBackground()
}

// SolidBackground fills the canvas with a single color.
type SolidBackground struct {
	Color string
}

func (SolidBackground) Mode() BackgroundMode { return BackgroundSolid }
func (b SolidBackground) Colors() []string { return []string{b.Color} }
func (SolidBackground) isBackground() {}

// GradientBackground fills the canvas with a two-stop diagonal gradient.
type GradientBackground struct {
	Color1 string
	Color2 string
}

func (GradientBackground) Mode() BackgroundMode { return BackgroundGradient }
func (b GradientBackground) Colors() []string { return []string{b.Color1, b.Color2} }
func (GradientBackground) isBackground() {}

// Rarity is the hash-derived five-level rarity tag used in metadata.
// It is independent of the balance-gated tier.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

// Identity is the full set of visual attributes derived from an address and a balance.
// Identical (Address, Balance) inputs always yield an identical Identity.
type Identity struct {
	Address       string
	Balance       float64
	Hash          uint32 // |AddressHash(Address)|
	AvatarColor   string
	Background    Background
	Tier          int    // 1..4, balance-gated
	TierName      string // e.g. "Commons"
	SerialNumber  string // hash mod 9999, zero-padded to 4 digits
	Rarity        Rarity // hash mod 100 buckets
	GradientIndex int    // hash mod 12, selects avatar asset via mod 6
	Kind          AddressKind
}

// AvatarIndex returns the bitmap avatar overlay index (0-5).
func (id *Identity) AvatarIndex() int {
	return id.GradientIndex % 6
}
