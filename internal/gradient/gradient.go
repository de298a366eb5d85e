// Package gradient holds the twelve named gradients used by the classic renderer.
// The table is independent of the tier palette.
package gradient

// Gradient is a named two-stop linear gradient.
type Gradient struct {
	Name  string
	Angle int // degrees, 0 = left to right, 90 = top to bottom
	From  string
	To    string
}

var table = [12]Gradient{
	{Name: "Solar Flare", Angle: 135, From: "#FF512F", To: "#DD2476"},
	{Name: "Deep Ocean", Angle: 135, From: "#2193B0", To: "#6DD5ED"},
	{Name: "Aurora", Angle: 45, From: "#00C9FF", To: "#92FE9D"},
	{Name: "Purple Haze", Angle: 135, From: "#7F00FF", To: "#E100FF"},
	{Name: "Mango", Angle: 90, From: "#FFE259", To: "#FFA751"},
	{Name: "Emerald", Angle: 45, From: "#11998E", To: "#38EF7D"},
	{Name: "Twilight", Angle: 180, From: "#0F2027", To: "#2C5364"},
	{Name: "Peach", Angle: 135, From: "#ED4264", To: "#FFEDBC"},
	{Name: "Cosmic", Angle: 45, From: "#FF00CC", To: "#333399"},
	{Name: "Lagoon", Angle: 90, From: "#43CEA2", To: "#185A9D"},
	{Name: "Ember", Angle: 135, From: "#F12711", To: "#F5AF19"},
	{Name: "Midnight", Angle: 45, From: "#232526", To: "#414345"},
}

// Len is the number of named gradients.
const Len = len(table)

// Table returns a copy of the gradient table.
func Table() []Gradient {
	out := make([]Gradient, Len)
	copy(out, table[:])
	return out
}

// Index returns the gradient index for a hash: hash mod 12.
func Index(hash uint32) int {
	return int(hash % uint32(Len))
}

// ForHash returns the gradient selected by hash.
func ForHash(hash uint32) Gradient {
	return table[Index(hash)]
}

// Vector returns the gradient line endpoints as percentages of the canvas
// for the gradient angle, measured clockwise from the x axis.
func (g Gradient) Vector() (x1, y1, x2, y2 uint8) {
	switch g.Angle {
	case 45:
		return 0, 100, 100, 0
	case 90:
		return 0, 0, 0, 100
	case 180:
		return 100, 0, 0, 0
	default: // 135
		return 0, 0, 100, 100
	}
}
