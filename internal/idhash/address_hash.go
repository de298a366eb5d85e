package idhash

import "unicode/utf16"

// AddressHash computes the rolling 32-bit hash of s.
// Formula: acc = (acc << 5) - acc + unit, for every UTF-16 code unit of s,
// with two's-complement wraparound at every step.
// The empty string hashes to 0.
func AddressHash(s string) int32 {
	var acc int32
	for _, unit := range utf16.Encode([]rune(s)) {
		acc = (acc << 5) - acc + int32(unit)
	}
	return acc
}

// Sum returns the absolute value of AddressHash(s).
// math.MinInt32 maps to 2147483648, which is why the result is unsigned.
func Sum(s string) uint32 {
	h := int64(AddressHash(s))
	if h < 0 {
		h = -h
	}
	return uint32(h)
}
