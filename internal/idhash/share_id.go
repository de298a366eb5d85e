package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// shareIDBytes is the number of digest bytes kept in a share id.
const shareIDBytes = 8

// ComputeShareID computes a deterministic short share id for an address.
// Formula: base58(SHA256("share|" + address)[:8]).
func ComputeShareID(address string) string {
	hash := sha256.Sum256([]byte("share|" + address))
	return base58.Encode(hash[:shareIDBytes])
}

// ComputeRenderETag computes a strong entity tag for a rendered artifact.
// Formula: SHA256(renderer|format|address|balance), hex-encoded and quoted.
func ComputeRenderETag(renderer, format, address string, balance float64) string {
	data := fmt.Sprintf("%s|%s|%s|%g", renderer, format, address, balance)
	hash := sha256.Sum256([]byte(data))
	return `"` + hex.EncodeToString(hash[:16]) + `"`
}
