package cache

import (
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
)

// Fingerprint returns the base58 encoded blake3 hash of shader code. Equal
// code always has an equal fingerprint, regardless of where it was loaded
// from.
func Fingerprint(code []byte) string {
	sum := blake3.Sum256(code)
	return base58.Encode(sum[:])
}

