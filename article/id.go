package article

import (
	"crypto/sha256"
	"encoding/hex"
)

// idLength is the number of hex characters kept from the digest.
const idLength = 16

// NewID derives a deterministic article identifier from its title and link.
// The same (title, link) pair always yields the same ID; it doubles as the
// deduplication key in the store.
func NewID(title, link string) string {
	sum := sha256.Sum256([]byte(title + link))
	return hex.EncodeToString(sum[:])[:idLength]
}
