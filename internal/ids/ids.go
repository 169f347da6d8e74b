package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a 32-char random hex identifier.
func New() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// Prefixed returns an identifier of the form "<prefix>_<hex>", used for
// persisted records so the kind is visible in logs.
func Prefixed(prefix string) string {
	return prefix + "_" + New()
}
