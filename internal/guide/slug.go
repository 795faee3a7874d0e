package guide

import (
	"crypto/rand"
	"math/big"
)

const (
	slugLength   = 8
	slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewSlug returns a random lowercase base36 identifier.
func NewSlug() (string, error) {
	radix := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, slugLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ValidSlug reports whether s could have been produced by NewSlug.
func ValidSlug(s string) bool {
	if len(s) != slugLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
