package utils

import (
	"crypto/rand"
	"math/big"
)

const shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ShortCodeLength is the length of generated short-link codes
const ShortCodeLength = 7

// GenerateShortCode produces a random lowercase base36 code. Collisions
// are possible and handled by the caller retrying against the unique
// index on the links collection.
func GenerateShortCode(length int) (string, error) {
	if length <= 0 {
		length = ShortCodeLength
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(shortCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = shortCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
