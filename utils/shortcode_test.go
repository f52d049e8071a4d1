package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortCode(t *testing.T) {
	code, err := GenerateShortCode(ShortCodeLength)
	assert.NoError(t, err)
	assert.Len(t, code, ShortCodeLength)
	for _, r := range code {
		assert.Contains(t, shortCodeAlphabet, string(r))
	}
}

func TestGenerateShortCodeUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateShortCode(ShortCodeLength)
		assert.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %q after %d draws", code, i)
		seen[code] = true
	}
}
