package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayoutRate(t *testing.T) {
	assert.Equal(t, 22.0, PayoutRate("US"))
	assert.Equal(t, 10.0, PayoutRate("IN"))
	assert.Equal(t, 4.0, PayoutRate("BR"))
	assert.Equal(t, 4.0, PayoutRate(""))
	// lookup is case sensitive; headers are upper-cased before lookup
	assert.Equal(t, 4.0, PayoutRate("us"))
}

func TestEarningsPerClick(t *testing.T) {
	assert.InDelta(t, 0.022, EarningsPerClick("US"), 1e-9)
	assert.InDelta(t, 0.004, EarningsPerClick("XX"), 1e-9)
}

func TestPublishedPayoutRates(t *testing.T) {
	rates := PublishedPayoutRates()
	assert.Equal(t, 22.0, rates["US"])
	assert.Equal(t, 4.0, rates["default"])

	// The published copy must not alias the internal table
	rates["US"] = 0
	assert.Equal(t, 22.0, PayoutRate("US"))
}
