package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  User@Example.COM ")
	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)

	_, err = SanitizeEmail("")
	assert.Error(t, err)
}

func TestSanitizePhone(t *testing.T) {
	phone, err := SanitizePhone("+1 (555) 123-4567")
	assert.NoError(t, err)
	assert.Equal(t, "+15551234567", phone)

	phone, err = SanitizePhone("15551234567")
	assert.NoError(t, err)
	assert.Equal(t, "+15551234567", phone)

	_, err = SanitizePhone("123")
	assert.Error(t, err)

	_, err = SanitizePhone("")
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	url, err := NormalizeURL("example.com/page")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/page", url)

	url, err = NormalizeURL("http://example.com")
	assert.NoError(t, err)
	assert.Equal(t, "http://example.com", url)

	_, err = NormalizeURL("")
	assert.Error(t, err)

	_, err = NormalizeURL("https://nodots")
	assert.Error(t, err)
}
