package services

import (
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

func TestValidateGoogleClaims(t *testing.T) {
	const clientID = "1234-app.apps.googleusercontent.com"

	valid := jwt.MapClaims{"iss": "https://accounts.google.com", "aud": clientID}
	assert.NoError(t, validateGoogleClaims(valid, clientID))

	bareIssuer := jwt.MapClaims{"iss": "accounts.google.com", "aud": clientID}
	assert.NoError(t, validateGoogleClaims(bareIssuer, clientID))

	wrongIssuer := jwt.MapClaims{"iss": "https://evil.example.com", "aud": clientID}
	assert.Error(t, validateGoogleClaims(wrongIssuer, clientID))

	missingIssuer := jwt.MapClaims{"aud": clientID}
	assert.Error(t, validateGoogleClaims(missingIssuer, clientID))

	// A Google-signed token minted for some other app must not sign in here
	otherAudience := jwt.MapClaims{"iss": "https://accounts.google.com", "aud": "other-app.apps.googleusercontent.com"}
	assert.Error(t, validateGoogleClaims(otherAudience, clientID))

	missingAudience := jwt.MapClaims{"iss": "https://accounts.google.com"}
	assert.Error(t, validateGoogleClaims(missingAudience, clientID))

	// Verification fails closed when the client ID is not configured
	assert.Error(t, validateGoogleClaims(valid, ""))
}
