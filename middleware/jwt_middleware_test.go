package middleware

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

func TestGenerateJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	access, refresh, err := GenerateJWT("user-1", "user@example.com", "user")
	assert.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	token, err := jwt.ParseWithClaims(access, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	claims := token.Claims.(*JwtCustomClaims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "user", claims.UserType)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestGenerateJWTWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, _, err := GenerateJWT("user-1", "user@example.com", "user")
	assert.Error(t, err)
}

func TestTokenBlacklist(t *testing.T) {
	assert.False(t, IsTokenBlacklisted("tok-1"))
	BlacklistToken("tok-1", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted("tok-1"))
}

// Handlers blacklist and check tokens while the sweeper runs; under the
// race detector this fails if any access skips the mutex.
func TestTokenBlacklistConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				token := fmt.Sprintf("tok-%d-%d", n, j)
				BlacklistToken(token, time.Now().Add(-time.Minute))
				IsTokenBlacklisted(token)
			}
		}(i)
	}

	// Sweep expired entries while the writers run, the way the hourly
	// cleanup does.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			now := time.Now()
			tokenBlacklistMu.Lock()
			for token, expiry := range tokenBlacklist {
				if now.After(expiry) {
					delete(tokenBlacklist, token)
				}
			}
			tokenBlacklistMu.Unlock()
		}
	}()

	wg.Wait()
}
