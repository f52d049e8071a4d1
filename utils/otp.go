// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// GenerateSecureOTP creates a 6-digit verification code
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ValidateOTPAttempts limits how often a single account may submit OTP
// codes. Counting is skipped when Redis is unavailable.
func ValidateOTPAttempts(identifier string, client *redis.Client) error {
	if client == nil {
		return nil
	}

	key := "otp_attempts:" + identifier
	attempts, err := client.Incr(context.Background(), key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		client.Expire(context.Background(), key, 1*time.Hour)
	}

	// Limit to 5 attempts per hour
	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
