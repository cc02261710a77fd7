// Package auth provides JWT generation and validation for the HTTP API.
// This is a leaf package with no domain dependencies. Tokens are issued out
// of band (there is no user registration); the API only verifies them.
package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is the default token expiration in hours if not set via env.
const DefaultTokenExpiry = 24

const (
	envJWTSecret = "JWT_SECRET"
	envJWTExpiry = "JWT_EXPIRY"
)

// Enabled reports whether JWT auth is configured for this process.
// When JWT_SECRET is unset the API runs open (local/dev usage).
func Enabled() bool {
	return os.Getenv(envJWTSecret) != ""
}

// getSecret reads JWT_SECRET from environment. Panics if not set —
// callers must check Enabled() first; a missing secret while auth is in use
// is a configuration error, not a runtime condition.
func getSecret() []byte {
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		panic(envJWTSecret + " environment variable not set — cannot initialize auth")
	}
	return []byte(secret)
}

// parseExpiry parses an expiry string (hours) into a Duration.
// Returns DefaultTokenExpiry for empty or invalid input (graceful degradation).
func parseExpiry(expiryStr string) time.Duration {
	if expiryStr == "" {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	hours, err := strconv.Atoi(expiryStr)
	if err != nil {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// getExpiry reads JWT_EXPIRY from environment in hours.
func getExpiry() time.Duration {
	return parseExpiry(os.Getenv(envJWTExpiry))
}

// Claims are the JWT claims carried by medassist API tokens.
// Subject identifies the caller (a client name, not a user account).
type Claims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed token for the given caller name.
func GenerateToken(subject string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(getExpiry())

	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(getSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ParseToken validates a token and extracts its claims.
// Returns an error for invalid, expired, or malformed tokens.
func ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method is HMAC-SHA256 (prevent algorithm substitution attacks)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getSecret(), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims or signature")
	}

	return claims, nil
}
