// Package auth mints and validates dashboard session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSession reports a missing, expired, or tampered session
// token.
var ErrInvalidSession = errors.New("invalid session")

// Sessions issues and verifies signed session tokens. Construct one at
// bootstrap and inject it; there is no package-level signing state.
type Sessions struct {
	signingKey []byte
	ttl        time.Duration
}

// Claims carried by a session token.
type Claims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// NewSessions creates a session issuer with the given HMAC signing key.
func NewSessions(signingKey []byte, ttl time.Duration) (*Sessions, error) {
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("session signing key must be at least 32 bytes, got %d", len(signingKey))
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Sessions{signingKey: signingKey, ttl: ttl}, nil
}

// Mint creates a session token for uid.
func (s *Sessions) Mint(uid string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the uid.
func (s *Sessions) Verify(tokenString string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid || claims.UID == "" {
		return "", ErrInvalidSession
	}
	return claims.UID, nil
}
