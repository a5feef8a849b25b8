package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the backend's student token claims. The client parses them
// without verification: the signature is the server's concern, the client
// only needs identity and expiry for display and pre-emptive re-login.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	ClassID   int    `json:"class_id,omitempty"`
}

// Inspect decodes a stored token's claims without validating the signature.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// ExpiresIn returns how long until the token expires. Zero or negative means
// it is already stale and a fresh login is needed.
func (c *Claims) ExpiresIn() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

// Usable reports whether the token is a student token with remaining life.
func (c *Claims) Usable() bool {
	return c.TokenType == "student" && c.ExpiresIn() > 0
}
