package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, tokenType string, userID int, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TokenType: tokenType,
		UserID:    userID,
		ClassID:   7,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	return signed
}

func TestInspectReadsClaimsWithoutSecret(t *testing.T) {
	token := signToken(t, "student", 42, time.Hour)

	claims, err := Inspect(token)
	require.NoError(t, err)
	require.Equal(t, "student", claims.TokenType)
	require.Equal(t, 42, claims.UserID)
	require.Equal(t, 7, claims.ClassID)
	require.InDelta(t, time.Hour, claims.ExpiresIn(), float64(5*time.Second))
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	require.Error(t, err)
}

func TestUsable(t *testing.T) {
	claims, err := Inspect(signToken(t, "student", 1, time.Hour))
	require.NoError(t, err)
	require.True(t, claims.Usable())

	claims, err = Inspect(signToken(t, "student", 1, -time.Minute))
	require.NoError(t, err)
	require.False(t, claims.Usable())

	claims, err = Inspect(signToken(t, "admin", 1, time.Hour))
	require.NoError(t, err)
	require.False(t, claims.Usable())
}

func TestExpiresInWithoutExpiry(t *testing.T) {
	claims := &Claims{TokenType: "student"}
	require.Equal(t, time.Duration(0), claims.ExpiresIn())
	require.False(t, claims.Usable())
}
