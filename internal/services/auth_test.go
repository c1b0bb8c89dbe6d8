package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "campusone",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	tokens := testTokenService()
	hash, err := tokens.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, tokens.VerifyPassword("correct horse battery", hash))
	assert.False(t, tokens.VerifyPassword("wrong password", hash))
	assert.False(t, tokens.VerifyPassword("correct horse battery", "not-a-hash"))
}

func TestPasswordHashIsSalted(t *testing.T) {
	tokens := testTokenService()
	first, err := tokens.HashPassword("same input")
	require.NoError(t, err)
	second, err := tokens.HashPassword("same input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := testTokenService()
	signed, exp, err := tokens.CreateAccessToken("user-1", "user@example.com", "TEACHER")
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	token, claims, err := tokens.ParseToken(signed)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "user@example.com", claims["email"])
	assert.Equal(t, "TEACHER", claims["role"])
	assert.Equal(t, "access", claims["typ"])
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	tokens := testTokenService()
	signed, err := tokens.CreateRefreshToken("user-1")
	require.NoError(t, err)

	token, claims, err := tokens.ParseToken(signed)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "refresh", claims["typ"])
	assert.Equal(t, "user-1", claims["sub"])
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tokens := testTokenService()
	signed, _, err := tokens.CreateAccessToken("user-1", "user@example.com", "STUDENT")
	require.NoError(t, err)

	other := testTokenService()
	other.Secret = []byte("different-secret")
	_, _, err = other.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	other := testTokenService()
	other.Issuer = "someone-else"
	signed, _, err := other.CreateAccessToken("user-1", "user@example.com", "STUDENT")
	require.NoError(t, err)

	tokens := testTokenService()
	_, _, err = tokens.ParseToken(signed)
	assert.Error(t, err)
}
