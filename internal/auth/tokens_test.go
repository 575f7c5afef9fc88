package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/klokku/notebook/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2022, 2, 1, 12, 0, 0, 0, time.UTC)

func setupTokens(t *testing.T) (*Tokens, *utils.MockClock) {
	clock := utils.NewMockClock(issuedAt)
	tokens, err := NewTokens("test-secret", time.Hour, clock)
	require.NoError(t, err)
	return tokens, clock
}

func TestNewTokens_RequiresSecretAndTtl(t *testing.T) {
	_, err := NewTokens("", time.Hour, utils.SystemClock{})
	assert.Error(t, err)

	_, err = NewTokens("secret", 0, utils.SystemClock{})
	assert.Error(t, err)
}

func TestTokens_IssueAndValidate(t *testing.T) {
	// given
	tokens, _ := setupTokens(t)

	// when
	token, expiresAt, err := tokens.Issue("google:42")
	require.NoError(t, err)
	claims, err := tokens.Validate(token)

	// then
	require.NoError(t, err)
	assert.Equal(t, "google:42", claims.Uid)
	assert.True(t, expiresAt.Equal(issuedAt.Add(time.Hour)))
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
}

func TestTokens_Validate_Rejects(t *testing.T) {
	tokens, clock := setupTokens(t)
	valid, _, err := tokens.Issue("google:42")
	require.NoError(t, err)

	other, err := NewTokens("another-secret", time.Hour, clock)
	require.NoError(t, err)
	foreign, _, err := other.Issue("google:42")
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "google:42",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"signed with another secret", foreign},
		{"unsigned", noneSigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		_, err := tokens.Validate(valid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
