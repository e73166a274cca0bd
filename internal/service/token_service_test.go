package service

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/model"
	"codenest_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:              "0123456789abcdef0123456789abcdef",
		AccessExpireMinutes: 15,
		RefreshExpireHours:  24,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := newTokens()

	token, err := tokens.IssueAccessToken("user-1", "ada@example.com", model.Instructor)
	require.NoError(t, err)

	claims, err := tokens.DecodeAs(token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, model.Instructor, claims.Role)
	assert.NotEmpty(t, claims.ID)

	id, err := tokens.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	tokens := newTokens()

	access, err := tokens.IssueAccessToken("user-1", "ada@example.com", model.Student)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = tokens.DecodeAs(access, RefreshToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
	_, err = tokens.DecodeAs(refresh, AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)

	assert.True(t, tokens.Validate(refresh))
}

func TestTokenExpiry(t *testing.T) {
	tokens := newTokens()
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.IssueAccessToken("user-1", "ada@example.com", model.Student)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(14 * time.Minute) }
	assert.True(t, tokens.Validate(token))

	tokens.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	assert.False(t, tokens.Validate(token))
}

func TestTokenRejectsForeignSignatureAndGarbage(t *testing.T) {
	other := NewTokenService(config.JWTConfig{
		Secret:              "another-secret-another-secret-xx",
		AccessExpireMinutes: 15,
		RefreshExpireHours:  24,
	})
	token, err := other.IssueAccessToken("user-1", "ada@example.com", model.Student)
	require.NoError(t, err)

	tokens := newTokens()
	_, err = tokens.Decode(token)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
	_, err = tokens.Decode("not-a-jwt")
	assert.ErrorIs(t, err, util.ErrInvalidToken)
	_, err = tokens.Decode("")
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestRemainingLifetime(t *testing.T) {
	tokens := newTokens()
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)
	claims, err := tokens.Decode(token)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(time.Hour) }
	assert.Equal(t, 23*time.Hour, tokens.RemainingLifetime(claims))
}
