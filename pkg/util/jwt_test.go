package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair_DistinctTokens(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "buyer@example.com", "customer", testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.EqualValues(t, 900, tokens.ExpiresIn)

	access, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(123, "test@example.com", "customer", testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "valid access token", token: tokens.AccessToken, secret: testSecret},
		{name: "valid refresh token", token: tokens.RefreshToken, secret: testSecret},
		{name: "wrong secret", token: tokens.AccessToken, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "malformed", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "empty", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "test@example.com", claims.Email)
			assert.Equal(t, "customer", claims.Role)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "test@example.com", "customer", testSecret, time.Nanosecond, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	tokens, err := GenerateTokenPair(42, "user@example.com", "admin", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.RemainingTTL().Seconds(), 2)

	assert.Zero(t, (&Claims{}).RemainingTTL())
}
