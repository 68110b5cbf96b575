package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran-controller/ran-controller-pro/internal/config"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/crypto"
)

func newManager(t *testing.T) *JWTManager {
	t.Helper()

	hash, err := crypto.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := &config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	return NewJWTManager(cfg, []models.Account{{Username: "root", PasswordHash: hash, IsAdmin: true}})
}

func TestAuthenticate(t *testing.T) {
	m := newManager(t)

	a, err := m.Authenticate("root", "s3cret")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin)

	_, err = m.Authenticate("root", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Authenticate("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newManager(t)
	a, err := m.Authenticate("root", "s3cret")
	require.NoError(t, err)

	access, refresh, err := m.GenerateTokenPair(a)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.UserID)
	assert.Equal(t, "root", claims.Username)
	assert.True(t, claims.IsAdmin)

	newAccess, _, err := m.RefreshToken(refresh)
	require.NoError(t, err)
	_, err = m.ValidateToken(newAccess)
	assert.NoError(t, err)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	m := newManager(t)
	a, err := m.Authenticate("root", "s3cret")
	require.NoError(t, err)
	access, _, err := m.GenerateTokenPair(a)
	require.NoError(t, err)

	other := NewJWTManager(&config.JWTConfig{Secret: "other", AccessTokenTTL: time.Hour}, nil)
	_, err = other.ValidateToken(access)
	assert.Error(t, err)

	_, err = m.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestAccountIDsAreStable(t *testing.T) {
	a := newManager(t).accounts["root"].ID
	b := newManager(t).accounts["root"].ID
	assert.Equal(t, a, b)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := newManager(t)
	a, err := m.Authenticate("root", "s3cret")
	require.NoError(t, err)
	access, refresh, err := m.GenerateTokenPair(a)
	require.NoError(t, err)

	_, err = m.ValidateToken(refresh)
	assert.Error(t, err)

	_, _, err = m.RefreshToken(access)
	assert.Error(t, err)
}
