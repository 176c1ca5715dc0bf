package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamam/matrimony/pkg/config"
)

func testManager() *Manager {
	return NewManager(config.AuthConfig{
		JWTSecret:   "test-secret",
		ExpiryHours: 1,
		Issuer:      "sangamam-test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	m := testManager()

	tok, err := m.Generate(42, 100, "9876543210")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, uint(100), claims.ProfileID)
	assert.Equal(t, "9876543210", claims.Mobile)
	assert.Equal(t, "sangamam-test", claims.Issuer)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := testManager()

	_, err := m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := testManager()
	tok, err := m.Generate(1, 1, "9876543210")
	require.NoError(t, err)

	other := NewManager(config.AuthConfig{JWTSecret: "different-secret", ExpiryHours: 1})
	_, err = other.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager(config.AuthConfig{JWTSecret: "test-secret", ExpiryHours: 0})
	m.expiry = -1

	tok, err := m.Generate(1, 1, "9876543210")
	require.NoError(t, err)

	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
