package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	signed, err := GenerateJWT(42, "player", "test-secret", 15)
	require.NoError(t, err)

	claims, err := ValidateJWT(signed, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "player", claims.Role)
	assert.Equal(t, "spikeup-api", claims.Issuer)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	signed, err := GenerateJWT(42, "player", "test-secret", 15)
	require.NoError(t, err)

	_, err = ValidateJWT(signed, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	signed, err := GenerateJWT(42, "player", "test-secret", -1)
	require.NoError(t, err)

	_, err = ValidateJWT(signed, "test-secret")
	assert.ErrorContains(t, err, "expired")
}

func TestRefreshTokenHasNoRole(t *testing.T) {
	signed, err := GenerateRefreshToken(7, "refresh-secret", 7)
	require.NoError(t, err)

	claims, err := ValidateJWT(signed, "refresh-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Empty(t, claims.Role)
}
