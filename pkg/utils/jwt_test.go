package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateJWTToken(7, "drsmith", "doctor", "Dr. Anna Smith", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "drsmith", claims.Username)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, "Dr. Anna Smith", claims.FullName)
}

func TestValidateExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateJWTToken(1, "clerk", "registration_clerk", "A Clerk", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ValidateJWTToken(token)
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "first-secret")
	token, err := GenerateJWTToken(1, "clerk", "vitals_clerk", "A Clerk", time.Now().Add(time.Hour))
	require.NoError(t, err)

	t.Setenv("JWT_SECRET_KEY", "second-secret")
	_, err = ValidateJWTToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	_, err := ValidateJWTToken("not-a-token")
	assert.Error(t, err)
}
