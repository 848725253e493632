package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "accessgate/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "accessgate-test")

func TestGenerateAndValidate(t *testing.T) {
	token, err := jwtService.GenerateToken("ops@example.org", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken_Rejections(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := jwtService.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := jwtService.GenerateToken("ops@example.org", RoleAdmin, -time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, "token has expired", err.Error())
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewJWTService("other-key", "accessgate-test").GenerateToken("x", RoleAdmin, time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTService("test-signing-key", "someone-else").GenerateToken("x", RoleAdmin, time.Hour)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
