package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "ortho-assist")

	token, err := svc.GenerateToken("user-42", time.Hour)
	require.NoError(t, err)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("secret", "ortho-assist")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("user-42", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("other", "ortho-assist")
		token, err := other.GenerateToken("user-42", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user claims", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrMissingUser)
	})

	t.Run("user_id claim only", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": "legacy-user",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		userID, err := svc.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, "legacy-user", userID)
	})
}
