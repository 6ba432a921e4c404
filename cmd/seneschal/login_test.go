package main

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailFromIDToken(t *testing.T) {
	t.Run("extracts email claim", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"email": "alice@example.com",
			"sub":   "12345",
		})
		signed, err := token.SignedString([]byte("test-key"))
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", emailFromIDToken(signed))
	})

	t.Run("empty token", func(t *testing.T) {
		assert.Empty(t, emailFromIDToken(""))
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Empty(t, emailFromIDToken("not.a.jwt"))
	})

	t.Run("no email claim", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "12345"})
		signed, err := token.SignedString([]byte("test-key"))
		require.NoError(t, err)

		assert.Empty(t, emailFromIDToken(signed))
	})
}
