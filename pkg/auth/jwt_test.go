package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUserJWT(t *testing.T) {
	signer := NewJWTSigner("super-secret-key")
	issued := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	signed, err := signer.GenerateUserJWT("orch-token-1")
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, token.Method)
		return []byte("super-secret-key"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return issued.Add(time.Minute) }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "orch-token-1", claims["ot"])
	assert.Equal(t, float64(issued.Unix()), claims["iat"])
	assert.Equal(t, float64(issued.Add(DefaultAbsoluteSessionTimeout).Unix()), claims["exp"])
}

func TestGenerateUserJWT_WrongKeyRejected(t *testing.T) {
	signer := NewJWTSigner("key-one")
	signed, err := signer.GenerateUserJWT("orch-token-1")
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("key-two"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}
