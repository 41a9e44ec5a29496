package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// orchestrationTokenClaim is the JWT claim carrying the orchestration token.
const orchestrationTokenClaim = "ot"

// JWTSigner mints the session JWT handed to downstream micro frontends.
// The JWT wraps the final orchestration token and shares the session's
// absolute lifetime.
type JWTSigner struct {
	privateKey []byte
	now        func() time.Time
}

// NewJWTSigner creates a signer using the given HS256 key.
func NewJWTSigner(privateKey string) *JWTSigner {
	return &JWTSigner{privateKey: []byte(privateKey), now: time.Now}
}

// GenerateUserJWT wraps an orchestration token in a signed JWT.
func (s *JWTSigner) GenerateUserJWT(orchestrationToken string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		orchestrationTokenClaim: orchestrationToken,
		"iat":                   now.Unix(),
		"exp":                   now.Add(DefaultAbsoluteSessionTimeout).Unix(),
	})

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session JWT: %w", err)
	}
	return signed, nil
}
