package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign access-token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with the key set's active HMAC secret and stamps
// the kid header so verifiers can pick the right secret after a rotation.
type HS256Signer struct {
	Keys *KeySet
}

func NewSignerHS256(keys *KeySet) *HS256Signer {
	return &HS256Signer{Keys: keys}
}

func (s *HS256Signer) Sign(c Claims) (string, error) {
	kid, secret, ok := s.Keys.Active()
	if !ok {
		return "", errors.New("jwtx: no active signing key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token.Header["kid"] = kid
	return token.SignedString(secret)
}
