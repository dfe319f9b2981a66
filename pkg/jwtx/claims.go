package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the device-authorization flow.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 1 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the access-token claims used across the service. Changes here
// must stay additive to keep previously issued tokens verifiable.
type Claims struct {
	jwt.RegisteredClaims

	// ClientID identifies the application the token was issued to.
	ClientID string `json:"client_id,omitempty"`

	// Scopes is the device-level grant ("read", "write", ...). It acts as
	// the fallback for domains without an explicit entry in DomainAccess.
	Scopes []string `json:"scope,omitempty"`

	// DomainAccess maps a domain name (e.g. "cber.ai") to the scopes granted
	// for that domain. Per-domain entries are authoritative.
	DomainAccess map[string][]string `json:"domain_access,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, clientID string,
	scopes []string,
	domainAccess map[string][]string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		ClientID:     clientID,
		Scopes:       scopes,
		DomainAccess: domainAccess,
	}
}

// ScopesForDomain returns the scopes the token grants for a domain. An
// explicit DomainAccess entry is authoritative, even when empty; domains
// without an entry fall back to the top-level scope list.
func (c *Claims) ScopesForDomain(domain string) []string {
	if scopes, ok := c.DomainAccess[domain]; ok {
		return scopes
	}
	return c.Scopes
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
