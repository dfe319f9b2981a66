package domain

import "time"

// TokenPair is what the token endpoint returns: a short-lived HS256 access
// token and an opaque rotating refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int    `json:"expires_in"` // seconds until access expiry
	Scope        string `json:"scope,omitempty"`
}

// Token is the stored record backing an issued token pair. Raw token values
// never hit the database; both are stored by SHA-256 fingerprint.
type Token struct {
	ID       string
	UserID   string
	ClientID string
	// AccessHash fingerprints the access token value for revocation and
	// domain-authorization lookup.
	AccessHash string
	// RefreshHash fingerprints the opaque refresh token.
	RefreshHash  string
	Scopes       []string
	DomainAccess map[string][]string
	// AccessExpiresAt bounds the JWT; ExpiresAt bounds the refresh token
	// and so the record as a whole.
	AccessExpiresAt time.Time
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

// Expired reports whether the refresh window has lapsed.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
