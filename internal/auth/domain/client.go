package domain

import "time"

// Client is a registered OAuth client allowed to start device flows.
type Client struct {
	ID   string
	Name string
	// AllowedScopes bounds what the client may request top-level. Empty
	// means no restriction beyond user entitlements.
	AllowedScopes []string
	CreatedAt     time.Time
}
