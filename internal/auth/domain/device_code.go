package domain

import "time"

// DeviceCodeStatus tracks where a device authorization attempt sits in its
// lifecycle. Authorized and denied records are consumed (deleted) by the
// token endpoint; there is no terminal "consumed" state on disk.
type DeviceCodeStatus string

const (
	DeviceCodePending    DeviceCodeStatus = "pending"
	DeviceCodeAuthorized DeviceCodeStatus = "authorized"
	DeviceCodeDenied     DeviceCodeStatus = "denied"
)

// DeviceCode represents one RFC 8628 device authorization attempt.
//
// The device code itself is stored in the clear: the verification endpoint
// must hand it back for the approval page, and at 256 bits of entropy it is
// not guessable the way a password is.
type DeviceCode struct {
	ID       string
	Code     string // high-entropy opaque value the device polls with
	UserCode string // human-typeable XXXX-XXXX form
	ClientID string
	// RequestedScopes is what the device asked for at /device/authorize.
	RequestedScopes []string
	Status          DeviceCodeStatus

	// Populated on approval.
	UserID        *string
	GrantedScopes []string
	DomainAccess  map[string][]string

	// PollInterval is the minimum seconds between token-endpoint polls.
	PollInterval int
	LastPolledAt *time.Time

	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the attempt's window has lapsed.
func (d *DeviceCode) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
