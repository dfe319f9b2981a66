package domain

import "time"

// User is an account that can approve device authorization attempts.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // argon2id PHC encoded
	Roles        []string
	// DomainAccess is the user's own entitlement ceiling: the scopes they
	// hold, and may delegate, per domain.
	DomainAccess map[string][]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasDomainScope reports whether the user's entitlements include the scope
// for the domain.
func (u *User) HasDomainScope(domain, scope string) bool {
	for _, s := range u.DomainAccess[domain] {
		if s == scope {
			return true
		}
	}
	return false
}
