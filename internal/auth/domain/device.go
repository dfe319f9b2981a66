package domain

import "time"

// UserDevice is one entry of a user's device history, appended whenever a
// device-code exchange succeeds.
type UserDevice struct {
	ID           string
	UserID       string
	ClientID     string
	Scopes       []string
	AuthorizedAt time.Time
}
