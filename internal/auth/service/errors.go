package service

import "errors"

// Sentinel errors the HTTP layer maps onto OAuth2 wire errors. Services
// return these; anything else is a server error.
var (
	ErrInvalidClient      = errors.New("invalid_client")
	ErrInvalidGrant       = errors.New("invalid_grant")
	ErrInvalidScope       = errors.New("invalid_scope")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrAccessDenied       = errors.New("access_denied")

	// Polling states, RFC 8628 §3.5.
	ErrAuthorizationPending = errors.New("authorization_pending")
	ErrSlowDown             = errors.New("slow_down")
	// ErrExpiredDeviceCode is "expired_token" on the wire when polling and
	// "expired_code" when resolving a user code.
	ErrExpiredDeviceCode = errors.New("expired_device_code")

	// ErrUnknownUserCode is "invalid_code" on the wire.
	ErrUnknownUserCode = errors.New("unknown_user_code")

	ErrUnknownDomain = errors.New("unknown_domain")
)
