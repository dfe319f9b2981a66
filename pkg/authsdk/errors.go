package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hms-dta/agencyauth/pkg/httpx"
)

// OAuth2 error codes. The RFC 6749 and RFC 8628 vocabulary plus the
// device-verify and domain-authorization codes this service adds.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeServerError          = "server_error"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInsufficientScope    = "insufficient_scope"
	ErrorCodeAccessDenied         = "access_denied"

	// RFC 8628 §3.5 polling states.
	ErrorCodeAuthorizationPending = "authorization_pending"
	ErrorCodeSlowDown             = "slow_down"
	ErrorCodeExpiredToken         = "expired_token"

	// Verification endpoint codes.
	ErrorCodeInvalidCode = "invalid_code"
	ErrorCodeExpiredCode = "expired_code"

	// Login and domain authorization codes.
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidDomain      = "invalid_domain"
)

// OAuth2Error is the standard OAuth2 error response. It implements error and
// is used both by the server handlers (to write responses) and by the SDK
// client (to surface failures).
type OAuth2Error struct {
	// StatusCode is the HTTP status, not serialized in the body.
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as an OAuth2-compliant HTTP response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// NewOAuth2Error builds a custom error while keeping the wire shape.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

// Predefined errors for the common cases.
var (
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidClient = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidClient,
		Description: "unknown client",
	}

	ErrInvalidGrant = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidGrant,
		Description: "the grant is invalid, consumed, or was issued to another client",
	}

	ErrUnsupportedGrantType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeUnsupportedGrantType,
		Description: "grant type not supported",
	}

	ErrInvalidScope = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidScope,
		Description: "requested scope is invalid",
	}

	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrMethodNotAllowed = &OAuth2Error{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}

	ErrInvalidContentType = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type must be application/x-www-form-urlencoded",
	}

	ErrInvalidFormBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid form body",
	}

	ErrInvalidJSONBody = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "invalid JSON body",
	}

	ErrInvalidToken = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid, expired or revoked",
	}

	ErrAccessDenied = &OAuth2Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "access denied",
	}

	// Polling states; RFC 8628 serves these with HTTP 400.
	ErrAuthorizationPending = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeAuthorizationPending,
		Description: "authorization request is still pending",
	}

	ErrSlowDown = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeSlowDown,
		Description: "polling too frequently, increase the interval",
	}

	ErrExpiredToken = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeExpiredToken,
		Description: "the device code has expired",
	}

	ErrInvalidCode = &OAuth2Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeInvalidCode,
		Description: "unknown user code",
	}

	ErrExpiredCode = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeExpiredCode,
		Description: "the user code has expired",
	}

	ErrInvalidCredentials = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidDomain = &OAuth2Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeInvalidDomain,
		Description: "unknown domain",
	}
)

// DomainAccessError reports per-domain scope entitlement violations during
// device approval or domain authorization.
type DomainAccessError struct {
	// Violations maps each offending domain to the scopes the user is not
	// entitled to grant.
	Violations map[string][]string `json:"domain_violations"`
}

func (e *DomainAccessError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for domain, scopes := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s[%s]", domain, strings.Join(scopes, " ")))
	}
	return "scopes exceed user entitlement: " + strings.Join(parts, ", ")
}

// WriteError writes the violation map alongside the access_denied code.
func (e *DomainAccessError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusForbidden, map[string]any{
		"error":             ErrorCodeAccessDenied,
		"error_description": "requested scopes exceed the user's domain entitlements",
		"domain_violations": e.Violations,
	})
}

// parseErrorResponse turns a non-2xx HTTP response into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Domain entitlement violations carry a violations map.
	if resp.StatusCode == http.StatusForbidden {
		var dae struct {
			Error      string              `json:"error"`
			Violations map[string][]string `json:"domain_violations"`
		}
		if err := json.Unmarshal(body, &dae); err == nil &&
			dae.Error == ErrorCodeAccessDenied && len(dae.Violations) > 0 {
			return &DomainAccessError{Violations: dae.Violations}
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
