package authsdk

// DeviceAuthorizationResponse is the RFC 8628 §3.2 payload returned when a
// device flow is started.
type DeviceAuthorizationResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	// VerificationURIComplete carries the user code pre-filled so devices
	// can render it as a QR code or clickable link.
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	// ExpiresIn is the lifetime of the device code in seconds.
	ExpiresIn int `json:"expires_in"`
	// Interval is the minimum polling interval in seconds.
	Interval int `json:"interval"`
}

// DeviceVerifyResponse resolves a user code for display on the approval page.
type DeviceVerifyResponse struct {
	Valid      bool   `json:"valid"`
	ClientID   string `json:"client_id,omitempty"`
	DeviceCode string `json:"device_code,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// TokenResponse is the OAuth2 token endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// DeviceDecisionRequest records the user's approve/deny decision for a
// pending device authorization.
type DeviceDecisionRequest struct {
	DeviceCode string `json:"device_code"`
	// UserID identifies the approving user. Ignored on deny.
	UserID string `json:"user_id,omitempty"`
	// AuthorizedScopes defaults to the requested scopes when empty.
	AuthorizedScopes []string            `json:"authorized_scopes,omitempty"`
	DomainAccess     map[string][]string `json:"domain_access,omitempty"`
}

// LoginRequest carries credentials for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DomainAuthorizeRequest asks for one scope on one domain.
type DomainAuthorizeRequest struct {
	Domain string `json:"domain"`
	Scope  string `json:"scope"`
}

// SuccessResponse acknowledges state-changing calls whose only payload is
// the outcome. Approve responses echo the device code.
type SuccessResponse struct {
	Success    bool   `json:"success"`
	DeviceCode string `json:"device_code,omitempty"`
}

// ErrorResponse is the standard OAuth2 error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// LoginResponse is the user subset returned by a successful login.
type LoginResponse struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	Roles        []string            `json:"roles,omitempty"`
	DomainAccess map[string][]string `json:"domain_access,omitempty"`
}

// DomainInfo is one entry of the domain catalog, annotated with the scopes
// the caller's token grants for it.
type DomainInfo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	// Scopes is the full scope catalog the domain offers.
	Scopes []string `json:"scopes"`
	// GrantedScopes is what the presented token actually holds for this
	// domain. Empty when the caller has no access.
	GrantedScopes []string `json:"granted_scopes,omitempty"`
}

// DomainsResponse is the catalog listing.
type DomainsResponse struct {
	Domains []DomainInfo `json:"domains"`
}

// DomainAuthorizeResponse acknowledges a granted domain scope. The grant
// lands in token claims at the next refresh.
type DomainAuthorizeResponse struct {
	Domain        string   `json:"domain"`
	GrantedScopes []string `json:"granted_scopes"`
}

// HealthChecks reports the state of individual dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	// Uptime is reported in seconds.
	Uptime float64       `json:"uptime,omitempty"`
	Checks *HealthChecks `json:"checks,omitempty"`
}
