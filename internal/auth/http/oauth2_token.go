package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type. Older device clients omit grant_type, so an
	// empty value is inferred from the fields present.
	grantType := r.Form.Get("grant_type")
	if grantType == "" {
		switch {
		case r.Form.Get("device_code") != "":
			grantType = authsdk.GrantTypeDeviceCode
		case r.Form.Get("refresh_token") != "":
			grantType = "refresh_token"
		}
	}

	switch grantType {
	case authsdk.GrantTypeDeviceCode:
		h.handleDeviceCodeGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleDeviceCodeGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	deviceCode := strings.TrimSpace(form.Get("device_code"))
	clientID := strings.TrimSpace(form.Get("client_id"))

	if deviceCode == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeDeviceCode(ctx, clientID, deviceCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthorizationPending):
			authsdk.ErrAuthorizationPending.WriteError(w)
		case errors.Is(err, service.ErrSlowDown):
			authsdk.ErrSlowDown.WriteError(w)
		case errors.Is(err, service.ErrExpiredDeviceCode):
			authsdk.ErrExpiredToken.WriteError(w)
		case errors.Is(err, service.ErrAccessDenied):
			authsdk.ErrAccessDenied.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant):
			authsdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			authsdk.ErrInvalidClient.WriteError(w)
		default:
			log.Error("device_code grant failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}

func writeTokenResponse(w http.ResponseWriter, pair *domain.TokenPair) {
	response := authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		Scope:        strings.TrimSpace(pair.Scope),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refresh := form.Get("refresh_token")
	clientID := strings.TrimSpace(form.Get("client_id"))

	if refresh == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(ctx, clientID, refresh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGrant):
			authsdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			authsdk.ErrInvalidClient.WriteError(w)
		default:
			log.Error("refresh grant failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}
