package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// DeviceAuthorizeHandler serves POST /v1/device/authorize per RFC 8628 §3.1.
// Accepts application/x-www-form-urlencoded like the token endpoint.
type DeviceAuthorizeHandler struct {
	DeviceFlowService *service.DeviceFlowService
}

func (h *DeviceAuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	clientID := strings.TrimSpace(r.Form.Get("client_id"))
	if clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	scopes := httpx.ParseSpaceDelimitedFields(r.Form.Get("scope"))

	dc, err := h.DeviceFlowService.Start(ctx, clientID, scopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			authsdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		default:
			log.Error("device authorization failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	verificationURI := h.DeviceFlowService.VerificationURI
	response := authsdk.DeviceAuthorizationResponse{
		DeviceCode:              dc.Code,
		UserCode:                dc.UserCode,
		VerificationURI:         verificationURI,
		VerificationURIComplete: verificationURI + "?code=" + url.QueryEscape(dc.UserCode),
		ExpiresIn:               int(time.Until(dc.ExpiresAt).Round(time.Second).Seconds()),
		Interval:                dc.PollInterval,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
