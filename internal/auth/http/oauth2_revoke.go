package http

import (
	"net/http"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// RevokeHandler serves POST /v1/oauth2/revoke following the RFC 7009 spec.
// Revocation is keyed on the access token value and scoped to the presenting
// client. Unknown tokens still return 200 OK to prevent token scanning
// attacks.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

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

	token := r.Form.Get("token")
	clientID := strings.TrimSpace(r.Form.Get("client_id"))

	if token == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Revoke. Per RFC 7009, the server responds 200 OK even if the token
	// is invalid or unknown.
	if err := h.TokenService.Revoke(ctx, clientID, token); err != nil {
		log.Warn("token revocation failed", "err", err)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}
