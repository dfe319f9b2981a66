package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// DeviceVerifyHandler serves GET /v1/device/verify. It resolves a user code
// to its pending attempt so the approval page can show what is being
// authorized before the user decides.
type DeviceVerifyHandler struct {
	DeviceFlowService *service.DeviceFlowService
}

func (h *DeviceVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	dc, err := h.DeviceFlowService.Verify(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownUserCode):
			authsdk.ErrInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrExpiredDeviceCode):
			authsdk.ErrExpiredCode.WriteError(w)
		default:
			log.Error("user code verification failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.DeviceVerifyResponse{
		Valid:      true,
		ClientID:   dc.ClientID,
		DeviceCode: dc.Code,
		Scope:      strings.Join(dc.RequestedScopes, " "),
	})
}
