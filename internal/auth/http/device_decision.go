package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// DeviceDecisionHandler records the interactive approve/deny step of the
// device flow: POST /v1/device/approve and POST /v1/device/deny.
type DeviceDecisionHandler struct {
	DeviceFlowService *service.DeviceFlowService
}

func (h *DeviceDecisionHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.DeviceFlowService.Approve(ctx, req.DeviceCode, req.UserID, req.AuthorizedScopes, req.DomainAccess)
	if err != nil {
		var dae *authsdk.DomainAccessError
		switch {
		case errors.As(err, &dae):
			dae.WriteError(w)
		case errors.Is(err, service.ErrUnknownDomain):
			authsdk.ErrInvalidDomain.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrAccessDenied):
			authsdk.ErrAccessDenied.WriteError(w)
		case errors.Is(err, service.ErrExpiredDeviceCode):
			authsdk.ErrExpiredCode.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("device approval failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{
		Success:    true,
		DeviceCode: req.DeviceCode,
	})
}

func (h *DeviceDecisionHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	req, ok := h.decodeDecision(w, r)
	if !ok {
		return
	}

	if err := h.DeviceFlowService.Deny(ctx, req.DeviceCode); err != nil {
		switch {
		case errors.Is(err, service.ErrExpiredDeviceCode):
			authsdk.ErrExpiredCode.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant):
			authsdk.ErrInvalidCode.WriteError(w)
		default:
			log.Error("device denial failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

func (h *DeviceDecisionHandler) decodeDecision(
	w http.ResponseWriter,
	r *http.Request,
) (*authsdk.DeviceDecisionRequest, bool) {
	var req authsdk.DeviceDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return nil, false
	}
	if strings.TrimSpace(req.DeviceCode) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return nil, false
	}
	return &req, true
}
