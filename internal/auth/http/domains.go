package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// DomainsHandler serves the domain catalog endpoints. Both require a bearer
// token; the listing is annotated with the scopes the presented token holds
// per domain.
type DomainsHandler struct {
	DomainService *service.DomainService
}

// HandleList handles GET /v1/domains.
func (h *DomainsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	records, err := h.DomainService.List(ctx)
	if err != nil {
		log.Error("domain listing failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	var access map[string][]string
	if claims, ok := ctx.Value(httpx.CtxKeyClaims).(jwtx.Claims); ok {
		access = claims.DomainAccess
	}

	response := authsdk.DomainsResponse{Domains: make([]authsdk.DomainInfo, 0, len(records))}
	for _, rec := range records {
		response.Domains = append(response.Domains, authsdk.DomainInfo{
			Name:          rec.Name,
			FullName:      rec.FullName,
			Category:      rec.Category,
			Description:   rec.Description,
			Scopes:        rec.Scopes,
			GrantedScopes: access[rec.Name],
		})
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}

// HandleAuthorize handles POST /v1/domains/authorize. The grant is merged
// into the stored token record and shows up in claims after the next refresh.
func (h *DomainsHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.DomainAuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	domainName := strings.TrimSpace(req.Domain)
	scope := strings.TrimSpace(req.Scope)
	if domainName == "" || scope == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	raw := httpx.RawTokenFromCtx(ctx)
	merged, err := h.DomainService.Authorize(ctx, raw, domainName, scope)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownDomain):
			authsdk.ErrInvalidDomain.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrAccessDenied):
			authsdk.ErrAccessDenied.WriteError(w)
		case errors.Is(err, service.ErrInvalidToken):
			authsdk.ErrInvalidToken.WriteError(w)
		default:
			log.Error("domain authorization failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.DomainAuthorizeResponse{
		Domain:        domainName,
		GrantedScopes: merged[domainName],
	})
}
