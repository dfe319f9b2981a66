package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/metrics"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/idx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

const (
	DefaultCodeTTL      = 10 * time.Minute
	DefaultPollInterval = 5 // seconds

	// DefaultScope is granted when a device asks for nothing specific.
	DefaultScope = "read"
)

// DeviceFlowService drives the RFC 8628 lifecycle up to the token exchange:
// starting attempts, resolving user codes, and recording the human decision.
type DeviceFlowService struct {
	Store   store.Store
	Metrics *metrics.Metrics

	// VerificationURI is handed to devices verbatim.
	VerificationURI string
	CodeTTL         time.Duration
	PollInterval    int
}

func (s *DeviceFlowService) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return DefaultCodeTTL
	}
	return s.CodeTTL
}

func (s *DeviceFlowService) pollInterval() int {
	if s.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return s.PollInterval
}

// Start begins a device authorization attempt for a registered client.
func (s *DeviceFlowService) Start(
	ctx context.Context,
	clientID string,
	scopes []string,
) (*domain.DeviceCode, error) {
	l := slogx.FromContext(ctx)

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	if len(scopes) == 0 {
		scopes = []string{DefaultScope}
	}
	if len(client.AllowedScopes) > 0 {
		scopes = intersect(scopes, client.AllowedScopes)
		if len(scopes) == 0 {
			return nil, ErrInvalidScope
		}
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	dc := domain.DeviceCode{
		ID:              idx.New().String(),
		Code:            code,
		ClientID:        client.ID,
		RequestedScopes: scopes,
		Status:          domain.DeviceCodePending,
		PollInterval:    s.pollInterval(),
		ExpiresAt:       time.Now().UTC().Add(s.codeTTL()),
	}

	// User codes are short, so retry on the rare collision.
	for attempt := 0; ; attempt++ {
		dc.UserCode, err = GenerateUserCode()
		if err != nil {
			return nil, err
		}
		if err = s.Store.DeviceCodes().CreateDeviceCode(ctx, dc); err == nil {
			break
		}
		if attempt >= 3 {
			return nil, err
		}
	}

	s.Metrics.DeviceCodeIssued()
	l.Info("device authorization started",
		slog.String("client_id", client.ID),
		slog.String("user_code", dc.UserCode),
	)
	return &dc, nil
}

// Verify resolves a user code to its attempt for the approval page.
func (s *DeviceFlowService) Verify(ctx context.Context, userCode string) (*domain.DeviceCode, error) {
	dc, err := s.Store.DeviceCodes().GetDeviceCodeByUserCode(ctx, NormalizeUserCode(userCode))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUserCode
		}
		return nil, err
	}
	if dc.Expired(time.Now().UTC()) {
		return nil, ErrExpiredDeviceCode
	}
	if dc.Status != domain.DeviceCodePending {
		// Decided attempts no longer resolve; the user code is single-use.
		return nil, ErrUnknownUserCode
	}
	return &dc, nil
}

// Approve records the user's decision to authorize the attempt. Per-domain
// grants must stay within the approving user's own entitlements; violations
// are reported per domain. Top-level scopes stay within the requested set
// and, because they act as the fallback grant for any domain without an
// explicit entry, each must be a scope the user holds somewhere.
func (s *DeviceFlowService) Approve(
	ctx context.Context,
	deviceCode, userID string,
	authorizedScopes []string,
	domainAccess map[string][]string,
) error {
	l := slogx.FromContext(ctx)

	dc, err := s.pendingByCode(ctx, deviceCode)
	if err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidGrant
		}
		return err
	}

	if err := s.checkDomainAccess(ctx, &user, domainAccess); err != nil {
		return err
	}

	if len(authorizedScopes) == 0 {
		authorizedScopes = dc.RequestedScopes
	} else if !subset(authorizedScopes, dc.RequestedScopes) {
		return ErrInvalidScope
	}

	for _, scope := range authorizedScopes {
		if !holdsScope(user.DomainAccess, scope) {
			return ErrAccessDenied
		}
	}

	dc.Status = domain.DeviceCodeAuthorized
	dc.UserID = &user.ID
	dc.GrantedScopes = authorizedScopes
	dc.DomainAccess = domainAccess

	if err := s.Store.DeviceCodes().UpdateDeviceCodeDecision(ctx, *dc); err != nil {
		return err
	}

	s.Metrics.DeviceDecision("approved")
	l.Info("device authorization approved",
		slog.String("user_id", user.ID),
		slog.String("client_id", dc.ClientID),
	)
	return nil
}

// Deny records the user's refusal.
func (s *DeviceFlowService) Deny(ctx context.Context, deviceCode string) error {
	dc, err := s.pendingByCode(ctx, deviceCode)
	if err != nil {
		return err
	}

	dc.Status = domain.DeviceCodeDenied
	if err := s.Store.DeviceCodes().UpdateDeviceCodeDecision(ctx, *dc); err != nil {
		return err
	}

	s.Metrics.DeviceDecision("denied")
	slogx.FromContext(ctx).Info("device authorization denied",
		slog.String("client_id", dc.ClientID),
	)
	return nil
}

func (s *DeviceFlowService) pendingByCode(ctx context.Context, deviceCode string) (*domain.DeviceCode, error) {
	dc, err := s.Store.DeviceCodes().GetDeviceCodeByCode(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}
	if dc.Expired(time.Now().UTC()) {
		return nil, ErrExpiredDeviceCode
	}
	if dc.Status != domain.DeviceCodePending {
		return nil, ErrInvalidGrant
	}
	return &dc, nil
}

// checkDomainAccess validates every requested domain exists, offers the
// scopes, and sits within the user's entitlements.
func (s *DeviceFlowService) checkDomainAccess(
	ctx context.Context,
	user *domain.User,
	access map[string][]string,
) error {
	violations := make(map[string][]string)

	for name, scopes := range access {
		rec, err := s.Store.Domains().GetDomainByName(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUnknownDomain
			}
			return err
		}

		for _, scope := range scopes {
			if !rec.OffersScope(scope) {
				return ErrInvalidScope
			}
			if !user.HasDomainScope(name, scope) {
				violations[name] = append(violations[name], scope)
			}
		}
	}

	if len(violations) > 0 {
		return &authsdk.DomainAccessError{Violations: violations}
	}
	return nil
}

// intersect returns the members of a that also appear in b, preserving a's
// order and dropping duplicates.
func intersect(a, b []string) []string {
	allowed := make(map[string]struct{}, len(b))
	for _, s := range b {
		allowed[s] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		if _, ok := allowed[s]; !ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// subset reports whether every member of a appears in b.
func subset(a, b []string) bool {
	allowed := make(map[string]struct{}, len(b))
	for _, s := range b {
		allowed[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := allowed[s]; !ok {
			return false
		}
	}
	return true
}

// holdsScope reports whether the entitlement map grants scope on any domain.
func holdsScope(access map[string][]string, scope string) bool {
	for _, scopes := range access {
		for _, s := range scopes {
			if s == scope {
				return true
			}
		}
	}
	return false
}
