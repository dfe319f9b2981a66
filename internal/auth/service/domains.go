package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// DomainService serves the protected-namespace catalog and handles
// incremental domain authorization for live tokens.
type DomainService struct {
	Store store.Store
}

// List returns the full catalog.
func (s *DomainService) List(ctx context.Context) ([]domain.DomainRecord, error) {
	return s.Store.Domains().ListDomains(ctx)
}

// Authorize grants the caller's live token a scope on a domain. The grant is
// merged into the stored record, so it shows up in claims at the next
// refresh. rawAccessToken is the bearer token exactly as presented.
func (s *DomainService) Authorize(
	ctx context.Context,
	rawAccessToken, domainName, scope string,
) (map[string][]string, error) {
	l := slogx.FromContext(ctx)

	rec, err := s.Store.Domains().GetDomainByName(ctx, domainName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownDomain
		}
		return nil, err
	}
	if !rec.OffersScope(scope) {
		return nil, ErrInvalidScope
	}

	token, err := s.Store.Tokens().GetTokenByAccessHash(ctx, cryptox.FingerprintToken(rawAccessToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if token.Expired(time.Now().UTC()) {
		return nil, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.HasDomainScope(domainName, scope) {
		return nil, ErrAccessDenied
	}

	merged := cloneAccess(token.DomainAccess)
	for _, existing := range merged[domainName] {
		if existing == scope {
			return merged, nil // already granted
		}
	}
	merged[domainName] = append(merged[domainName], scope)

	if err := s.Store.Tokens().UpdateTokenDomainAccess(ctx, token.ID, merged); err != nil {
		return nil, err
	}

	l.Info("domain scope granted",
		slog.String("user_id", user.ID),
		slog.String("domain", domainName),
		slog.String("scope", scope),
	)
	return merged, nil
}

func cloneAccess(access map[string][]string) map[string][]string {
	out := make(map[string][]string, len(access))
	for k, v := range access {
		out[k] = append([]string(nil), v...)
	}
	return out
}
