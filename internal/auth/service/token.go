package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/metrics"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/idx"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

type TokenService struct {
	Signer     jwtx.Signer
	Store      store.Store
	Metrics    *metrics.Metrics
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL <= 0 {
		return jwtx.DefaultRefreshTokenTTL
	}
	return s.RefreshTTL
}

// ExchangeDeviceCode implements the device_code grant. Polling states map
// onto sentinel errors; a successful exchange consumes the device code
// atomically so a replay sees invalid_grant.
func (s *TokenService) ExchangeDeviceCode(
	ctx context.Context,
	clientID, deviceCode string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	dc, err := s.Store.DeviceCodes().GetDeviceCodeByCode(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.TokenExchange("invalid_grant")
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	if dc.ClientID != clientID {
		s.Metrics.TokenExchange("invalid_grant")
		return nil, ErrInvalidGrant
	}

	if dc.Expired(now) {
		s.Metrics.TokenExchange("expired")
		return nil, ErrExpiredDeviceCode
	}

	switch dc.Status {
	case domain.DeviceCodePending:
		tooFast := dc.LastPolledAt != nil &&
			now.Sub(*dc.LastPolledAt) < time.Duration(dc.PollInterval)*time.Second

		if err := s.Store.DeviceCodes().TouchDeviceCodePoll(ctx, dc.ID, now); err != nil {
			return nil, err
		}
		if tooFast {
			s.Metrics.TokenExchange("slow_down")
			return nil, ErrSlowDown
		}
		s.Metrics.TokenExchange("pending")
		return nil, ErrAuthorizationPending

	case domain.DeviceCodeDenied:
		s.Metrics.TokenExchange("denied")
		return nil, ErrAccessDenied

	case domain.DeviceCodeAuthorized:
		// fall through to exchange

	default:
		return nil, ErrInvalidGrant
	}

	if dc.UserID == nil {
		return nil, ErrInvalidGrant
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-read inside the transaction: a concurrent poll may have
		// consumed the code between our check and here.
		current, err := tx.DeviceCodes().GetDeviceCodeByCode(ctx, deviceCode)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}
		if current.Status != domain.DeviceCodeAuthorized {
			return ErrInvalidGrant
		}

		p, record, err := s.issuePair(*dc.UserID, dc.ClientID, dc.GrantedScopes, dc.DomainAccess, now)
		if err != nil {
			return err
		}

		if err := tx.Tokens().CreateToken(ctx, *record); err != nil {
			return err
		}

		if err := tx.Devices().AddUserDevice(ctx, domain.UserDevice{
			ID:           idx.New().String(),
			UserID:       *dc.UserID,
			ClientID:     dc.ClientID,
			Scopes:       dc.GrantedScopes,
			AuthorizedAt: now,
		}); err != nil {
			return err
		}

		if err := tx.DeviceCodes().DeleteDeviceCode(ctx, dc.ID); err != nil {
			return err
		}

		pair = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			s.Metrics.TokenExchange("invalid_grant")
		}
		return nil, err
	}

	s.Metrics.TokenExchange("success")
	l.Info("device code exchanged",
		slog.String("user_id", *dc.UserID),
		slog.String("client_id", dc.ClientID),
	)
	return pair, nil
}

// ExchangeRefreshToken rotates a refresh token: the old record is deleted and
// a fresh pair is issued with the same user, scopes, and domain access.
func (s *TokenService) ExchangeRefreshToken(
	ctx context.Context,
	clientID, refreshToken string,
) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrInvalidGrant
	}
	hash := cryptox.FingerprintToken(refreshToken)

	var pair *domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		old, err := tx.Tokens().GetTokenByRefreshHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		if old.ClientID != clientID {
			return ErrInvalidGrant
		}
		if old.Expired(now) {
			return ErrInvalidGrant
		}

		p, record, err := s.issuePair(old.UserID, old.ClientID, old.Scopes, old.DomainAccess, now)
		if err != nil {
			return err
		}

		if err := tx.Tokens().DeleteToken(ctx, old.ID); err != nil {
			return err
		}
		if err := tx.Tokens().CreateToken(ctx, *record); err != nil {
			return err
		}

		pair = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			s.Metrics.TokenRefresh("invalid_grant")
		}
		return nil, err
	}

	s.Metrics.TokenRefresh("success")
	l.Info("refresh token rotated", slog.String("client_id", clientID))
	return pair, nil
}

// Revoke deletes the record matching the access token value. It is
// idempotent: revoking an unknown token is not an error, so callers learn
// nothing about token existence.
func (s *TokenService) Revoke(ctx context.Context, clientID, accessToken string) error {
	l := slogx.FromContext(ctx)

	hash := cryptox.FingerprintToken(accessToken)
	record, err := s.Store.Tokens().GetTokenByAccessHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if record.ClientID != clientID {
		return nil
	}

	if err := s.Store.Tokens().DeleteToken(ctx, record.ID); err != nil {
		return err
	}

	s.Metrics.TokenRevoked()
	l.Info("token revoked", slog.String("client_id", clientID))
	return nil
}

// issuePair mints an access/refresh pair and the record that backs it.
func (s *TokenService) issuePair(
	userID, clientID string,
	scopes []string,
	domainAccess map[string][]string,
	now time.Time,
) (*domain.TokenPair, *domain.Token, error) {
	claims := jwtx.NewAccessClaims(userID, clientID, scopes, domainAccess, s.accessTTL(), s.Issuer, now)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, nil, err
	}

	refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, nil, err
	}

	record := &domain.Token{
		ID:              idx.New().String(),
		UserID:          userID,
		ClientID:        clientID,
		AccessHash:      cryptox.FingerprintToken(accessToken),
		RefreshHash:     cryptox.FingerprintToken(refreshToken),
		Scopes:          scopes,
		DomainAccess:    domainAccess,
		AccessExpiresAt: now.Add(s.accessTTL()),
		ExpiresAt:       now.Add(s.refreshTTL()),
		CreatedAt:       now,
	}

	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL().Seconds()),
		Scope:        strings.Join(scopes, " "),
	}
	return pair, record, nil
}
