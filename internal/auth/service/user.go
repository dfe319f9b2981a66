package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/metrics"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

type UserService struct {
	Store   store.Store
	Metrics *metrics.Metrics
}

// Authenticate verifies an email/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.Login("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		s.Metrics.Login("failure")
		l.Info("login failed", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	s.Metrics.Login("success")
	l.Info("login succeeded", slog.String("user_id", user.ID))
	return &user, nil
}
