package service

import (
	"context"
	"log/slog"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/idx"
	"github.com/hms-dta/agencyauth/pkg/slogx"
)

// SeedService populates demo users and clients on an empty store. The domain
// catalog itself is seeded by migration; users need Argon2id hashes computed
// at runtime, so they are seeded here instead.
type SeedService struct {
	Store store.Store
}

type seedUser struct {
	Email        string
	Name         string
	Password     string
	Roles        []string
	DomainAccess map[string][]string
}

var demoUsers = []seedUser{
	{
		Email:    "admin@agencyauth.local",
		Name:     "Demo Admin",
		Password: "admin-dev-password",
		Roles:    []string{"admin"},
		DomainAccess: map[string][]string{
			"cber.ai":  {"read", "write", "admin"},
			"cder.ai":  {"read", "write", "admin"},
			"hrsa.ai":  {"read", "write", "admin"},
			"fhfa.ai":  {"read", "write", "admin"},
			"usitc.ai": {"read", "write", "admin"},
			"nhtsa.ai": {"read", "write", "admin"},
		},
	},
	{
		Email:    "analyst@agencyauth.local",
		Name:     "Demo Analyst",
		Password: "analyst-dev-password",
		Roles:    []string{"analyst"},
		DomainAccess: map[string][]string{
			"cber.ai":  {"read"},
			"usitc.ai": {"read", "write"},
		},
	},
}

var demoClients = []domain.Client{
	{ID: "hms-cli", Name: "HMS CLI", AllowedScopes: []string{"read", "write"}},
	{ID: "ops-dashboard", Name: "Operations Dashboard", AllowedScopes: []string{"read", "write", "admin"}},
}

// Seed inserts the demo identities when the store is empty. It is a no-op on
// a populated database, so restarting the service is safe.
func (s *SeedService) Seed(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		for _, su := range demoUsers {
			hash, err := cryptox.HashPassword(su.Password)
			if err != nil {
				return err
			}
			if err := s.Store.Users().CreateUser(ctx, domain.User{
				ID:           idx.New().String(),
				Email:        su.Email,
				Name:         su.Name,
				PasswordHash: hash,
				Roles:        su.Roles,
				DomainAccess: su.DomainAccess,
			}); err != nil {
				return err
			}
			l.Info("seeded demo user", slog.String("email", su.Email))
		}
	}

	empty, err = s.Store.Clients().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		for _, c := range demoClients {
			if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
				return err
			}
			l.Info("seeded demo client", slog.String("client_id", c.ID))
		}
	}

	return nil
}
