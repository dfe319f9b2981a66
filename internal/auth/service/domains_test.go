package service_test

import (
	"context"
	"testing"

	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestDomainCatalogList(t *testing.T) {
	st := newTestStore(t)
	domains := &service.DomainService{Store: st}

	list, err := domains.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, list)

	names := make(map[string]bool, len(list))
	for _, d := range list {
		names[d.Name] = true
		require.NotEmpty(t, d.FullName)
		require.NotEmpty(t, d.Scopes)
	}
	require.True(t, names["cber.ai"])
	require.True(t, names["usitc.ai"])
}

func TestAuthorizeDomain(t *testing.T) {
	ctx := context.Background()
	env := newTokenTestEnv(t)
	domains := &service.DomainService{Store: env.store}

	pair, err := env.tokens.ExchangeDeviceCode(ctx, "cli-tool", env.approvedCode(t))
	require.NoError(t, err)

	t.Run("unknown domain", func(t *testing.T) {
		_, err := domains.Authorize(ctx, pair.AccessToken, "nope.ai", "read")
		require.ErrorIs(t, err, service.ErrUnknownDomain)
	})

	t.Run("scope the domain does not offer", func(t *testing.T) {
		_, err := domains.Authorize(ctx, pair.AccessToken, "usitc.ai", "superuser")
		require.ErrorIs(t, err, service.ErrInvalidScope)
	})

	t.Run("scope beyond the user's entitlement", func(t *testing.T) {
		// The user holds only "read" on usitc.ai.
		_, err := domains.Authorize(ctx, pair.AccessToken, "usitc.ai", "write")
		require.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := domains.Authorize(ctx, "never-issued", "usitc.ai", "read")
		require.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("grant lands in claims after refresh", func(t *testing.T) {
		merged, err := domains.Authorize(ctx, pair.AccessToken, "usitc.ai", "read")
		require.NoError(t, err)
		require.Equal(t, []string{"read"}, merged["usitc.ai"])
		require.Equal(t, []string{"read"}, merged["cber.ai"]) // previous grants kept

		// The current access token's claims are untouched; the grant
		// surfaces with the next refresh.
		_, verifier := newSigner(t)
		current, err := verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.NotContains(t, current.DomainAccess, "usitc.ai")

		rotated, err := env.tokens.ExchangeRefreshToken(ctx, "cli-tool", pair.RefreshToken)
		require.NoError(t, err)

		claims, err := verifier.Verify(rotated.AccessToken)
		require.NoError(t, err)
		require.Equal(t, []string{"read"}, claims.DomainAccess["usitc.ai"])
	})

	t.Run("granting twice is a no-op", func(t *testing.T) {
		env := newTokenTestEnv(t)
		domains := &service.DomainService{Store: env.store}

		pair, err := env.tokens.ExchangeDeviceCode(ctx, "cli-tool", env.approvedCode(t))
		require.NoError(t, err)

		first, err := domains.Authorize(ctx, pair.AccessToken, "usitc.ai", "read")
		require.NoError(t, err)
		second, err := domains.Authorize(ctx, pair.AccessToken, "usitc.ai", "read")
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, []string{"read"}, second["usitc.ai"])
	})
}
