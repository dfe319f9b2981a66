package service_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/service"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/internal/auth/store/drivers/sqlite"
	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/idx"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, access map[string][]string) domain.User {
	t.Helper()

	user := domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		Roles:        []string{"analyst"},
		DomainAccess: access,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), user))
	return user
}

func seedClient(t *testing.T, s store.Store) domain.Client {
	t.Helper()

	client := domain.Client{
		ID:            "cli-tool",
		Name:          "CLI Tool",
		AllowedScopes: []string{"read", "write"},
	}
	require.NoError(t, s.Clients().CreateClient(context.Background(), client))
	return client
}

func newSigner(t *testing.T) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()

	keys := jwtx.NewKeySet()
	keys.Add("k1", []byte("test-secret-0123456789abcdef0123"))
	return jwtx.NewSignerHS256(keys), jwtx.NewVerifierHS256(keys, "https://auth.test")
}

func TestStartDeviceFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedClient(t, st)

	flow := &service.DeviceFlowService{Store: st}

	t.Run("unknown client", func(t *testing.T) {
		_, err := flow.Start(ctx, "nope", nil)
		require.ErrorIs(t, err, service.ErrInvalidClient)
	})

	t.Run("defaults to read scope", func(t *testing.T) {
		dc, err := flow.Start(ctx, "cli-tool", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"read"}, dc.RequestedScopes)
		require.Equal(t, domain.DeviceCodePending, dc.Status)
		require.Equal(t, service.DefaultPollInterval, dc.PollInterval)
		require.Regexp(t, regexp.MustCompile(`^[BCDFGHJKLMNPQRSTVWXZ]{4}-[BCDFGHJKLMNPQRSTVWXZ]{4}$`), dc.UserCode)
		require.NotEmpty(t, dc.Code)
		require.True(t, dc.ExpiresAt.After(time.Now()))
	})

	t.Run("scopes outside client allowance rejected", func(t *testing.T) {
		_, err := flow.Start(ctx, "cli-tool", []string{"admin"})
		require.ErrorIs(t, err, service.ErrInvalidScope)
	})
}

func TestVerifyUserCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedClient(t, st)
	flow := &service.DeviceFlowService{Store: st}

	dc, err := flow.Start(ctx, "cli-tool", []string{"read"})
	require.NoError(t, err)

	t.Run("resolves pending attempt", func(t *testing.T) {
		got, err := flow.Verify(ctx, dc.UserCode)
		require.NoError(t, err)
		require.Equal(t, dc.Code, got.Code)
		require.Equal(t, "cli-tool", got.ClientID)
	})

	t.Run("tolerates lowercase and padded input", func(t *testing.T) {
		got, err := flow.Verify(ctx, "  "+strings.ToLower(dc.UserCode)+" ")
		require.NoError(t, err)
		require.Equal(t, dc.ID, got.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := flow.Verify(ctx, "XXXX-XXXX")
		require.ErrorIs(t, err, service.ErrUnknownUserCode)
	})

	t.Run("decided attempts no longer resolve", func(t *testing.T) {
		user := seedUser(t, st, map[string][]string{"cber.ai": {"read"}})
		decided, err := flow.Start(ctx, "cli-tool", []string{"read"})
		require.NoError(t, err)
		require.NoError(t, flow.Approve(ctx, decided.Code, user.ID, nil, nil))

		_, err = flow.Verify(ctx, decided.UserCode)
		require.ErrorIs(t, err, service.ErrUnknownUserCode)
	})

	t.Run("expired code", func(t *testing.T) {
		expired := domain.DeviceCode{
			ID:           idx.New().String(),
			Code:         "expired-device-code",
			UserCode:     "BBBB-CCCC",
			ClientID:     "cli-tool",
			Status:       domain.DeviceCodePending,
			PollInterval: 5,
			ExpiresAt:    time.Now().UTC().Add(-time.Minute),
		}
		require.NoError(t, st.DeviceCodes().CreateDeviceCode(ctx, expired))

		_, err := flow.Verify(ctx, "BBBB-CCCC")
		require.ErrorIs(t, err, service.ErrExpiredDeviceCode)
	})
}

func TestApproveAndDeny(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedClient(t, st)
	user := seedUser(t, st, map[string][]string{
		"cber.ai":  {"read", "write"},
		"usitc.ai": {"read"},
	})
	flow := &service.DeviceFlowService{Store: st}

	start := func(t *testing.T) *domain.DeviceCode {
		dc, err := flow.Start(ctx, "cli-tool", []string{"read"})
		require.NoError(t, err)
		return dc
	}

	t.Run("approve within entitlements", func(t *testing.T) {
		dc := start(t)
		err := flow.Approve(ctx, dc.Code, user.ID, []string{"read"}, map[string][]string{
			"cber.ai": {"read", "write"},
		})
		require.NoError(t, err)

		got, err := st.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
		require.NoError(t, err)
		require.Equal(t, domain.DeviceCodeAuthorized, got.Status)
		require.Equal(t, user.ID, *got.UserID)
		require.Equal(t, []string{"read", "write"}, got.DomainAccess["cber.ai"])
	})

	t.Run("entitlement violation reported per domain", func(t *testing.T) {
		dc := start(t)
		err := flow.Approve(ctx, dc.Code, user.ID, []string{"read"}, map[string][]string{
			"cber.ai":  {"admin"},
			"usitc.ai": {"read", "write"},
		})

		var dae *authsdk.DomainAccessError
		require.ErrorAs(t, err, &dae)
		require.Equal(t, []string{"admin"}, dae.Violations["cber.ai"])
		require.Equal(t, []string{"write"}, dae.Violations["usitc.ai"])

		// Attempt stays pending after a failed approval.
		got, err := st.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
		require.NoError(t, err)
		require.Equal(t, domain.DeviceCodePending, got.Status)
	})

	t.Run("unknown domain", func(t *testing.T) {
		dc := start(t)
		err := flow.Approve(ctx, dc.Code, user.ID, nil, map[string][]string{
			"nope.ai": {"read"},
		})
		require.ErrorIs(t, err, service.ErrUnknownDomain)
	})

	t.Run("scope the domain does not offer", func(t *testing.T) {
		dc := start(t)
		err := flow.Approve(ctx, dc.Code, user.ID, nil, map[string][]string{
			"cber.ai": {"superuser"},
		})
		require.ErrorIs(t, err, service.ErrInvalidScope)
	})

	t.Run("empty authorized scopes default to requested", func(t *testing.T) {
		dc := start(t)
		require.NoError(t, flow.Approve(ctx, dc.Code, user.ID, nil, nil))

		got, err := st.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
		require.NoError(t, err)
		require.Equal(t, dc.RequestedScopes, got.GrantedScopes)
	})

	t.Run("deny marks record denied", func(t *testing.T) {
		dc := start(t)
		require.NoError(t, flow.Deny(ctx, dc.Code))

		got, err := st.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
		require.NoError(t, err)
		require.Equal(t, domain.DeviceCodeDenied, got.Status)
	})

	t.Run("approving a denied attempt fails", func(t *testing.T) {
		dc := start(t)
		require.NoError(t, flow.Deny(ctx, dc.Code))
		err := flow.Approve(ctx, dc.Code, user.ID, nil, nil)
		require.ErrorIs(t, err, service.ErrInvalidGrant)
	})

	t.Run("unknown device code", func(t *testing.T) {
		err := flow.Approve(ctx, "missing", user.ID, nil, nil)
		require.ErrorIs(t, err, service.ErrInvalidGrant)
	})
}

func TestApproveTopLevelScopeCeiling(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedClient(t, st)
	user := seedUser(t, st, map[string][]string{"cber.ai": {"read"}})
	flow := &service.DeviceFlowService{Store: st}

	t.Run("scope the user holds nowhere", func(t *testing.T) {
		dc, err := flow.Start(ctx, "cli-tool", []string{"read", "write"})
		require.NoError(t, err)

		err = flow.Approve(ctx, dc.Code, user.ID, []string{"write"}, nil)
		require.ErrorIs(t, err, service.ErrAccessDenied)

		// Attempt stays pending after the failed approval.
		got, err := st.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
		require.NoError(t, err)
		require.Equal(t, domain.DeviceCodePending, got.Status)
	})

	t.Run("defaulted scopes hit the same ceiling", func(t *testing.T) {
		dc, err := flow.Start(ctx, "cli-tool", []string{"read", "write"})
		require.NoError(t, err)

		err = flow.Approve(ctx, dc.Code, user.ID, nil, nil)
		require.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("scope outside the requested set", func(t *testing.T) {
		dc, err := flow.Start(ctx, "cli-tool", []string{"read"})
		require.NoError(t, err)

		err = flow.Approve(ctx, dc.Code, user.ID, []string{"write"}, nil)
		require.ErrorIs(t, err, service.ErrInvalidScope)
	})

	t.Run("held scope passes", func(t *testing.T) {
		dc, err := flow.Start(ctx, "cli-tool", []string{"read"})
		require.NoError(t, err)
		require.NoError(t, flow.Approve(ctx, dc.Code, user.ID, []string{"read"}, nil))
	})
}
