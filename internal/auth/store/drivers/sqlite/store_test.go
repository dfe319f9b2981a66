package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/hms-dta/agencyauth/internal/auth/domain"
	"github.com/hms-dta/agencyauth/internal/auth/store"
	"github.com/hms-dta/agencyauth/internal/auth/store/drivers/sqlite"
	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/idx"
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

func seedUserAndClient(t *testing.T, s *sqlite.Store) (domain.User, domain.Client) {
	t.Helper()
	ctx := context.Background()

	user := domain.User{
		ID:           idx.New().String(),
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		Roles:        []string{"analyst"},
		DomainAccess: map[string][]string{"cber.ai": {"read", "write"}},
	}
	require.NoError(t, s.Users().CreateUser(ctx, user))

	client := domain.Client{
		ID:            "cli-tool",
		Name:          "CLI Tool",
		AllowedScopes: []string{"read", "write"},
	}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	return user, client
}

func TestUsersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, _ := seedUserAndClient(t, s)

	got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, []string{"analyst"}, got.Roles)
	require.Equal(t, []string{"read", "write"}, got.DomainAccess["cber.ai"])

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestDeviceCodeLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, client := seedUserAndClient(t, s)

	dc := domain.DeviceCode{
		ID:              idx.New().String(),
		Code:            cryptox.MustGenerateToken(cryptox.TokenSize256),
		UserCode:        "ABCD-1234",
		ClientID:        client.ID,
		RequestedScopes: []string{"read"},
		Status:          domain.DeviceCodePending,
		PollInterval:    5,
		ExpiresAt:       time.Now().UTC().Add(10 * time.Minute),
	}
	require.NoError(t, s.DeviceCodes().CreateDeviceCode(ctx, dc))

	byCode, err := s.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
	require.NoError(t, err)
	require.Equal(t, domain.DeviceCodePending, byCode.Status)
	require.Nil(t, byCode.UserID)

	byUserCode, err := s.DeviceCodes().GetDeviceCodeByUserCode(ctx, "ABCD-1234")
	require.NoError(t, err)
	require.Equal(t, dc.ID, byUserCode.ID)

	// Approve it.
	byCode.Status = domain.DeviceCodeAuthorized
	byCode.UserID = &user.ID
	byCode.GrantedScopes = []string{"read"}
	byCode.DomainAccess = map[string][]string{"cber.ai": {"read"}}
	require.NoError(t, s.DeviceCodes().UpdateDeviceCodeDecision(ctx, byCode))

	approved, err := s.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
	require.NoError(t, err)
	require.Equal(t, domain.DeviceCodeAuthorized, approved.Status)
	require.NotNil(t, approved.UserID)
	require.Equal(t, user.ID, *approved.UserID)
	require.Equal(t, []string{"read"}, approved.DomainAccess["cber.ai"])

	// Poll tracking.
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.DeviceCodes().TouchDeviceCodePoll(ctx, dc.ID, now))
	polled, err := s.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
	require.NoError(t, err)
	require.NotNil(t, polled.LastPolledAt)

	require.NoError(t, s.DeviceCodes().DeleteDeviceCode(ctx, dc.ID))
	_, err = s.DeviceCodes().GetDeviceCodeByCode(ctx, dc.Code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokensRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, client := seedUserAndClient(t, s)

	tok := domain.Token{
		ID:              idx.New().String(),
		UserID:          user.ID,
		ClientID:        client.ID,
		AccessHash:      cryptox.FingerprintToken("access-1"),
		RefreshHash:     cryptox.FingerprintToken("refresh-1"),
		Scopes:          []string{"read"},
		DomainAccess:    map[string][]string{"cber.ai": {"read"}},
		AccessExpiresAt: time.Now().UTC().Add(time.Hour),
		ExpiresAt:       time.Now().UTC().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	byAccess, err := s.Tokens().GetTokenByAccessHash(ctx, tok.AccessHash)
	require.NoError(t, err)
	require.Equal(t, tok.ID, byAccess.ID)

	byRefresh, err := s.Tokens().GetTokenByRefreshHash(ctx, tok.RefreshHash)
	require.NoError(t, err)
	require.Equal(t, tok.ID, byRefresh.ID)

	merged := map[string][]string{"cber.ai": {"read"}, "usitc.ai": {"read"}}
	require.NoError(t, s.Tokens().UpdateTokenDomainAccess(ctx, tok.ID, merged))
	updated, err := s.Tokens().GetTokenByAccessHash(ctx, tok.AccessHash)
	require.NoError(t, err)
	require.Equal(t, []string{"read"}, updated.DomainAccess["usitc.ai"])

	require.NoError(t, s.Tokens().DeleteToken(ctx, tok.ID))
	_, err = s.Tokens().GetTokenByAccessHash(ctx, tok.AccessHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDomainCatalogSeeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	domains, err := s.Domains().ListDomains(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, domains)

	cber, err := s.Domains().GetDomainByName(ctx, "cber.ai")
	require.NoError(t, err)
	require.Equal(t, "Center for Biologics Evaluation and Research", cber.FullName)
	require.Equal(t, "healthcare", cber.Category)
	require.Contains(t, cber.Scopes, "admin")

	_, err = s.Domains().GetDomainByName(ctx, "nope.ai")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserDeviceHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, client := seedUserAndClient(t, s)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Devices().AddUserDevice(ctx, domain.UserDevice{
			ID:           idx.New().String(),
			UserID:       user.ID,
			ClientID:     client.ID,
			Scopes:       []string{"read"},
			AuthorizedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}))
	}

	devices, err := s.Devices().ListUserDevices(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	require.Equal(t, client.ID, devices[0].ClientID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, client := seedUserAndClient(t, s)

	tok := domain.Token{
		ID:              idx.New().String(),
		UserID:          user.ID,
		ClientID:        client.ID,
		AccessHash:      cryptox.FingerprintToken("access-tx"),
		RefreshHash:     cryptox.FingerprintToken("refresh-tx"),
		AccessExpiresAt: time.Now().UTC().Add(time.Hour),
		ExpiresAt:       time.Now().UTC().Add(time.Hour),
	}

	sentinel := store.ErrAlreadyExists
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().CreateToken(ctx, tok); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Tokens().GetTokenByAccessHash(ctx, tok.AccessHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeepingDeletesExpiredRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, client := seedUserAndClient(t, s)

	expired := domain.DeviceCode{
		ID:           idx.New().String(),
		Code:         "expired-code",
		UserCode:     "EXPD-0000",
		ClientID:     client.ID,
		Status:       domain.DeviceCodePending,
		PollInterval: 5,
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, s.DeviceCodes().CreateDeviceCode(ctx, expired))

	live := expired
	live.ID = idx.New().String()
	live.Code = "live-code"
	live.UserCode = "LIVE-0000"
	live.ExpiresAt = time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.DeviceCodes().CreateDeviceCode(ctx, live))

	n, err := s.DeviceCodes().DeleteExpiredDeviceCodes(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.DeviceCodes().GetDeviceCodeByCode(ctx, "live-code")
	require.NoError(t, err)

	staleToken := domain.Token{
		ID:              idx.New().String(),
		UserID:          user.ID,
		ClientID:        client.ID,
		AccessHash:      "stale-access",
		RefreshHash:     "stale-refresh",
		AccessExpiresAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt:       time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, staleToken))

	n, err = s.Tokens().DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
