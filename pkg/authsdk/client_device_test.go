package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestStartDeviceFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/device/authorize", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "cli-tool", r.FormValue("client_id"))
		require.Equal(t, "read write", r.FormValue("scope"))

		_ = json.NewEncoder(w).Encode(authsdk.DeviceAuthorizationResponse{
			DeviceCode:      "dev-123",
			UserCode:        "ABCD-EFGH",
			VerificationURI: "http://example.com/activate",
			ExpiresIn:       600,
			Interval:        5,
		})
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	resp, err := client.StartDeviceFlow(context.Background(), "cli-tool", []string{"read", "write"})
	require.NoError(t, err)
	require.Equal(t, "dev-123", resp.DeviceCode)
	require.Equal(t, "ABCD-EFGH", resp.UserCode)
	require.Equal(t, 5, resp.Interval)
}

func TestStartDeviceFlowUnknownClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.ErrInvalidClient.WriteError(w)
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	_, err := client.StartDeviceFlow(context.Background(), "nope", nil)

	var oe *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oe)
	require.Equal(t, authsdk.ErrorCodeInvalidClient, oe.Code)
	require.Equal(t, http.StatusUnauthorized, oe.StatusCode)
}

func TestPollDeviceTokenStates(t *testing.T) {
	cases := []struct {
		name     string
		write    func(w http.ResponseWriter)
		wantCode string
	}{
		{"pending", authsdk.ErrAuthorizationPending.WriteError, authsdk.ErrorCodeAuthorizationPending},
		{"slow down", authsdk.ErrSlowDown.WriteError, authsdk.ErrorCodeSlowDown},
		{"expired", authsdk.ErrExpiredToken.WriteError, authsdk.ErrorCodeExpiredToken},
		{"denied", authsdk.ErrAccessDenied.WriteError, authsdk.ErrorCodeAccessDenied},
		{"consumed", authsdk.ErrInvalidGrant.WriteError, authsdk.ErrorCodeInvalidGrant},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				require.Equal(t, authsdk.GrantTypeDeviceCode, r.FormValue("grant_type"))
				tc.write(w)
			}))
			defer srv.Close()

			client := authsdk.NewClient(srv.URL)
			_, err := client.PollDeviceToken(context.Background(), "cli-tool", "dev-123")

			var oe *authsdk.OAuth2Error
			require.ErrorAs(t, err, &oe)
			require.Equal(t, tc.wantCode, oe.Code)
		})
	}
}

func TestWaitForTokenSucceedsAfterPending(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			authsdk.ErrAuthorizationPending.WriteError(w)
			return
		}
		_ = json.NewEncoder(w).Encode(authsdk.TokenResponse{
			AccessToken:  "at-abc",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
			RefreshToken: "rt-abc",
			Scope:        "read",
		})
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	start := &authsdk.DeviceAuthorizationResponse{
		DeviceCode: "dev-123",
		ExpiresIn:  600,
		Interval:   1,
	}

	token, err := client.WaitForToken(context.Background(), "cli-tool", start)
	require.NoError(t, err)
	require.Equal(t, "at-abc", token.AccessToken)
	require.Equal(t, "rt-abc", token.RefreshToken)
	require.EqualValues(t, 3, polls.Load())
}

func TestWaitForTokenStopsOnDenial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.ErrAccessDenied.WriteError(w)
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	start := &authsdk.DeviceAuthorizationResponse{DeviceCode: "dev-123", ExpiresIn: 600, Interval: 1}

	_, err := client.WaitForToken(context.Background(), "cli-tool", start)

	var oe *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oe)
	require.Equal(t, authsdk.ErrorCodeAccessDenied, oe.Code)
}

func TestWaitForTokenHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.ErrAuthorizationPending.WriteError(w)
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	start := &authsdk.DeviceAuthorizationResponse{DeviceCode: "dev-123", ExpiresIn: 600, Interval: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	_, err := client.WaitForToken(ctx, "cli-tool", start)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForTokenExpiresWithCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.ErrExpiredToken.WriteError(w)
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	start := &authsdk.DeviceAuthorizationResponse{DeviceCode: "dev-123", ExpiresIn: 600, Interval: 1}

	_, err := client.WaitForToken(context.Background(), "cli-tool", start)
	require.ErrorIs(t, err, authsdk.ErrFlowTimeout)
}

func TestDomainAccessErrorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e := &authsdk.DomainAccessError{
			Violations: map[string][]string{"cber.ai": {"admin"}},
		}
		e.WriteError(w)
	}))
	defer srv.Close()

	client := authsdk.NewClient(srv.URL)
	_, err := client.PollDeviceToken(context.Background(), "cli-tool", "dev-123")

	var dae *authsdk.DomainAccessError
	require.True(t, errors.As(err, &dae))
	require.Equal(t, []string{"admin"}, dae.Violations["cber.ai"])
}
