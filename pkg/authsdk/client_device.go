package authsdk

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// GrantTypeDeviceCode is the RFC 8628 grant type URN.
const GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// ErrFlowTimeout is returned by WaitForToken when the device code expires
// before the user completes authorization.
var ErrFlowTimeout = errors.New("device flow expired before authorization completed")

// StartDeviceFlow begins a device authorization flow for the client.
func (c *Client) StartDeviceFlow(
	ctx context.Context,
	clientID string,
	scopes []string,
) (*DeviceAuthorizationResponse, error) {
	data := url.Values{"client_id": {clientID}}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	var out DeviceAuthorizationResponse
	if err := c.postForm(ctx, "/v1/device/authorize", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyUserCode resolves a user code to its pending authorization attempt,
// for display on an approval page.
func (c *Client) VerifyUserCode(ctx context.Context, userCode string) (*DeviceVerifyResponse, error) {
	var out DeviceVerifyResponse
	path := "/v1/device/verify?code=" + url.QueryEscape(userCode)
	if err := c.getJSON(ctx, path, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollDeviceToken makes a single token-endpoint poll for the device code.
// While authorization is pending it returns ErrAuthorizationPending or
// ErrSlowDown (comparable with errors.As on *OAuth2Error).
func (c *Client) PollDeviceToken(
	ctx context.Context,
	clientID, deviceCode string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":  {GrantTypeDeviceCode},
		"device_code": {deviceCode},
		"client_id":   {clientID},
	}

	var out TokenResponse
	if err := c.postForm(ctx, "/v1/oauth2/token", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForToken polls the token endpoint until the flow reaches a terminal
// state. It honours the server-suggested interval, backs off a further five
// seconds on slow_down per RFC 8628 §3.5, and stops when ctx is cancelled or
// the device code's expires_in window lapses.
func (c *Client) WaitForToken(
	ctx context.Context,
	clientID string,
	start *DeviceAuthorizationResponse,
) (*TokenResponse, error) {
	interval := time.Duration(start.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	deadline := time.Now().Add(time.Duration(start.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		if start.ExpiresIn > 0 && time.Now().After(deadline) {
			return nil, ErrFlowTimeout
		}

		token, err := c.PollDeviceToken(ctx, clientID, start.DeviceCode)
		if err == nil {
			return token, nil
		}

		var oe *OAuth2Error
		if !errors.As(err, &oe) {
			return nil, err
		}

		switch oe.Code {
		case ErrorCodeAuthorizationPending:
			// keep polling
		case ErrorCodeSlowDown:
			interval += 5 * time.Second
		case ErrorCodeExpiredToken:
			return nil, ErrFlowTimeout
		default:
			// access_denied, invalid_grant, etc. are terminal
			return nil, err
		}
	}
}
