package authsdk

import (
	"context"
	"net/url"
)

// RefreshGrant rotates a refresh token for a new token pair. The old refresh
// token is invalidated server-side on success.
func (c *Client) RefreshGrant(
	ctx context.Context,
	clientID, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}

	var out TokenResponse
	if err := c.postForm(ctx, "/v1/oauth2/token", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke invalidates the token pair the access token belongs to. The server
// answers 200 whether or not the token existed, so a double revoke is not an
// error.
func (c *Client) Revoke(ctx context.Context, clientID, accessToken string) error {
	data := url.Values{
		"token":     {accessToken},
		"client_id": {clientID},
	}

	return c.postForm(ctx, "/v1/oauth2/revoke", data, nil)
}

// Domains fetches the domain catalog annotated with the bearer's access.
func (c *Client) Domains(ctx context.Context, accessToken string) (*DomainsResponse, error) {
	var out DomainsResponse
	if err := c.getJSON(ctx, "/v1/domains", accessToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
