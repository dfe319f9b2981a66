package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to the agency auth service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a sensible request timeout. The timeout
// applies per request, so a long WaitForToken poll loop is unaffected.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
