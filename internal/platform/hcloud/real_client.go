package hcloud

import (
	"net/http"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/k3sforge/internal/config"
)

// RealClient talks to the Hetzner Cloud API. Every k3sforge resource it
// creates carries the k3sforge labels; it never deletes volumes.
type RealClient struct {
	client      *hcloud.Client
	timeouts    *config.Timeouts
	httpClient  *http.Client
	publicIPURL string
}

var _ InfrastructureManager = (*RealClient)(nil)

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts overrides the per-operation timeouts and retry budget.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) { c.timeouts = t }
}

// WithHCloudClient replaces the API client, e.g. with one pointed at a test server.
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) { c.client = hc }
}

// WithHTTPClient sets the client used for the public IP lookup.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RealClient) { c.httpClient = hc }
}

// WithPublicIPURL sets the endpoint that echoes the caller's IPv4 address.
func WithPublicIPURL(url string) ClientOption {
	return func(c *RealClient) { c.publicIPURL = url }
}

// NewRealClient returns a client authenticated with token.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:      hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("k3sforge", "")),
		timeouts:    config.LoadTimeouts(),
		httpClient:  http.DefaultClient,
		publicIPURL: defaultPublicIPURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
