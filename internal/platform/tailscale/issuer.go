package tailscale

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	tsclient "tailscale.com/client/tailscale/v2"

	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/util/retry"
)

// keyCreator is the subset of the Tailscale API the issuer needs.
type keyCreator interface {
	CreateAuthKey(ctx context.Context, req tsclient.CreateKeyRequest) (*tsclient.Key, error)
}

// Issuer mints per-node auth keys.
type Issuer struct {
	keys     keyCreator
	logger   logr.Logger
	attempts int
	delay    time.Duration
}

var _ credentials.Issuer = (*Issuer)(nil)

// Option configures an Issuer.
type Option func(*Issuer)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

// WithRetry sets how often a failed key request is retried.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(i *Issuer) {
		i.attempts = attempts
		i.delay = initialDelay
	}
}

// NewIssuer creates an issuer for the tailnet authenticated by apiKey.
func NewIssuer(tailnet, apiKey string, opts ...Option) (*Issuer, error) {
	if tailnet == "" || apiKey == "" {
		return nil, errors.New("tailscale: tailnet and API key are required")
	}
	client := &tsclient.Client{
		Tailnet: tailnet,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
	return newIssuer(client.Keys(), opts...), nil
}

func newIssuer(keys keyCreator, opts ...Option) *Issuer {
	i := &Issuer{
		keys:     keys,
		logger:   logr.Discard(),
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue implements credentials.Issuer.
func (i *Issuer) Issue(ctx context.Context, req credentials.Request) (*credentials.EphemeralCredential, error) {
	var create tsclient.CreateKeyRequest
	create.Description = req.Description
	create.ExpirySeconds = int64(req.Expiry / time.Second)
	create.Capabilities.Devices.Create.Reusable = false
	create.Capabilities.Devices.Create.Ephemeral = false
	create.Capabilities.Devices.Create.Preauthorized = true
	create.Capabilities.Devices.Create.Tags = append([]string(nil), req.Tags...)

	var key *tsclient.Key
	err := retry.WithExponentialBackoff(ctx, func() error {
		var err error
		key, err = i.keys.CreateAuthKey(ctx, create)
		if err != nil && !retryable(err) {
			return retry.Fatal(err)
		}
		return err
	}, retry.WithMaxRetries(i.attempts), retry.WithInitialDelay(i.delay))
	if err != nil {
		return nil, fmt.Errorf("create auth key for %s: %w", req.Subject, err)
	}

	i.logger.V(1).Info("issued overlay join key", "subject", req.Subject, "id", key.ID, "tags", req.Tags)
	return &credentials.EphemeralCredential{
		ID:        key.ID,
		Subject:   req.Subject,
		Tags:      append([]string(nil), req.Tags...),
		Expiry:    req.Expiry,
		ExpiresAt: key.Expires,
		SingleUse: !key.Capabilities.Devices.Create.Reusable,
		Key:       key.Key,
	}, nil
}

// retryable reports whether a failed request may succeed on a later
// attempt. Context errors are final.
func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
