package provisioning

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/config"
	hcloud_internal "github.com/imamik/k3sforge/internal/platform/hcloud"
	"github.com/imamik/k3sforge/internal/plan"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Plan     *plan.Plan
	State    *State
	Infra    hcloud_internal.InfrastructureManager
	Log      logr.Logger
	Timeouts *config.Timeouts

	// SSHPublicKey, when set, is uploaded as the cluster key and added to
	// every server next to the configured key names.
	SSHPublicKey string
}

// NewContext creates a new provisioning context.
func NewContext(ctx context.Context, p *plan.Plan, infra hcloud_internal.InfrastructureManager, log logr.Logger) *Context {
	return &Context{
		Context:  ctx,
		Plan:     p,
		State:    NewState(),
		Infra:    infra,
		Log:      log,
		Timeouts: config.LoadTimeouts(),
	}
}
