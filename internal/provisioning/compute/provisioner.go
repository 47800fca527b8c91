package compute

import (
	"context"

	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/util/async"
)

const phase = "compute"

// DefaultConcurrency bounds parallel server creation.
const DefaultConcurrency = 5

// Provisioner creates the cluster's servers.
type Provisioner struct {
	concurrency int
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithConcurrency sets how many servers are created at once.
func WithConcurrency(n int) Option {
	return func(p *Provisioner) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner(opts ...Option) *Provisioner {
	p := &Provisioner{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	topo := ctx.Plan.Topology

	tasks := make([]async.Task, 0, topo.Len())
	for _, node := range topo.Nodes() {
		tasks = append(tasks, async.Task{
			Name: node.Hostname,
			Func: func(c context.Context) error {
				r := p.reconcileNode(ctx, c, node)
				ctx.State.Record(r)
				return r.Err
			},
		})
	}
	async.RunAll(ctx, tasks, p.concurrency)

	ready := 0
	for _, r := range ctx.State.Results(topo) {
		if r.Ready {
			ready++
		}
	}
	ctx.Log.Info("servers reconciled", "nodes", topo.Len(), "ready", ready)
	return ctx.State.Err(topo)
}
