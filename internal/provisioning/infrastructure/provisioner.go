package infrastructure

import (
	"github.com/imamik/k3sforge/internal/provisioning"
)

const phase = "infrastructure"

// Provisioner handles network, firewall and SSH key provisioning.
type Provisioner struct{}

// NewProvisioner creates a new infrastructure provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if err := p.ProvisionNetwork(ctx); err != nil {
		return err
	}
	if err := p.ProvisionFirewalls(ctx); err != nil {
		return err
	}
	return p.ProvisionSSHKey(ctx)
}
