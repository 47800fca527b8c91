package infrastructure

import (
	"fmt"

	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/util/labels"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// ProvisionSSHKey uploads the generated cluster key when one was supplied.
func (p *Provisioner) ProvisionSSHKey(ctx *provisioning.Context) error {
	if ctx.SSHPublicKey == "" {
		return nil
	}
	cfg := ctx.Plan.Config
	name := naming.SSHKey(cfg.Name())

	if _, err := ctx.Infra.EnsureSSHKey(ctx, name, ctx.SSHPublicKey, labels.NewLabelBuilder(cfg.Name()).Build()); err != nil {
		return fmt.Errorf("failed to ensure ssh key: %w", err)
	}
	ctx.State.SSHKeyName = name
	ctx.Log.Info("ssh key ready", "name", name)
	return nil
}
