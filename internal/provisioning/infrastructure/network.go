package infrastructure

import (
	"fmt"

	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/util/labels"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// ProvisionNetwork ensures the private network and the node subnet.
func (p *Provisioner) ProvisionNetwork(ctx *provisioning.Context) error {
	cfg := ctx.Plan.Config
	name := naming.Network(cfg.Name())
	netCfg := cfg.Network()
	ctx.Log.Info("reconciling network", "name", name, "cidr", netCfg.CIDR)

	network, err := ctx.Infra.EnsureNetwork(ctx, name, netCfg.CIDR, labels.NewLabelBuilder(cfg.Name()).Build())
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}
	if err := ctx.Infra.EnsureSubnet(ctx, network, netCfg.SubnetCIDR, cfg.Cluster().NetworkZone); err != nil {
		return fmt.Errorf("failed to ensure subnet: %w", err)
	}
	ctx.State.Network = network
	return nil
}
