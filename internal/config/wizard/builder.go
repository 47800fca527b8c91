package wizard

import (
	"slices"

	"github.com/imamik/k3sforge/internal/config"
)

// BuildSpec creates a feature spec from the wizard result, on top of the defaults.
func BuildSpec(result *Result) *config.Spec {
	spec := config.DefaultSpec()
	spec.ClusterName = result.ClusterName
	spec.Location = result.Location
	spec.NetworkZone = NetworkZoneFor(result.Location)
	spec.ServerType = result.ServerType
	spec.ServerCount = result.ServerCount
	spec.AgentType = result.AgentType
	spec.AgentCount = result.AgentCount

	if len(result.SSHKeys) > 0 {
		spec.SSHKeyNames = result.SSHKeys
	}
	if len(result.SSHAllowedCIDRs) > 0 {
		spec.SSHAllowedCIDRs = result.SSHAllowedCIDRs
	}

	on := func(f config.Feature) bool { return slices.Contains(result.Features, f) }
	spec.EnableStorageEngine = on(config.FeatureStorageEngine)
	spec.EnableStorageBackup = on(config.FeatureStorageBackup)
	spec.EnableBlockStorageDriver = on(config.FeatureBlockStorageDriver)
	spec.EnableOverlayVPN = on(config.FeatureOverlayVPN)
	spec.EnableBastion = on(config.FeatureBastion)
	spec.EnableGitOps = on(config.FeatureGitOps)
	spec.EnableGPU = on(config.FeatureGPU)

	if result.AdvancedOptions != nil {
		applyAdvancedOptions(spec, result.AdvancedOptions)
	}
	return spec
}

// applyAdvancedOptions applies advanced options to the spec.
func applyAdvancedOptions(spec *config.Spec, opts *AdvancedOptions) {
	if opts.NetworkCIDR != "" {
		spec.NetworkCIDR = opts.NetworkCIDR
	}
	if opts.SubnetCIDR != "" {
		spec.SubnetCIDR = opts.SubnetCIDR
	}
	if opts.K3sVersion != "" {
		spec.K3sVersion = opts.K3sVersion
	}
	if opts.StorageSizeGiB > 0 {
		spec.StorageSizeGiB = opts.StorageSizeGiB
	}
	if len(opts.APIAllowedCIDRs) > 0 {
		spec.APIAllowedCIDRs = opts.APIAllowedCIDRs
	}
}
