package wizard

import (
	"context"
	"fmt"

	"github.com/imamik/k3sforge/internal/config"
)

// Result holds all the answers from the interactive wizard.
type Result struct {
	// Cluster Identity
	ClusterName string
	Location    string

	// SSH Access
	SSHKeys         []string
	SSHAllowedCIDRs []string

	// Servers
	ServerType  string
	ServerCount int

	// Agents
	AgentType  string
	AgentCount int

	// Features
	Features []config.Feature

	// Advanced options (only set in advanced mode)
	AdvancedOptions *AdvancedOptions
}

// AdvancedOptions holds advanced configuration options.
type AdvancedOptions struct {
	NetworkCIDR     string
	SubnetCIDR      string
	K3sVersion      string
	StorageSizeGiB  int
	APIAllowedCIDRs []string
}

// RunWizard runs the interactive configuration wizard. suggestedCIDR, when
// set, prefills the SSH allow-list (usually the caller's public IP as /32).
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool, suggestedCIDR string) (*Result, error) {
	result := &Result{}

	if err := runClusterIdentityGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("cluster identity: %w", err)
	}

	if err := runSSHAccessGroup(ctx, result, suggestedCIDR); err != nil {
		return nil, fmt.Errorf("ssh access: %w", err)
	}

	if err := runServersGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("servers: %w", err)
	}

	if err := runAgentsGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}

	if err := runFeaturesGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	if advanced {
		advOpts := &AdvancedOptions{}
		if err := runAdvancedGroup(ctx, advOpts); err != nil {
			return nil, fmt.Errorf("advanced: %w", err)
		}
		result.AdvancedOptions = advOpts
	}

	return result, nil
}
