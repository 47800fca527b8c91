package wizard

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k3sforge/internal/config"
)

// clusterNameRegex validates cluster name format: 1-32 lowercase alphanumeric with hyphens.
var clusterNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

// runClusterIdentityGroup prompts for cluster name and location.
func runClusterIdentityGroup(ctx context.Context, result *Result) error {
	result.Location = config.DefaultLocation

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Description("1-32 lowercase alphanumeric characters or hyphens").
				Placeholder(config.DefaultClusterName).
				Value(&result.ClusterName).
				Validate(validateClusterName),
			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter").
				Options(LocationsToOptions()...).
				Value(&result.Location),
		).Title("Cluster Identity"),
	).RunWithContext(ctx)
}

// runSSHAccessGroup prompts for SSH key names and the SSH allow-list.
func runSSHAccessGroup(ctx context.Context, result *Result, suggestedCIDR string) error {
	var sshKeysInput string
	cidrInput := suggestedCIDR

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH Key Names (Optional)").
				Description("Comma-separated SSH key names from Hetzner Cloud. Leave empty to use a generated key.").
				Placeholder("my-key, another-key (or leave empty)").
				Value(&sshKeysInput),
			huh.NewInput().
				Title("SSH Allowed CIDRs (Optional)").
				Description("Comma-separated source ranges for SSH. Leave empty to keep SSH closed.").
				Placeholder("203.0.113.7/32").
				Value(&cidrInput).
				Validate(validateCIDRList),
		).Title("SSH Access"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	result.SSHKeys = parseList(sshKeysInput)
	result.SSHAllowedCIDRs = parseList(cidrInput)
	return nil
}

// runServersGroup prompts for server configuration.
func runServersGroup(ctx context.Context, result *Result) error {
	result.ServerType = config.DefaultServerType
	result.ServerCount = config.DefaultServerCount

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server Type").
				Description("Choose the server type for control plane nodes").
				Options(ServerTypesToOptions(ServerTypes)...).
				Value(&result.ServerType),
			huh.NewSelect[int]().
				Title("Node Count").
				Description("Odd numbers keep etcd quorum").
				Options(ServerCountOptions...).
				Value(&result.ServerCount),
		).Title("Servers"),
	).RunWithContext(ctx)
}

// runAgentsGroup prompts for agent configuration.
func runAgentsGroup(ctx context.Context, result *Result) error {
	result.AgentType = config.DefaultAgentType
	result.AgentCount = config.DefaultAgentCount

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server Type").
				Description("Choose the server type for agent nodes").
				Options(ServerTypesToOptions(ServerTypes)...).
				Value(&result.AgentType),
			huh.NewSelect[int]().
				Title("Node Count").
				Description("Agents run workloads and carry storage volumes").
				Options(AgentCountOptions...).
				Value(&result.AgentCount),
		).Title("Agents"),
	).RunWithContext(ctx)
}

// runFeaturesGroup prompts for optional subsystems.
func runFeaturesGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[config.Feature]().
				Title("Features").
				Description("Credentials for enabled features are read from the environment").
				Options(FeaturesToOptions()...).
				Value(&result.Features),
		).Title("Features"),
	).RunWithContext(ctx)
}

// runAdvancedGroup prompts for addressing, version and sizing overrides.
func runAdvancedGroup(ctx context.Context, opts *AdvancedOptions) error {
	opts.NetworkCIDR = config.DefaultNetworkCIDR
	opts.SubnetCIDR = config.DefaultSubnetCIDR
	opts.K3sVersion = config.DefaultK3sVersion
	sizeInput := strconv.Itoa(config.DefaultStorageSizeGiB)
	var apiInput string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Network CIDR").
				Value(&opts.NetworkCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Node Subnet CIDR").
				Description("Must lie inside the network").
				Value(&opts.SubnetCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("API Allowed CIDRs (Optional)").
				Description("Comma-separated source ranges for the Kubernetes API").
				Value(&apiInput).
				Validate(validateCIDRList),
		).Title("Network"),
		huh.NewGroup(
			huh.NewInput().
				Title("k3s Version").
				Value(&opts.K3sVersion),
			huh.NewInput().
				Title("Storage Volume Size (GiB)").
				Value(&sizeInput).
				Validate(validatePositiveInt),
		).Title("Cluster"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	opts.APIAllowedCIDRs = parseList(apiInput)
	opts.StorageSizeGiB, _ = strconv.Atoi(strings.TrimSpace(sizeInput))
	return nil
}

func validateClusterName(s string) error {
	if s == "" {
		return errClusterNameRequired
	}
	if !clusterNameRegex.MatchString(s) {
		return errClusterNameInvalid
	}
	return nil
}

func validateCIDR(s string) error {
	if _, _, err := net.ParseCIDR(strings.TrimSpace(s)); err != nil {
		return errCIDRInvalid
	}
	return nil
}

func validateCIDRList(s string) error {
	for _, c := range parseList(s) {
		if err := validateCIDR(c); err != nil {
			return err
		}
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return strconv.ErrSyntax
	}
	return nil
}

// parseList splits comma-separated input, dropping blanks.
func parseList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
