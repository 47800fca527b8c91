package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Apply returns the command for composing and provisioning the cluster.
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required)
//	TAILSCALE_API_KEY: Tailscale API key (overlay VPN)
//	BACKUP_S3_ACCESS_KEY, BACKUP_S3_SECRET_KEY: object storage credentials
func Apply() *cobra.Command {
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Compose and provision the cluster",
		Long: `Compose the cluster and provision it on Hetzner Cloud.

This resolves every claim, writes the artifacts, then creates the network,
one firewall per role and the servers. Each server boots its own script;
existing servers are left untouched.

When no ssh_key_names are configured a cluster key pair is generated into
the output directory and uploaded.

Examples:
  k3sforge apply
  k3sforge apply -c production.yaml -o prod-out`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), logger(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to feature spec (default: k3sforge.yaml or terraform.tfvars)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "out", "Output directory")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 5, "Servers created at once")
	return cmd
}
