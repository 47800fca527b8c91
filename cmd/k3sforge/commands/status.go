package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Status returns the command that reports each node's bootstrap progress.
func Status() *cobra.Command {
	var opts handlers.StatusOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show each node's bootstrap progress",
		Long: `Show how far each node's provisioning script got.

Every node is reached over SSH as root and its step logs under
/var/log/k3sforge are read. The cluster key generated by apply is used
unless --key names another private key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), logger(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to feature spec (default: k3sforge.yaml or terraform.tfvars)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "out", "Output directory holding the cluster key")
	cmd.Flags().StringVarP(&opts.KeyPath, "key", "k", "", "Private key to authenticate with")
	return cmd
}
