package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Cost returns the command that estimates the cluster's monthly cost.
func Cost() *cobra.Command {
	var opts handlers.CostOptions

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate the monthly cost of the planned cluster",
		Long: `Estimate the monthly cost of the planned cluster.

Every node is priced at its server type plus one primary IPv4 address, and
storage volumes per GiB. Prices come from the Hetzner price list for the
cluster's location; --offline uses a built-in table instead.

Examples:
  k3sforge cost
  k3sforge cost --offline --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cost(cmd.Context(), logger(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to feature spec (default: k3sforge.yaml or terraform.tfvars)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Use built-in prices instead of the Hetzner price list")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the estimate as JSON")
	return cmd
}
