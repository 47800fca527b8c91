package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Validate returns the command that resolves a feature spec and reports
// every finding without composing anything.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a feature spec",
		Long: `Resolve a feature spec and print every validation finding.

Errors fail the command; warnings are printed but do not.

Examples:
  k3sforge validate
  k3sforge validate -c terraform.tfvars`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to feature spec (default: k3sforge.yaml or terraform.tfvars)")
	return cmd
}
