package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Init returns the command for interactively creating a feature spec.
//
// Flags:
//
//	--output, -o: Path to output file (default "k3sforge.yaml")
//	--advanced, -a: Show advanced configuration options
//	--full, -f: Output full YAML with all options (default: minimal output)
func Init() *cobra.Command {
	var (
		outputPath string
		advanced   bool
		fullOutput bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a feature spec",
		Long: `Interactively create a feature spec file.

This command asks about:

  - Cluster identity (name and location)
  - SSH access (key names and allowed source ranges)
  - Server and agent types and counts
  - Optional features (storage, backups, overlay VPN, bastion, GitOps, GPU)

Your current public IP is offered as the default SSH source range.
Secrets are never written; export them before running plan or apply.

Use --advanced for network ranges, the k3s version and volume size.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), logger(), cmd.OutOrStdout(), outputPath, advanced, fullOutput)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "k3sforge.yaml", "Output file path")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Show advanced configuration options")
	cmd.Flags().BoolVarP(&fullOutput, "full", "f", false, "Output full YAML with all options")

	return cmd
}
