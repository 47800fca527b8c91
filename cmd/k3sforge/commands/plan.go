package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Plan returns the command that composes and writes every artifact.
//
// Optional flags:
//
//	--config, -c: Path to feature spec (default: auto-detect)
//	--out, -o: Output directory (default "out")
//	--offline: Resolve claims and join keys without touching any API
//	--watch, -w: Recompose (offline) whenever the spec file changes
func Plan() *cobra.Command {
	var opts handlers.PlanOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compose scripts, manifests, rules and claims",
		Long: `Compose the cluster's artifacts and write them to the output directory.

Without --offline, claims are resolved against Hetzner Cloud and object
storage: resources the plan needs and does not find are created (they are
never deleted), and overlay join keys are minted. With --offline every claim
binds to a placeholder and join keys are fakes, so nothing is touched.

Examples:
  # Compose without credentials
  k3sforge plan --offline

  # Keep recomposing while editing the spec
  k3sforge plan --watch -c k3sforge.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), logger(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to feature spec (default: k3sforge.yaml or terraform.tfvars)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Do not touch any API")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Recompose offline when the spec changes")
	return cmd
}
