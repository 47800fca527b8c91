package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Serve returns the command that runs the offline plan API.
func Serve() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve offline plan composition over HTTP",
		Long: `Serve offline plan composition over HTTP.

Endpoints:
  POST /v1/plan                    feature spec in, plan summary out
  POST /v1/plan/scripts/:hostname  feature spec in, one node script out
  POST /v1/plan/rules              feature spec in, network rules out
  GET  /healthz
  GET  /metrics

Bodies are YAML or JSON; add ?format=tfvars for tfvars.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), logger(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
