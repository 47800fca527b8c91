// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

var verbose bool

// Root returns the root command for the k3sforge CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "k3sforge",
		Short:         "Compose and provision multi-role k3s clusters on Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail")

	cmd.AddCommand(Init())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Cost())
	cmd.AddCommand(Status())
	cmd.AddCommand(Serve())
	cmd.AddCommand(Keygen())
	cmd.AddCommand(Version())

	return cmd
}

func logger() logr.Logger {
	return handlers.NewLogger(os.Stderr, verbose)
}
