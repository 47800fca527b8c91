package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3sforge/cmd/k3sforge/handlers"
)

// Keygen returns the command that writes an SSH key pair for node access.
func Keygen() *cobra.Command {
	var opts handlers.KeygenOptions

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an SSH key pair for node access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Keygen(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", ".", "Directory to write the key pair to")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "k3sforge", "Key file name (public key gets .pub)")
	cmd.Flags().StringVarP(&opts.Algorithm, "type", "t", "ed25519", "Key type: ed25519 or rsa")
	cmd.Flags().IntVarP(&opts.Bits, "bits", "b", 4096, "RSA key size")
	cmd.Flags().StringVarP(&opts.Comment, "comment", "C", "k3sforge", "Public key comment")
	return cmd
}
