package handlers

import (
	"fmt"
	"io"

	"github.com/imamik/k3sforge/internal/util/keygen"
)

// KeygenOptions holds the keygen command's flags.
type KeygenOptions struct {
	Dir       string
	Name      string
	Algorithm string
	Bits      int
	Comment   string
}

// Keygen writes a new SSH key pair and prints where it went.
func Keygen(out io.Writer, opts KeygenOptions) error {
	kp, err := generateKey(keygen.Algorithm(opts.Algorithm), opts.Bits, opts.Comment)
	if err != nil {
		return err
	}
	privPath, pubPath, err := kp.Write(opts.Dir, opts.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Private key: %s\n", privPath)
	fmt.Fprintf(out, "Public key:  %s\n", pubPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Upload the public key to Hetzner Cloud and list its name under ssh_key_names.")
	return nil
}
