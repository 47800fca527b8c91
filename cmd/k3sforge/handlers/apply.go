package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/provisioning/compute"
	"github.com/imamik/k3sforge/internal/provisioning/infrastructure"
	"github.com/imamik/k3sforge/internal/util/keygen"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// ApplyOptions holds the apply command's flags.
type ApplyOptions struct {
	ConfigPath  string
	OutDir      string
	Concurrency int
}

// Factory function variables for apply - can be replaced in tests.
var (
	// newPhases returns the provisioning phases in execution order.
	newPhases = func(concurrency int) []provisioning.Phase {
		return []provisioning.Phase{
			infrastructure.NewProvisioner(),
			compute.NewProvisioner(compute.WithConcurrency(concurrency)),
		}
	}

	// generateKey creates the cluster SSH key pair.
	generateKey = keygen.Generate
)

// Apply composes the spec against the cloud, writes the artifacts and
// provisions the network, firewalls and servers.
func Apply(ctx context.Context, log logr.Logger, out io.Writer, opts ApplyOptions) error {
	spec, _, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}

	infra := newInfraClient(spec.HCloudToken)
	p, err := composeSpec(ctx, log, out, spec, opts.OutDir, false, infra)
	if err != nil {
		return err
	}

	pctx := provisioning.NewContext(ctx, p, infra, log.WithName("provision"))
	if len(p.Config.Cluster().SSHKeyNames) == 0 {
		pub, err := ensureClusterKey(opts.OutDir, p.Config.Name(), log)
		if err != nil {
			return err
		}
		pctx.SSHPublicKey = pub
	}

	err = provisioning.RunPhases(pctx, newPhases(opts.Concurrency))
	if results := pctx.State.Results(p.Topology); len(results) > 0 {
		fmt.Fprint(out, renderNodeResults(results))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, style(okStyle, fmt.Sprintf("\n  Cluster %s applied", p.Config.Name())))
	return nil
}

// ensureClusterKey returns the cluster public key from dir, generating the
// pair on first use.
func ensureClusterKey(dir, cluster string, log logr.Logger) (string, error) {
	name := naming.SSHKey(cluster)
	pubPath := filepath.Join(dir, name+".pub")

	data, err := os.ReadFile(pubPath)
	switch {
	case err == nil:
		log.V(1).Info("reusing cluster key", "path", pubPath)
		return strings.TrimSpace(string(data)), nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to read cluster key: %w", err)
	}

	kp, err := generateKey(keygen.Ed25519, 0, "k3sforge@"+cluster)
	if err != nil {
		return "", fmt.Errorf("failed to generate cluster key: %w", err)
	}
	privPath, _, err := kp.Write(dir, name)
	if err != nil {
		return "", err
	}
	log.Info("generated cluster key", "path", privPath)
	return strings.TrimSpace(string(kp.PublicKey)), nil
}
