package compute

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/errdefs"
	hcloud_internal "github.com/imamik/k3sforge/internal/platform/hcloud"
	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/script"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/labels"
	"github.com/imamik/k3sforge/internal/util/retry"
)

// ReadyStep names the readiness barrier in logs and timeout errors.
const ReadyStep = "node-ready"

// reconcileNode ensures the server for one node exists and waits for it.
// An existing server is left untouched: its user data ran on first boot.
func (p *Provisioner) reconcileNode(ctx *provisioning.Context, c context.Context, node topology.NodeIdentity) provisioning.NodeResult {
	result := provisioning.NodeResult{Hostname: node.Hostname, Role: node.Role}
	log := ctx.Log.WithValues("node", node.Hostname)

	existing, err := ctx.Infra.GetServerByName(c, node.Hostname)
	if err != nil {
		result.Err = fmt.Errorf("failed to look up server: %w", err)
		return result
	}

	server := existing
	if existing != nil {
		log.Info("server already exists", "id", existing.ID)
		result.Existed = true
	} else {
		opts, err := p.serverOpts(ctx, node)
		if err != nil {
			result.Err = err
			return result
		}
		log.Info("creating server", "type", opts.ServerType, "private_ip", opts.PrivateIP, "volumes", len(opts.VolumeIDs))
		server, err = ctx.Infra.CreateServer(c, opts)
		if err != nil {
			result.Err = fmt.Errorf("failed to create server: %w", err)
			return result
		}
	}
	result.ServerID = server.ID
	result.PublicIP = hcloud_internal.ServerIPv4(server)

	ready, err := p.waitReady(ctx, c, node.Hostname)
	switch {
	case err == nil:
		result.Ready = true
		result.PublicIP = hcloud_internal.ServerIPv4(ready)
	case errdefs.IsHardTimeout(err) || !isTimeout(err):
		result.Err = err
	default:
		log.Info("server not ready in time, continuing", "error", err.Error())
	}
	return result
}

// serverOpts assembles the create request for a node.
func (p *Provisioner) serverOpts(ctx *provisioning.Context, node topology.NodeIdentity) (hcloud_internal.ServerCreateOpts, error) {
	cfg := ctx.Plan.Config
	cluster := cfg.Cluster()

	s, ok := ctx.Plan.Script(node.Hostname)
	if !ok {
		return hcloud_internal.ServerCreateOpts{}, fmt.Errorf("no bootstrap script planned for %s", node.Hostname)
	}
	userData, err := script.UserData(s)
	if err != nil {
		return hcloud_internal.ServerCreateOpts{}, err
	}

	volumeIDs, err := volumeIDs(ctx.Plan.Claims.ForNode(node.Hostname))
	if err != nil {
		return hcloud_internal.ServerCreateOpts{}, err
	}

	sshKeys := append([]string(nil), cluster.SSHKeyNames...)
	if ctx.State.SSHKeyName != "" {
		sshKeys = append(sshKeys, ctx.State.SSHKeyName)
	}

	var networkID int64
	if ctx.State.Network != nil {
		networkID = ctx.State.Network.ID
	}

	return hcloud_internal.ServerCreateOpts{
		Name:       node.Hostname,
		Image:      cluster.Image,
		ServerType: node.ServerType,
		Location:   cluster.Location,
		SSHKeys:    sshKeys,
		Labels: labels.NewLabelBuilder(cfg.Name()).
			WithRole(string(node.Role)).
			WithNode(node.Hostname).
			Build(),
		UserData:  userData,
		NetworkID: networkID,
		PrivateIP: node.PrivateIP,
		VolumeIDs: volumeIDs,
	}, nil
}

// volumeIDs returns the cloud IDs of a node's volume claims.
func volumeIDs(owned []claims.Claim) ([]int64, error) {
	var ids []int64
	for _, c := range owned {
		if c.Kind != claims.KindVolume {
			continue
		}
		id, err := strconv.ParseInt(c.ResourceID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("volume claim %s has non-numeric resource id %q", c.LogicalName, c.ResourceID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// waitReady polls until the server runs with a public address. Exhausting
// the budget is a soft timeout.
func (p *Provisioner) waitReady(ctx *provisioning.Context, c context.Context, hostname string) (*hcloud.Server, error) {
	barrier := retry.Barrier{
		Step:     ReadyStep,
		Attempts: ctx.Timeouts.NodeReadyAttempts,
		Interval: ctx.Timeouts.NodeReadyInterval,
		Severity: errdefs.SeverityWarning,
	}

	var ready *hcloud.Server
	err := retry.Poll(c, barrier, func(c context.Context) error {
		s, err := ctx.Infra.GetServerByName(c, hostname)
		if err != nil {
			return err
		}
		if s == nil {
			return retry.Fatal(fmt.Errorf("server %s disappeared", hostname))
		}
		if s.Status != hcloud.ServerStatusRunning {
			return fmt.Errorf("server is %s", s.Status)
		}
		if hcloud_internal.ServerIPv4(s) == "" {
			return errors.New("no public address yet")
		}
		ready = s
		return nil
	})
	return ready, err
}

func isTimeout(err error) bool {
	var target *errdefs.StepTimeoutError
	return errors.As(err, &target)
}
