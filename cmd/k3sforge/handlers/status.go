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
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/platform/hcloud"
	"github.com/imamik/k3sforge/internal/platform/ssh"
	"github.com/imamik/k3sforge/internal/plan"
	"github.com/imamik/k3sforge/internal/script"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/async"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// StatusOptions holds the status command's flags.
type StatusOptions struct {
	ConfigPath string
	OutDir     string
	KeyPath    string
}

// commandRunner runs one command on a node.
type commandRunner interface {
	Execute(ctx context.Context, command string) (string, error)
}

// nodeTarget is the address status dials for one node.
type nodeTarget struct {
	Host     string
	JumpHost string
}

func (t nodeTarget) String() string {
	if t.JumpHost == "" {
		return t.Host
	}
	return t.Host + " via " + t.JumpHost
}

// newNodeRunner opens an SSH session runner for a node.
var newNodeRunner = func(target nodeTarget, privateKey []byte) (commandRunner, error) {
	return ssh.NewClient(ssh.Config{Host: target.Host, JumpHost: target.JumpHost, PrivateKey: privateKey})
}

// nodeStatus is what status learned about one node.
type nodeStatus struct {
	Hostname string
	Address  string
	Steps    []script.StepProgress
	Err      error
}

// router picks how each node is reached. Overlay hostnames win when the
// overlay is on; otherwise nodes behind a bastion are reached on their
// private address through it, and everything else on its public IPv4.
type router struct {
	infra   hcloud.ServerProvisioner
	overlay bool
	jump    func() (string, error)
}

func newRouter(ctx context.Context, cfg *config.EffectiveConfig, topo *topology.Topology, infra hcloud.ServerProvisioner) *router {
	r := &router{infra: infra, overlay: cfg.Enabled(config.FeatureOverlayVPN)}
	if cfg.Enabled(config.FeatureBastion) && topo.Has(topology.RoleBastion) {
		bastion := topo.ByRole(topology.RoleBastion)[0].Hostname
		r.jump = sync.OnceValues(func() (string, error) {
			ip, err := publicIPv4(ctx, infra, bastion)
			if err != nil {
				return "", fmt.Errorf("bastion %s: %w", bastion, err)
			}
			return ip, nil
		})
	}
	return r
}

func (r *router) target(ctx context.Context, n topology.NodeIdentity) (nodeTarget, error) {
	if r.overlay {
		return nodeTarget{Host: n.Hostname}, nil
	}
	if r.jump != nil && n.Role != topology.RoleBastion {
		jump, err := r.jump()
		if err != nil {
			return nodeTarget{}, err
		}
		return nodeTarget{Host: n.PrivateIP, JumpHost: jump}, nil
	}
	ip, err := publicIPv4(ctx, r.infra, n.Hostname)
	if err != nil {
		return nodeTarget{}, err
	}
	return nodeTarget{Host: ip}, nil
}

func publicIPv4(ctx context.Context, infra hcloud.ServerProvisioner, hostname string) (string, error) {
	server, err := infra.GetServerByName(ctx, hostname)
	if err != nil {
		return "", err
	}
	if server == nil {
		return "", errors.New("server does not exist")
	}
	ip := hcloud.ServerIPv4(server)
	if ip == "" {
		return "", errors.New("server has no public IPv4 address")
	}
	return ip, nil
}

// Status reads every node's bootstrap step logs over SSH and prints how far
// each node got.
func Status(ctx context.Context, log logr.Logger, out io.Writer, opts StatusOptions) error {
	spec, _, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}
	p, err := plan.Compose(ctx, spec, plan.OfflineOptions(log.WithName("status")))
	if err != nil {
		var verrs errdefs.ValidationErrors
		if errors.As(err, &verrs) {
			renderFindings(out, verrs)
		}
		return err
	}

	keyPath := opts.KeyPath
	if keyPath == "" {
		keyPath = filepath.Join(opts.OutDir, naming.SSHKey(p.Config.Name()))
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no private key at %s; pass --key for clusters using ssh_key_names", keyPath)
		}
		return fmt.Errorf("failed to read private key: %w", err)
	}

	routes := newRouter(ctx, p.Config, p.Topology, newInfraClient(p.Config.Cluster().CloudToken))
	statuses := make([]nodeStatus, len(p.Scripts))
	tasks := make([]async.Task, len(p.Scripts))
	for i, s := range p.Scripts {
		tasks[i] = async.Task{Name: s.Node.Hostname, Func: func(ctx context.Context) error {
			statuses[i] = readNodeStatus(ctx, routes, key, s)
			return statuses[i].Err
		}}
	}
	results := async.RunAll(ctx, tasks, 5)

	fmt.Fprint(out, renderStatus(statuses))

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			log.V(1).Info("node status unavailable", "node", r.Name, "error", r.Err.Error())
			errs = append(errs, r.Err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d nodes could not be read", len(errs), len(results))
	}
	return nil
}

func readNodeStatus(ctx context.Context, routes *router, key []byte, s *script.Script) nodeStatus {
	st := nodeStatus{Hostname: s.Node.Hostname}
	target, err := routes.target(ctx, s.Node)
	if err != nil {
		st.Err = err
		return st
	}
	st.Address = target.String()

	runner, err := newNodeRunner(target, key)
	if err != nil {
		st.Err = err
		return st
	}
	output, err := runner.Execute(ctx, script.ProgressCommand)
	if err != nil {
		st.Err = err
		return st
	}
	st.Steps = script.ParseProgress(output, s.Steps)
	return st
}

// renderStatus prints one line per node and the step that needs attention.
func renderStatus(statuses []nodeStatus) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(style(sectionStyle, "  Bootstrap progress"))
	b.WriteString("\n")
	for _, st := range statuses {
		if st.Err != nil {
			fmt.Fprintf(&b, "    %-24s %-28s %s\n", st.Hostname, st.Address, style(errStyle, "unreachable: "+st.Err.Error()))
			continue
		}
		var done int
		var failed, running []string
		for _, sp := range st.Steps {
			switch sp.State {
			case script.StateDone:
				done++
			case script.StateFailed:
				failed = append(failed, string(sp.ID))
			case script.StateRunning:
				running = append(running, string(sp.ID))
			}
		}
		state := style(okStyle, fmt.Sprintf("%d/%d steps done", done, len(st.Steps)))
		switch {
		case len(failed) > 0:
			state = style(errStyle, fmt.Sprintf("%d/%d steps done, failed: %s", done, len(st.Steps), strings.Join(failed, ", ")))
		case len(running) > 0:
			state = style(warnStyle, fmt.Sprintf("%d/%d steps done, running: %s", done, len(st.Steps), strings.Join(running, ", ")))
		}
		fmt.Fprintf(&b, "    %-24s %-28s %s\n", st.Hostname, st.Address, state)
	}
	return b.String()
}
