package script

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/manifests"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// Paths and bounds baked into every script.
const (
	ManifestDir       = "/var/lib/rancher/k3s/server/manifests"
	StorageMount      = "/var/lib/longhorn"
	volumeDevicePath  = "/dev/disk/by-id/scsi-0HC_Volume_"
	nodeReadyAttempts = 60
	nodeReadyInterval = 5
)

// Bundle carries the artifacts of earlier stages a script embeds.
type Bundle struct {
	Credentials *credentials.Set
	Claims      *claims.Set
	Manifests   *manifests.Set
}

// Script is a compiled node script.
type Script struct {
	Node    topology.NodeIdentity
	Steps   []StepID
	Content []byte
}

// Filename is the script's file name in plan output.
func (s *Script) Filename() string {
	return s.Node.Hostname + ".sh"
}

type manifestFile struct {
	Filename string
	Data     string
}

type templateData struct {
	Hostname       string
	Role           string
	PrivateIP      string
	First          bool
	Overlay        bool
	Exposes        bool
	LogDir         string
	ManifestDir    string
	StorageMount   string
	K3sService     string
	K3sCommand     string
	K3sVersion     string
	Token          string
	JoinEndpoint   string
	JoinAttempts   int
	JoinInterval   int
	ReadyAttempts  int
	ReadyInterval  int
	TLSSANs        []string
	OverlayKey     string
	OverlayTags    string
	VolumeDevice   string
	Manifests      []manifestFile
	RecheckSeconds int
}

var templates = parseTemplates()

func parseTemplates() *template.Template {
	root := template.New("header").
		Option("missingkey=error").
		Funcs(template.FuncMap{"quote": shellQuote})
	template.Must(root.Parse(header))
	for _, s := range catalog {
		template.Must(root.New(string(s.ID)).Parse(s.Body))
	}
	return root
}

// shellQuote wraps s in single quotes for bash.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ValidateOrder checks that every step's order key is greater than the keys
// of the steps it must follow.
func ValidateOrder(steps []Step) error {
	orders := make(map[StepID]int, len(steps))
	for _, s := range steps {
		if _, dup := orders[s.ID]; dup {
			return fmt.Errorf("duplicate step %s", s.ID)
		}
		orders[s.ID] = s.Order
	}
	var errs []error
	for _, s := range steps {
		for _, dep := range s.After {
			order, ok := orders[dep]
			if !ok {
				order = -1
			}
			if !ok || order >= s.Order {
				errs = append(errs, &errdefs.OrderingError{
					Step: string(s.ID), StepOrder: s.Order,
					After: string(dep), AfterOrder: order,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// Select returns the catalog steps that apply to node, in execution order.
func Select(cfg *config.EffectiveConfig, node Node) []Step {
	var out []Step
	for _, s := range catalog {
		if s.Applies(cfg, node) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Step) int { return a.Order - b.Order })
	return out
}

// Compile renders the script of one node. It consumes the node's overlay
// join key from bundle.Credentials, so each node compiles once per plan.
func Compile(node topology.NodeIdentity, cfg *config.EffectiveConfig, topo *topology.Topology, bundle Bundle) (*Script, error) {
	if err := ValidateOrder(catalog); err != nil {
		return nil, fmt.Errorf("step catalog: %w", err)
	}
	known, ok := topo.Lookup(node.Hostname)
	if !ok || known != node {
		return nil, fmt.Errorf("node %s is not part of the topology", node.Hostname)
	}

	n := Node{NodeIdentity: node, First: topo.IsFirst(node)}
	steps := Select(cfg, n)

	data, err := newData(n, cfg, topo, bundle, steps)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "header", data); err != nil {
		return nil, &errdefs.EncodingError{Artifact: "script header for " + node.Hostname, Err: err}
	}
	ids := make([]StepID, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID)
		fmt.Fprintf(&buf, "\n%s() {\n  ", funcName(s.ID))
		if err := templates.ExecuteTemplate(&buf, string(s.ID), data); err != nil {
			return nil, &errdefs.EncodingError{Artifact: fmt.Sprintf("step %s for %s", s.ID, node.Hostname), Err: err}
		}
		buf.WriteString("\n}\n")
	}
	buf.WriteString("\n")
	for _, s := range steps {
		fmt.Fprintf(&buf, "run_step %s %s %s %s\n", s.Criticality, s.ID, s.LogStream, funcName(s.ID))
	}
	fmt.Fprintf(&buf, "log \"bootstrap of %s complete\"\n", node.Hostname)

	return &Script{Node: node, Steps: ids, Content: buf.Bytes()}, nil
}

func funcName(id StepID) string {
	return "step_" + strings.ReplaceAll(string(id), "-", "_")
}

func newData(n Node, cfg *config.EffectiveConfig, topo *topology.Topology, bundle Bundle, steps []Step) (*templateData, error) {
	cluster := cfg.Cluster()
	network := cfg.Network()
	join := cfg.Join()
	first := topo.First()

	d := &templateData{
		Hostname:       n.Hostname,
		Role:           string(n.Role),
		PrivateIP:      n.PrivateIP,
		First:          n.First,
		Overlay:        cfg.Enabled(config.FeatureOverlayVPN),
		LogDir:         LogDir,
		ManifestDir:    ManifestDir,
		StorageMount:   StorageMount,
		K3sService:     "k3s",
		K3sCommand:     "server",
		K3sVersion:     cluster.K3sVersion,
		JoinEndpoint:   first.PrivateIP,
		JoinAttempts:   join.Attempts,
		JoinInterval:   int(join.Interval.Seconds()),
		ReadyAttempts:  nodeReadyAttempts,
		ReadyInterval:  nodeReadyInterval,
		RecheckSeconds: int(cfg.Overlay().IPRecheckInterval.Seconds()),
	}
	if n.Role == topology.RoleAgent {
		d.K3sService, d.K3sCommand = "k3s-agent", "agent"
	}
	if d.Overlay {
		// MagicDNS resolves overlay hostnames from any network.
		d.JoinEndpoint = first.Hostname
	}
	for _, ip := range []string{network.FloatingIP, network.LoadBalancerIP} {
		if ip != "" {
			d.TLSSANs = append(d.TLSSANs, ip)
		}
	}

	missing := func(step StepID, input string, err error) error {
		return &errdefs.ScriptDependencyError{Node: n.Hostname, Step: string(step), Input: input, Err: err}
	}

	for _, s := range steps {
		switch s.ID {
		case StepOverlayJoin:
			if bundle.Credentials == nil {
				return nil, missing(s.ID, "overlay join key", credentials.ErrNotIssued)
			}
			cred, err := bundle.Credentials.Take(n.CredentialRef)
			if err != nil {
				return nil, missing(s.ID, "overlay join key", err)
			}
			d.OverlayKey = cred.Key
			d.OverlayTags = strings.Join(cred.Tags, ",")

		case StepControlPlaneBootstrap:
			name := naming.ClusterToken(cluster.Name)
			c, ok := claimOf(bundle.Claims, name)
			if !ok || c.Secret == "" {
				return nil, missing(s.ID, "claim "+name, nil)
			}
			d.Token = c.Secret

		case StepStorageVolumeMount:
			name := naming.StorageVolume(n.Hostname)
			c, ok := claimOf(bundle.Claims, name)
			if !ok {
				return nil, missing(s.ID, "claim "+name, nil)
			}
			d.VolumeDevice = volumeDevicePath + c.ResourceID

		case StepBootstrapManifests:
			if bundle.Manifests == nil {
				return nil, missing(s.ID, "manifest set", nil)
			}
			for _, e := range bundle.Manifests.Entries() {
				d.Manifests = append(d.Manifests, manifestFile{
					Filename: e.Filename(),
					Data:     base64.StdEncoding.EncodeToString(e.Content),
				})
			}

		case StepGitOpsUIExpose, StepStorageUIExpose:
			d.Exposes = true
		}
	}
	return d, nil
}

func claimOf(set *claims.Set, name string) (claims.Claim, bool) {
	if set == nil {
		return claims.Claim{}, false
	}
	return set.Get(name)
}
