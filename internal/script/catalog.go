package script

import (
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/topology"
)

// StepID names a catalog step.
type StepID string

const (
	StepNetworkReady          StepID = "network-ready"
	StepOverlayJoin           StepID = "overlay-vpn-join"
	StepBastionSSH            StepID = "bastion-ssh"
	StepBootstrapManifests    StepID = "bootstrap-manifests"
	StepStoragePrerequisites  StepID = "storage-prerequisites"
	StepStorageVolumeMount    StepID = "storage-volume-mount"
	StepControlPlaneBootstrap StepID = "control-plane-bootstrap"
	StepControlPlaneReady     StepID = "control-plane-ready"
	StepGPUDiscovery          StepID = "gpu-discovery"
	StepGPUOperatorInstall    StepID = "gpu-operator-install"
	StepGitOpsInstall         StepID = "gitops-install"
	StepGitOpsUIExpose        StepID = "gitops-ui-expose"
	StepStorageUIExpose       StepID = "storage-ui-expose"
)

// Criticality decides what a failing step does to the rest of the script.
type Criticality string

const (
	Hard Criticality = "hard"
	Soft Criticality = "soft"
)

// LogDir holds the per-step log streams.
const LogDir = "/var/log/k3sforge"

// Node is the node a script is compiled for.
type Node struct {
	topology.NodeIdentity
	First bool // First server; the only node that initializes the cluster
}

// Step is one catalog entry.
type Step struct {
	ID          StepID
	Order       int
	After       []StepID
	Criticality Criticality
	LogStream   string // Absolute path of the step's log file
	Applies     func(cfg *config.EffectiveConfig, node Node) bool
	Body        string // text/template rendered with the node's data
}

func stream(id StepID) string {
	return LogDir + "/" + string(id) + ".log"
}

func all(*config.EffectiveConfig, Node) bool { return true }

func roles(rs ...topology.Role) func(*config.EffectiveConfig, Node) bool {
	return func(_ *config.EffectiveConfig, n Node) bool {
		for _, r := range rs {
			if n.Role == r {
				return true
			}
		}
		return false
	}
}

func firstServer(_ *config.EffectiveConfig, n Node) bool { return n.First }

// when narrows an applicability predicate to configs where every feature is on.
func when(pred func(*config.EffectiveConfig, Node) bool, features ...config.Feature) func(*config.EffectiveConfig, Node) bool {
	return func(cfg *config.EffectiveConfig, n Node) bool {
		for _, f := range features {
			if !cfg.Enabled(f) {
				return false
			}
		}
		return pred(cfg, n)
	}
}

var clusterNodes = roles(topology.RoleServer, topology.RoleAgent)

// catalog is the complete step list. Order keys are spaced so steps can be
// inserted without renumbering.
var catalog = []Step{
	{
		ID: StepNetworkReady, Order: 10, Criticality: Hard,
		LogStream: stream(StepNetworkReady), Applies: all, Body: bodyNetworkReady,
	},
	{
		ID: StepOverlayJoin, Order: 20, Criticality: Hard,
		After:     []StepID{StepNetworkReady},
		LogStream: stream(StepOverlayJoin), Applies: when(all, config.FeatureOverlayVPN), Body: bodyOverlayJoin,
	},
	{
		ID: StepBastionSSH, Order: 25, Criticality: Hard,
		After:     []StepID{StepNetworkReady},
		LogStream: stream(StepBastionSSH), Applies: roles(topology.RoleBastion), Body: bodyBastionSSH,
	},
	{
		ID: StepBootstrapManifests, Order: 30, Criticality: Hard,
		After:     []StepID{StepNetworkReady},
		LogStream: stream(StepBootstrapManifests), Applies: firstServer, Body: bodyBootstrapManifests,
	},
	{
		ID: StepStoragePrerequisites, Order: 35, Criticality: Soft,
		After:     []StepID{StepNetworkReady},
		LogStream: stream(StepStoragePrerequisites),
		Applies:   when(roles(topology.RoleAgent), config.FeatureStorageEngine),
		Body:      bodyStoragePrerequisites,
	},
	{
		ID: StepStorageVolumeMount, Order: 40, Criticality: Hard,
		After:     []StepID{StepStoragePrerequisites},
		LogStream: stream(StepStorageVolumeMount),
		Applies:   when(roles(topology.RoleAgent), config.FeatureStorageEngine),
		Body:      bodyStorageVolumeMount,
	},
	{
		ID: StepControlPlaneBootstrap, Order: 50, Criticality: Hard,
		After:     []StepID{StepOverlayJoin, StepBootstrapManifests, StepStorageVolumeMount},
		LogStream: stream(StepControlPlaneBootstrap), Applies: clusterNodes, Body: bodyControlPlaneBootstrap,
	},
	{
		ID: StepControlPlaneReady, Order: 55, Criticality: Hard,
		After:     []StepID{StepControlPlaneBootstrap},
		LogStream: stream(StepControlPlaneReady), Applies: clusterNodes, Body: bodyControlPlaneReady,
	},
	{
		ID: StepGPUDiscovery, Order: 60, Criticality: Soft,
		After:     []StepID{StepControlPlaneBootstrap},
		LogStream: stream(StepGPUDiscovery),
		Applies:   when(roles(topology.RoleAgent), config.FeatureGPU),
		Body:      bodyGPUDiscovery,
	},
	{
		ID: StepGPUOperatorInstall, Order: 70, Criticality: Soft,
		After:     []StepID{StepControlPlaneReady},
		LogStream: "/var/log/gpu-operator-install.log",
		Applies:   when(firstServer, config.FeatureGPU),
		Body:      bodyGPUOperatorInstall,
	},
	{
		ID: StepGitOpsInstall, Order: 75, Criticality: Soft,
		After:     []StepID{StepControlPlaneReady},
		LogStream: "/var/log/argocd-install.log",
		Applies:   when(firstServer, config.FeatureGitOps, config.FeatureOverlayVPN),
		Body:      bodyGitOpsInstall,
	},
	{
		ID: StepGitOpsUIExpose, Order: 90, Criticality: Soft,
		After:     []StepID{StepOverlayJoin, StepGitOpsInstall},
		LogStream: "/var/log/tailscale-argocd-serve.log",
		Applies:   when(roles(topology.RoleServer), config.FeatureGitOps, config.FeatureOverlayVPN),
		Body:      bodyGitOpsUIExpose,
	},
	{
		ID: StepStorageUIExpose, Order: 95, Criticality: Soft,
		After:     []StepID{StepOverlayJoin, StepControlPlaneReady},
		LogStream: stream(StepStorageUIExpose),
		Applies:   when(firstServer, config.FeatureStorageEngine, config.FeatureOverlayVPN),
		Body:      bodyStorageUIExpose,
	},
}

// Catalog returns a copy of the step catalog.
func Catalog() []Step {
	out := make([]Step, len(catalog))
	for i, s := range catalog {
		s.After = append([]StepID(nil), s.After...)
		out[i] = s
	}
	return out
}
