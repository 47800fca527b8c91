package netpolicy

import (
	"fmt"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/topology"
)

// Feature keys used on rules.
const (
	FeatureCluster       = "cluster"
	FeatureEgress        = "egress"
	FeatureExternal      = "external_access"
	FeatureBastion       = string(config.FeatureBastion)
	FeatureOverlayVPN    = string(config.FeatureOverlayVPN)
	FeatureStorageEngine = string(config.FeatureStorageEngine)
)

// Well-known ports.
const (
	PortSSH             = 22
	PortKubeAPI         = 6443
	PortKubelet         = 10250
	PortFlannelVXLAN    = 8472
	PortRegistryMirror  = 5001
	PortEtcdClient      = 2379
	PortEtcdPeer        = 2380
	PortLonghornFirst   = 9500
	PortLonghornLast    = 9504
	PortTailscaleDirect = 41641
)

// service is one entry of the internal matrix.
type service struct {
	feature  string
	name     string
	protocol Protocol
	ports    PortRange
	// serverOnly restricts destinations to servers.
	serverOnly bool
}

// nodeRoles are the roles that run the cluster's workloads.
var nodeRoles = []topology.Role{topology.RoleServer, topology.RoleAgent}

// meshServices is the always-on internal matrix.
var meshServices = []service{
	{feature: FeatureCluster, name: "kube-api", protocol: ProtocolTCP, ports: Port(PortKubeAPI)},
	{feature: FeatureCluster, name: "kubelet-metrics", protocol: ProtocolTCP, ports: Port(PortKubelet)},
	{feature: FeatureCluster, name: "flannel-vxlan", protocol: ProtocolUDP, ports: Port(PortFlannelVXLAN)},
	{feature: FeatureCluster, name: "registry-mirror", protocol: ProtocolTCP, ports: Port(PortRegistryMirror)},
	{feature: FeatureCluster, name: "etcd", protocol: ProtocolTCP, ports: Ports(PortEtcdClient, PortEtcdPeer), serverOnly: true},
}

// storageServices are added when the storage engine is on.
var storageServices = []service{
	{feature: FeatureStorageEngine, name: "longhorn", protocol: ProtocolTCP, ports: Ports(PortLonghornFirst, PortLonghornLast)},
}

// Compile derives the full rule set. It is pure and deterministic.
func Compile(cfg *config.EffectiveConfig, topo *topology.Topology) []Rule {
	var rules []Rule

	services := meshServices
	if cfg.Enabled(config.FeatureStorageEngine) {
		services = append(append([]service(nil), meshServices...), storageServices...)
	}
	for _, svc := range services {
		rules = append(rules, expand(svc)...)
	}

	rules = append(rules, externalRules(cfg)...)

	if cfg.Enabled(config.FeatureBastion) {
		rules = append(rules, bastionRules(cfg)...)
	}
	if cfg.Enabled(config.FeatureOverlayVPN) {
		rules = append(rules, Rule{
			Feature:      FeatureOverlayVPN,
			Name:         "nat-traversal",
			Direction:    DirectionIn,
			Destinations: presentRoles(topo),
			Protocol:     ProtocolUDP,
			Ports:        Port(PortTailscaleDirect),
			Scope:        ScopeExternal,
			CIDRs:        anywhere,
		})
	}

	for _, role := range presentRoles(topo) {
		rules = append(rules, Rule{
			Feature:   FeatureEgress,
			Name:      string(role),
			Direction: DirectionOut,
			Sources:   []topology.Role{role},
			Protocol:  ProtocolAny,
			Scope:     ScopeExternal,
			CIDRs:     anywhere,
		})
	}

	sortRules(rules)
	return rules
}

// expand emits one rule per source/destination role pair.
func expand(svc service) []Rule {
	destinations := nodeRoles
	if svc.serverOnly {
		destinations = []topology.Role{topology.RoleServer}
	}
	var out []Rule
	for _, src := range nodeRoles {
		for _, dst := range destinations {
			out = append(out, Rule{
				Feature:      svc.feature,
				Name:         fmt.Sprintf("%s/%s-to-%s", svc.name, src, dst),
				Direction:    DirectionIn,
				Sources:      []topology.Role{src},
				Destinations: []topology.Role{dst},
				Protocol:     svc.protocol,
				Ports:        svc.ports,
				Scope:        ScopeMesh,
			})
		}
	}
	return out
}

func externalRules(cfg *config.EffectiveConfig) []Rule {
	network := cfg.Network()
	var out []Rule
	if len(network.SSHAllowedCIDRs) > 0 {
		out = append(out, Rule{
			Feature:      FeatureExternal,
			Name:         "ssh",
			Direction:    DirectionIn,
			Destinations: nodeRoles,
			Protocol:     ProtocolTCP,
			Ports:        Port(PortSSH),
			Scope:        ScopeExternal,
			CIDRs:        network.SSHAllowedCIDRs,
		})
	}
	if len(network.APIAllowedCIDRs) > 0 {
		out = append(out, Rule{
			Feature:      FeatureExternal,
			Name:         "kube-api",
			Direction:    DirectionIn,
			Destinations: []topology.Role{topology.RoleServer},
			Protocol:     ProtocolTCP,
			Ports:        Port(PortKubeAPI),
			Scope:        ScopeExternal,
			CIDRs:        network.APIAllowedCIDRs,
		})
	}
	return out
}

// bastionRules lets the jump host reach every node over SSH and opens the
// jump host itself to the configured SSH sources, or to any source when
// none are configured.
func bastionRules(cfg *config.EffectiveConfig) []Rule {
	sources := cfg.Network().SSHAllowedCIDRs
	if len(sources) == 0 {
		sources = anywhere
	}
	return []Rule{
		{
			Feature:      FeatureBastion,
			Name:         "ssh-from-bastion",
			Direction:    DirectionIn,
			Sources:      []topology.Role{topology.RoleBastion},
			Destinations: nodeRoles,
			Protocol:     ProtocolTCP,
			Ports:        Port(PortSSH),
			Scope:        ScopeMesh,
		},
		{
			Feature:      FeatureBastion,
			Name:         "ssh-ingress",
			Direction:    DirectionIn,
			Destinations: []topology.Role{topology.RoleBastion},
			Protocol:     ProtocolTCP,
			Ports:        Port(PortSSH),
			Scope:        ScopeExternal,
			CIDRs:        sources,
		},
	}
}

func presentRoles(topo *topology.Topology) []topology.Role {
	var out []topology.Role
	for _, role := range topology.Roles {
		if topo.Has(role) {
			out = append(out, role)
		}
	}
	return out
}
