// Package topology expands an EffectiveConfig into concrete node identities.
//
// Nodes live in one arena ordered servers, agents, bastion. The first server
// is stored as an index into that arena and is the only node allowed to run
// cluster-initializing steps.
package topology

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// Role is a node's function in the cluster.
type Role string

const (
	RoleServer  Role = "server"
	RoleAgent   Role = "agent"
	RoleBastion Role = "bastion"
)

// Roles lists every role in arena order.
var Roles = []Role{RoleServer, RoleAgent, RoleBastion}

// Host offsets inside the node subnet.
const (
	serverHostOffset  = 10
	agentHostOffset   = 20
	bastionHostOffset = 250
)

// NodeIdentity is one planned machine.
type NodeIdentity struct {
	Index         int // Position in the arena
	Role          Role
	Ordinal       int
	Hostname      string
	PrivateIP     string
	ServerType    string
	CredentialRef string // Subject of the node's overlay join key, empty without the overlay
}

// Topology is the node arena for one plan.
type Topology struct {
	nodes []NodeIdentity
	first int
}

// Compute derives every node identity from cfg. It is deterministic and
// fails only if hostnames or addresses collide.
func Compute(cfg *config.EffectiveConfig) (*Topology, error) {
	cluster := cfg.Cluster()
	sizing := cfg.Sizing()

	_, subnet, err := net.ParseCIDR(cfg.Network().SubnetCIDR)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet: %w", err)
	}

	t := &Topology{}
	add := func(role Role, ordinal, offset int, serverType string) error {
		ip, err := hostAddress(subnet, offset+ordinal)
		if err != nil {
			return err
		}
		hostname := naming.Node(cluster.HostnamePrefix, string(role), ordinal)
		node := NodeIdentity{
			Index:      len(t.nodes),
			Role:       role,
			Ordinal:    ordinal,
			Hostname:   hostname,
			PrivateIP:  ip,
			ServerType: serverType,
		}
		if cfg.Enabled(config.FeatureOverlayVPN) {
			node.CredentialRef = hostname
		}
		t.nodes = append(t.nodes, node)
		return nil
	}

	for i := range sizing.ServerCount {
		if err := add(RoleServer, i, serverHostOffset, cluster.ServerType); err != nil {
			return nil, err
		}
	}
	for i := range sizing.AgentCount {
		if err := add(RoleAgent, i, agentHostOffset, cluster.AgentType); err != nil {
			return nil, err
		}
	}
	if cfg.Enabled(config.FeatureBastion) {
		if err := add(RoleBastion, 0, bastionHostOffset, cluster.BastionType); err != nil {
			return nil, err
		}
	}

	if err := t.checkUnique(); err != nil {
		return nil, err
	}
	return t, nil
}

// hostAddress returns the offset-th address of an IPv4 subnet.
func hostAddress(subnet *net.IPNet, offset int) (string, error) {
	base := subnet.IP.To4()
	if base == nil {
		return "", fmt.Errorf("subnet %s is not IPv4", subnet)
	}
	ones, bits := subnet.Mask.Size()
	if size := 1 << (bits - ones); offset >= size-1 {
		return "", fmt.Errorf("subnet %s has no room for host offset %d", subnet, offset)
	}
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, binary.BigEndian.Uint32(base)+uint32(offset))
	return ip.String(), nil
}

func (t *Topology) checkUnique() error {
	hosts := make(map[string]struct{}, len(t.nodes))
	ips := make(map[string]struct{}, len(t.nodes))
	for _, n := range t.nodes {
		if _, dup := hosts[n.Hostname]; dup {
			return fmt.Errorf("duplicate hostname %s", n.Hostname)
		}
		if _, dup := ips[n.PrivateIP]; dup {
			return fmt.Errorf("duplicate private address %s", n.PrivateIP)
		}
		hosts[n.Hostname] = struct{}{}
		ips[n.PrivateIP] = struct{}{}
	}
	return nil
}

// Nodes returns every node in arena order.
func (t *Topology) Nodes() []NodeIdentity {
	return append([]NodeIdentity(nil), t.nodes...)
}

// Len returns the number of nodes.
func (t *Topology) Len() int {
	return len(t.nodes)
}

// At returns the node at arena index i.
func (t *Topology) At(i int) NodeIdentity {
	return t.nodes[i]
}

// First returns the node that initializes the control plane.
func (t *Topology) First() NodeIdentity {
	return t.nodes[t.first]
}

// IsFirst reports whether n is the first server.
func (t *Topology) IsFirst(n NodeIdentity) bool {
	return n.Index == t.first && t.nodes[t.first].Hostname == n.Hostname
}

// ByRole returns the nodes of one role in ordinal order.
func (t *Topology) ByRole(role Role) []NodeIdentity {
	var out []NodeIdentity
	for _, n := range t.nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Has reports whether at least one node has the role.
func (t *Topology) Has(role Role) bool {
	for _, n := range t.nodes {
		if n.Role == role {
			return true
		}
	}
	return false
}

// Lookup finds a node by hostname.
func (t *Topology) Lookup(hostname string) (NodeIdentity, bool) {
	for _, n := range t.nodes {
		if n.Hostname == hostname {
			return n, true
		}
	}
	return NodeIdentity{}, false
}
