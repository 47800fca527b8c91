// Package netpolicy compiles the connectivity rule set of a cluster from a
// fixed role/port matrix gated by the enabled features.
//
// The set is complete (every enabled subsystem's ports are present) and
// minimal (no rule belongs to a disabled feature). Rules are sorted by
// feature then name so two compilations diff cleanly.
package netpolicy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/imamik/k3sforge/internal/topology"
)

// Direction of traffic relative to the destination node.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Protocol of a rule. ProtocolAny expands to every protocol the network layer supports.
type Protocol string

const (
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolICMP Protocol = "icmp"
	ProtocolAny  Protocol = "any"
)

// Scope says whether peers are cluster nodes or external address ranges.
type Scope string

const (
	ScopeMesh     Scope = "mesh-internal"
	ScopeExternal Scope = "external-cidr"
)

// Any IPv4 and IPv6 source.
var anywhere = []string{"0.0.0.0/0", "::/0"}

// PortRange is an inclusive port range; the zero value means all ports.
type PortRange struct {
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`
}

// Port returns a single-port range.
func Port(p int) PortRange { return PortRange{From: p, To: p} }

// Ports returns an inclusive range.
func Ports(from, to int) PortRange { return PortRange{From: from, To: to} }

// All reports whether the range covers every port.
func (p PortRange) All() bool { return p.From == 0 && p.To == 0 }

// Contains reports whether port falls inside the range.
func (p PortRange) Contains(port int) bool {
	return p.All() || (port >= p.From && port <= p.To)
}

func (p PortRange) String() string {
	switch {
	case p.All():
		return "any"
	case p.From == p.To:
		return fmt.Sprint(p.From)
	default:
		return fmt.Sprintf("%d-%d", p.From, p.To)
	}
}

// Rule is one allowed flow.
type Rule struct {
	Feature      string          `yaml:"feature"`
	Name         string          `yaml:"name"`
	Direction    Direction       `yaml:"direction"`
	Sources      []topology.Role `yaml:"sources,omitempty"`
	Destinations []topology.Role `yaml:"destinations,omitempty"`
	Protocol     Protocol        `yaml:"protocol"`
	Ports        PortRange       `yaml:"ports"`
	Scope        Scope           `yaml:"scope"`
	CIDRs        []string        `yaml:"cidrs,omitempty"`
}

// Key identifies a rule within a set.
func (r Rule) Key() string {
	return r.Feature + "/" + r.Name
}

// AppliesTo reports whether the rule governs traffic of nodes with role:
// ingress rules apply to destinations, egress rules to sources.
func (r Rule) AppliesTo(role topology.Role) bool {
	if r.Direction == DirectionOut {
		return slices.Contains(r.Sources, role)
	}
	return slices.Contains(r.Destinations, role)
}

// Describe renders the rule on one line.
func (r Rule) Describe() string {
	peers := rolesString(r.Sources)
	if r.Scope == ScopeExternal && r.Direction == DirectionIn {
		peers = strings.Join(r.CIDRs, ",")
	}
	target := rolesString(r.Destinations)
	if r.Direction == DirectionOut {
		target = strings.Join(r.CIDRs, ",")
	}
	return fmt.Sprintf("%-16s %-28s %-3s %s -> %s %s/%s", r.Feature, r.Name, r.Direction, peers, target, r.Protocol, r.Ports)
}

func rolesString(roles []topology.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// ForRole returns the rules that govern one role.
func ForRole(rules []Rule, role topology.Role) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.AppliesTo(role) {
			out = append(out, r)
		}
	}
	return out
}

// sortRules orders by feature, then name.
func sortRules(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := strings.Compare(a.Feature, b.Feature); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
