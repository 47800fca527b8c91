package infrastructure

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/k3sforge/internal/netpolicy"
	"github.com/imamik/k3sforge/internal/provisioning"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/async"
	"github.com/imamik/k3sforge/internal/util/labels"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// ProvisionFirewalls ensures one firewall per present role and applies it
// to that role's servers through a label selector.
func (p *Provisioner) ProvisionFirewalls(ctx *provisioning.Context) error {
	cfg := ctx.Plan.Config
	topo := ctx.Plan.Topology

	var tasks []async.Task
	results := make(map[topology.Role]*hcloud.Firewall)
	fws := make([]*hcloud.Firewall, len(topology.Roles))
	for i, role := range topology.Roles {
		if !topo.Has(role) {
			continue
		}
		rules, err := FirewallRules(netpolicy.ForRole(ctx.Plan.Rules, role), role, topo)
		if err != nil {
			return err
		}
		name := naming.Firewall(cfg.Name(), string(role))
		fwLabels := labels.NewLabelBuilder(cfg.Name()).WithRole(string(role)).Build()
		selector := labels.SelectorForCluster(cfg.Name()) + "," + labels.KeyRole + "=" + string(role)

		tasks = append(tasks, async.Task{Name: name, Func: func(c context.Context) error {
			ctx.Log.Info("reconciling firewall", "name", name, "rules", len(rules))
			fw, err := ctx.Infra.EnsureFirewall(c, name, rules, fwLabels, selector)
			if err != nil {
				return err
			}
			fws[i] = fw
			return nil
		}})
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		return fmt.Errorf("failed to ensure firewalls: %w", err)
	}
	for i, role := range topology.Roles {
		if fws[i] != nil {
			results[role] = fws[i]
		}
	}
	ctx.State.Firewalls = results
	return nil
}

// FirewallRules translates the rules touching role into Hetzner firewall
// rules. Mesh peers become /32 addresses of the peer role's nodes; a rule
// with protocol any expands to TCP, UDP and ICMP. Rules that share a
// direction, protocol and port are merged so large matrices stay under the
// per-firewall rule limit.
func FirewallRules(rules []netpolicy.Rule, role topology.Role, topo *topology.Topology) ([]hcloud.FirewallRule, error) {
	type mergeKey struct {
		dir   hcloud.FirewallRuleDirection
		proto hcloud.FirewallRuleProtocol
		port  string
	}
	var order []mergeKey
	merged := make(map[mergeKey]*hcloud.FirewallRule)
	seen := make(map[mergeKey]map[string]bool)

	for _, r := range rules {
		peers, err := peerNets(r, topo)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Key(), err)
		}
		if len(peers) == 0 {
			continue
		}

		dir := hcloud.FirewallRuleDirectionIn
		if r.Direction == netpolicy.DirectionOut {
			dir = hcloud.FirewallRuleDirectionOut
		}
		for _, proto := range protocols(r.Protocol) {
			k := mergeKey{dir: dir, proto: proto}
			if proto != hcloud.FirewallRuleProtocolICMP {
				k.port = r.Ports.String()
			}
			fr, ok := merged[k]
			if !ok {
				fr = &hcloud.FirewallRule{Direction: dir, Protocol: proto, Description: hcloud.Ptr(r.Key())}
				if k.port != "" {
					fr.Port = hcloud.Ptr(k.port)
				}
				merged[k] = fr
				seen[k] = make(map[string]bool)
				order = append(order, k)
			}
			for _, n := range peers {
				if seen[k][n.String()] {
					continue
				}
				seen[k][n.String()] = true
				if dir == hcloud.FirewallRuleDirectionIn {
					fr.SourceIPs = append(fr.SourceIPs, n)
				} else {
					fr.DestinationIPs = append(fr.DestinationIPs, n)
				}
			}
		}
	}

	out := make([]hcloud.FirewallRule, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out, nil
}

// peerNets returns the addresses on the far side of a rule.
func peerNets(r netpolicy.Rule, topo *topology.Topology) ([]net.IPNet, error) {
	if r.Scope == netpolicy.ScopeExternal {
		nets := make([]net.IPNet, 0, len(r.CIDRs))
		for _, c := range r.CIDRs {
			_, n, err := net.ParseCIDR(c)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %q: %w", c, err)
			}
			nets = append(nets, *n)
		}
		return nets, nil
	}

	peers := r.Sources
	if r.Direction == netpolicy.DirectionOut {
		peers = r.Destinations
	}
	var nets []net.IPNet
	for _, role := range peers {
		for _, n := range topo.ByRole(role) {
			ip := net.ParseIP(n.PrivateIP).To4()
			if ip == nil {
				return nil, fmt.Errorf("node %s has no IPv4 private address", n.Hostname)
			}
			nets = append(nets, net.IPNet{IP: ip, Mask: net.CIDRMask(32, 32)})
		}
	}
	return nets, nil
}

func protocols(p netpolicy.Protocol) []hcloud.FirewallRuleProtocol {
	switch p {
	case netpolicy.ProtocolUDP:
		return []hcloud.FirewallRuleProtocol{hcloud.FirewallRuleProtocolUDP}
	case netpolicy.ProtocolICMP:
		return []hcloud.FirewallRuleProtocol{hcloud.FirewallRuleProtocolICMP}
	case netpolicy.ProtocolAny:
		return []hcloud.FirewallRuleProtocol{
			hcloud.FirewallRuleProtocolTCP,
			hcloud.FirewallRuleProtocolUDP,
			hcloud.FirewallRuleProtocolICMP,
		}
	default:
		return []hcloud.FirewallRuleProtocol{hcloud.FirewallRuleProtocolTCP}
	}
}
