package plan

import (
	"github.com/imamik/k3sforge/internal/topology"
)

// NodeSummary describes one node's script.
type NodeSummary struct {
	Hostname  string   `json:"hostname" yaml:"hostname"`
	Role      string   `json:"role" yaml:"role"`
	PrivateIP string   `json:"private_ip" yaml:"private_ip"`
	Steps     []string `json:"steps" yaml:"steps"`
	Bytes     int      `json:"bytes" yaml:"bytes"`
}

// ClaimSummary describes one resolved claim.
type ClaimSummary struct {
	Name       string `json:"name" yaml:"name"`
	Kind       string `json:"kind" yaml:"kind"`
	Policy     string `json:"policy" yaml:"policy"`
	ResourceID string `json:"resource_id" yaml:"resource_id"`
	Created    bool   `json:"created" yaml:"created"`
	Adopted    bool   `json:"adopted,omitempty" yaml:"adopted,omitempty"`
}

// Summary is the secret-free overview of a plan.
type Summary struct {
	Cluster   string         `json:"cluster" yaml:"cluster"`
	Warnings  []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Nodes     []NodeSummary  `json:"nodes" yaml:"nodes"`
	Claims    []ClaimSummary `json:"claims" yaml:"claims"`
	Manifests []string       `json:"manifests" yaml:"manifests"`
	Rules     []string       `json:"rules" yaml:"rules"`
}

// Summarize returns the plan's overview.
func (p *Plan) Summarize() Summary {
	s := Summary{Cluster: p.Config.Name()}
	for _, w := range p.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	for _, sc := range p.Scripts {
		steps := make([]string, len(sc.Steps))
		for i, id := range sc.Steps {
			steps[i] = string(id)
		}
		s.Nodes = append(s.Nodes, NodeSummary{
			Hostname:  sc.Node.Hostname,
			Role:      string(sc.Node.Role),
			PrivateIP: sc.Node.PrivateIP,
			Steps:     steps,
			Bytes:     len(sc.Content),
		})
	}
	for _, c := range p.Claims.All() {
		s.Claims = append(s.Claims, ClaimSummary{
			Name:       c.LogicalName,
			Kind:       string(c.Kind),
			Policy:     string(c.Policy),
			ResourceID: c.ResourceID,
			Created:    c.Created,
			Adopted:    c.Adopted,
		})
	}
	s.Manifests = p.Manifests.Names()
	for _, r := range p.Rules {
		s.Rules = append(s.Rules, r.Key())
	}
	return s
}

// CountByRole returns how many nodes of each role the plan holds.
func (s Summary) CountByRole() map[topology.Role]int {
	out := make(map[topology.Role]int)
	for _, n := range s.Nodes {
		out[topology.Role(n.Role)]++
	}
	return out
}
