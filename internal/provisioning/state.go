package provisioning

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/k3sforge/internal/topology"
)

// NodeResult is the outcome of provisioning one node.
type NodeResult struct {
	Hostname string
	Role     topology.Role
	ServerID int64
	PublicIP string
	Existed  bool  // The server was already there and was left untouched
	Ready    bool  // The server answered the readiness barrier
	Err      error // Nil on success
}

// State holds the shared results of provisioning phases.
type State struct {
	Network    *hcloud.Network
	Firewalls  map[topology.Role]*hcloud.Firewall
	SSHKeyName string

	mu    sync.Mutex
	nodes map[string]NodeResult
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		Firewalls: make(map[topology.Role]*hcloud.Firewall),
		nodes:     make(map[string]NodeResult),
	}
}

// Record stores a node's outcome. Safe for concurrent use.
func (s *State) Record(r NodeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[r.Hostname] = r
}

// Node returns the recorded outcome for a hostname.
func (s *State) Node(hostname string) (NodeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.nodes[hostname]
	return r, ok
}

// Results returns node outcomes in topology order.
func (s *State) Results(topo *topology.Topology) []NodeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NodeResult
	for _, n := range topo.Nodes() {
		if r, ok := s.nodes[n.Hostname]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the failures of every node, in topology order.
func (s *State) Err(topo *topology.Topology) error {
	var errs []error
	for _, r := range s.Results(topo) {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Hostname, r.Err))
		}
	}
	return errors.Join(errs...)
}
