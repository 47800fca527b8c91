// Package credentials issues per-node, single-use overlay join keys and
// tracks their consumption.
//
// Keys are requested once per plan, tagged with the cluster and the node's
// role, and handed to exactly one node script through Set.Take.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/naming"
)

var (
	ErrNotIssued = errors.New("no credential issued for subject")
	ErrConsumed  = errors.New("credential already consumed")
)

// Request describes one join key.
type Request struct {
	Subject     string
	Tags        []string
	Expiry      time.Duration
	Description string
}

// EphemeralCredential is an issued join key.
type EphemeralCredential struct {
	ID        string
	Subject   string
	Tags      []string
	Expiry    time.Duration // Requested lifetime
	ExpiresAt time.Time     // As reported by the issuer; zero when unknown
	SingleUse bool
	Key       string
}

// Issuer mints join keys. Implementations must return single-use,
// pre-authorized, non-reusable keys.
type Issuer interface {
	Issue(ctx context.Context, req Request) (*EphemeralCredential, error)
}

// Set holds the credentials of one plan keyed by subject.
type Set struct {
	mu       sync.Mutex
	order    []string
	creds    map[string]*EphemeralCredential
	consumed map[string]bool
}

func newSet() *Set {
	return &Set{
		creds:    make(map[string]*EphemeralCredential),
		consumed: make(map[string]bool),
	}
}

// NewSet builds a Set from already issued credentials.
func NewSet(creds ...*EphemeralCredential) *Set {
	s := newSet()
	for _, c := range creds {
		s.add(c)
	}
	return s
}

func (s *Set) add(c *EphemeralCredential) {
	if _, ok := s.creds[c.Subject]; !ok {
		s.order = append(s.order, c.Subject)
	}
	s.creds[c.Subject] = c
}

// Take hands out the credential for subject. Each credential can be taken once.
func (s *Set) Take(subject string) (*EphemeralCredential, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotIssued, subject)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[subject]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIssued, subject)
	}
	if s.consumed[subject] {
		return nil, fmt.Errorf("%w: %s", ErrConsumed, subject)
	}
	s.consumed[subject] = true
	return c, nil
}

// Subjects returns the subjects in issue order.
func (s *Set) Subjects() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Len returns the number of issued credentials.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// RequestFor builds the join key request for a node.
func RequestFor(cfg *config.EffectiveConfig, node topology.NodeIdentity) Request {
	cluster := cfg.Name()
	return Request{
		Subject: node.CredentialRef,
		Tags: []string{
			naming.OverlayTag(cluster),
			naming.OverlayRoleTag(cluster, string(node.Role)),
		},
		Expiry:      cfg.Overlay().KeyExpiry,
		Description: "k3sforge join key for " + node.Hostname,
	}
}

// IssueAll requests one key per node that carries a credential reference.
// Without the overlay network it returns an empty set and calls nothing.
func IssueAll(ctx context.Context, issuer Issuer, cfg *config.EffectiveConfig, topo *topology.Topology) (*Set, error) {
	set := newSet()
	if !cfg.Enabled(config.FeatureOverlayVPN) {
		return set, nil
	}
	if issuer == nil {
		return nil, errors.New("overlay network is enabled but no credential issuer is configured")
	}
	for _, node := range topo.Nodes() {
		if node.CredentialRef == "" {
			continue
		}
		req := RequestFor(cfg, node)
		cred, err := issuer.Issue(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to issue join key for %s: %w", node.Hostname, err)
		}
		if !cred.SingleUse {
			return nil, fmt.Errorf("issuer returned a reusable key for %s", node.Hostname)
		}
		set.add(cred)
	}
	return set, nil
}
