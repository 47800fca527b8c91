package claims

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/errdefs"
)

// Kind is the family of an external resource.
type Kind string

const (
	KindVolume          Kind = "volume"
	KindObjectContainer Kind = "object-container"
	KindCredential      Kind = "credential"
)

// Policy selects how an existing resource is treated.
type Policy string

const (
	PolicyReuseIfExists Policy = "reuse-if-exists"
	PolicyForceRecreate Policy = "force-recreate"
)

// PolicyFor maps a reuse flag to a policy.
func PolicyFor(reuse bool) Policy {
	if reuse {
		return PolicyReuseIfExists
	}
	return PolicyForceRecreate
}

// Request asks for one resource under a deterministic name.
type Request struct {
	LogicalName string `yaml:"name"`
	Kind        Kind   `yaml:"kind"`
	Policy      Policy `yaml:"policy"`
	SizeGiB     int    `yaml:"size_gib,omitempty"`
	Node        string `yaml:"node,omitempty"` // Owning hostname for per-node resources
}

// ProbeResult is what a backend found under a request's name. Existed is
// only set by Create, when the provider kept a resource that could not be
// made anew (bucket names are global).
type ProbeResult struct {
	Found      bool   `yaml:"found"`
	ResourceID string `yaml:"resource_id,omitempty"`
	Existed    bool   `yaml:"-"`
	Secret     string `yaml:"-"`
}

// Claim is a resolved request.
type Claim struct {
	Request    `yaml:",inline"`
	ResourceID string      `yaml:"resource_id"`
	Created    bool        `yaml:"created"`
	Adopted    bool        `yaml:"adopted,omitempty"` // Creation was requested but the provider kept the existing resource
	Probe      ProbeResult `yaml:"probe"`
	Secret     string      `yaml:"-"` // Credential material, never written to plan output
}

// Backend probes and creates resources of one kind.
type Backend interface {
	Probe(ctx context.Context, req Request) (ProbeResult, error)
	Create(ctx context.Context, req Request) (ProbeResult, error)
}

// Resolver routes requests to the backend registered for their kind.
type Resolver struct {
	backends map[Kind]Backend
	log      logr.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBackend registers the backend serving kind.
func WithBackend(kind Kind, b Backend) Option {
	return func(r *Resolver) {
		r.backends[kind] = b
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l logr.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		backends: make(map[Kind]Backend),
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) backend(kind Kind) (Backend, error) {
	b, ok := r.backends[kind]
	if !ok {
		return nil, fmt.Errorf("no backend registered for %s claims", kind)
	}
	return b, nil
}

// Resolve probes and then binds or creates a single resource.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Claim, error) {
	b, err := r.backend(req.Kind)
	if err != nil {
		return nil, err
	}
	probe, err := b.Probe(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s %s: %w", req.Kind, req.LogicalName, err)
	}
	if err := checkReusable(req, probe); err != nil {
		return nil, err
	}
	return r.bindOrCreate(ctx, b, req, probe)
}

// ResolveAll resolves every request against one probe snapshot. If any
// reuse-if-exists request has nothing to bind, it returns every such
// failure and creates nothing.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request) (*Set, error) {
	probes := make([]ProbeResult, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, req := range reqs {
		if _, dup := seen[req.LogicalName]; dup {
			return nil, fmt.Errorf("duplicate claim %s", req.LogicalName)
		}
		seen[req.LogicalName] = struct{}{}

		b, err := r.backend(req.Kind)
		if err != nil {
			return nil, err
		}
		probes[i], err = b.Probe(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s %s: %w", req.Kind, req.LogicalName, err)
		}
	}

	var missing []error
	for i, req := range reqs {
		if err := checkReusable(req, probes[i]); err != nil {
			missing = append(missing, err)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	set := &Set{}
	for i, req := range reqs {
		b, _ := r.backend(req.Kind)
		claim, err := r.bindOrCreate(ctx, b, req, probes[i])
		if err != nil {
			return nil, err
		}
		set.claims = append(set.claims, *claim)
	}
	return set, nil
}

func checkReusable(req Request, probe ProbeResult) error {
	if req.Policy == PolicyReuseIfExists && !probe.Found {
		return &errdefs.MissingResourceError{Name: req.LogicalName, Kind: string(req.Kind)}
	}
	return nil
}

func (r *Resolver) bindOrCreate(ctx context.Context, b Backend, req Request, probe ProbeResult) (*Claim, error) {
	switch req.Policy {
	case PolicyReuseIfExists:
		r.log.V(1).Info("binding existing resource", "kind", req.Kind, "name", req.LogicalName, "id", probe.ResourceID)
		return &Claim{Request: req, ResourceID: probe.ResourceID, Probe: probe, Secret: probe.Secret}, nil
	case PolicyForceRecreate:
		if probe.Found {
			r.log.Info("creating resource alongside an existing one; the old one is left in place",
				"kind", req.Kind, "name", req.LogicalName, "existing", probe.ResourceID)
		}
		created, err := b.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s %s: %w", req.Kind, req.LogicalName, err)
		}
		if created.Existed {
			r.log.Info("provider kept the existing resource", "kind", req.Kind, "name", req.LogicalName, "id", created.ResourceID)
			return &Claim{Request: req, ResourceID: created.ResourceID, Adopted: true, Probe: probe, Secret: created.Secret}, nil
		}
		r.log.V(1).Info("created resource", "kind", req.Kind, "name", req.LogicalName, "id", created.ResourceID)
		return &Claim{Request: req, ResourceID: created.ResourceID, Created: true, Probe: probe, Secret: created.Secret}, nil
	default:
		return nil, fmt.Errorf("unknown reuse policy %q for %s", req.Policy, req.LogicalName)
	}
}

// Set holds the claims of one plan in request order.
type Set struct {
	claims []Claim
}

// NewSet builds a Set from already resolved claims.
func NewSet(claims ...Claim) *Set {
	return &Set{claims: slices.Clone(claims)}
}

// Get returns the claim with the given logical name.
func (s *Set) Get(name string) (Claim, bool) {
	if s == nil {
		return Claim{}, false
	}
	for _, c := range s.claims {
		if c.LogicalName == name {
			return c, true
		}
	}
	return Claim{}, false
}

// All returns every claim in request order.
func (s *Set) All() []Claim {
	if s == nil {
		return nil
	}
	return slices.Clone(s.claims)
}

// ForNode returns the claims owned by a hostname.
func (s *Set) ForNode(hostname string) []Claim {
	var out []Claim
	for _, c := range s.All() {
		if c.Node == hostname {
			out = append(out, c)
		}
	}
	return out
}
