package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/manifests"
	"github.com/imamik/k3sforge/internal/netpolicy"
	"github.com/imamik/k3sforge/internal/script"
	"github.com/imamik/k3sforge/internal/topology"
)

// Options wires the collaborators of one composition.
type Options struct {
	Resolver      *claims.Resolver
	Issuer        credentials.Issuer
	Logger        logr.Logger
	RecordMetrics bool
}

// OfflineOptions composes without touching any API: every claim is served
// from memory as if it already existed and join keys are placeholders.
func OfflineOptions(logger logr.Logger) Options {
	mem := claims.NewMemory(claims.AssumeExisting())
	return Options{
		Resolver: claims.NewResolver(
			claims.WithBackend(claims.KindVolume, mem),
			claims.WithBackend(claims.KindObjectContainer, mem),
			claims.WithBackend(claims.KindCredential, mem),
			claims.WithLogger(logger),
		),
		Issuer: credentials.Offline{Tailnet: "offline"},
		Logger: logger,
	}
}

// Plan holds every artifact of one composition.
type Plan struct {
	Config    *config.EffectiveConfig
	Warnings  []errdefs.ValidationError
	Topology  *topology.Topology
	Claims    *claims.Set
	Rules     []netpolicy.Rule
	Manifests *manifests.Set
	Scripts   []*script.Script
}

// Script returns the script of one host.
func (p *Plan) Script(hostname string) (*script.Script, bool) {
	for _, s := range p.Scripts {
		if s.Node.Hostname == hostname {
			return s, true
		}
	}
	return nil, false
}

// Compose runs the pipeline. Validation failures are returned as
// errdefs.ValidationErrors together with the warnings.
func Compose(ctx context.Context, spec *config.Spec, opts Options) (*Plan, error) {
	p, err := compose(ctx, spec, opts)
	if opts.RecordMetrics {
		result := "success"
		if err != nil {
			result = "error"
			var verrs errdefs.ValidationErrors
			if errors.As(err, &verrs) {
				result = "invalid"
			}
		}
		recordComposition(result)
	}
	return p, err
}

func compose(ctx context.Context, spec *config.Spec, opts Options) (*Plan, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	log = log.WithName("plan")
	if opts.Resolver == nil {
		return nil, errors.New("plan: no claim resolver configured")
	}

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		if opts.RecordMetrics {
			recordStage(name, time.Since(start).Seconds())
		}
		return err
	}

	p := &Plan{}

	err := stage("resolve", func() error {
		cfg, warnings, err := config.Resolve(spec)
		p.Warnings = warnings
		if opts.RecordMetrics {
			for _, w := range warnings {
				recordFinding(string(w.Severity))
			}
			var verrs errdefs.ValidationErrors
			if errors.As(err, &verrs) {
				for _, v := range verrs {
					recordFinding(string(v.Severity))
				}
			}
		}
		for _, w := range warnings {
			log.Info("validation warning", "field", w.Field, "message", w.Message)
		}
		p.Config = cfg
		return err
	})
	if err != nil {
		return p, err
	}
	cfg := p.Config
	log.Info("resolved feature spec", "cluster", cfg.Name(), "warnings", len(p.Warnings))

	if err := stage("topology", func() (err error) {
		p.Topology, err = topology.Compute(cfg)
		return err
	}); err != nil {
		return p, fmt.Errorf("compute topology: %w", err)
	}
	log.Info("computed topology", "nodes", p.Topology.Len(), "first", p.Topology.First().Hostname)

	if err := stage("claims", func() (err error) {
		p.Claims, err = opts.Resolver.ResolveAll(ctx, claims.Requests(cfg, p.Topology))
		return err
	}); err != nil {
		return p, fmt.Errorf("resolve claims: %w", err)
	}
	log.Info("resolved claims", "count", len(p.Claims.All()))

	var creds *credentials.Set
	if err := stage("credentials", func() (err error) {
		creds, err = credentials.IssueAll(ctx, opts.Issuer, cfg, p.Topology)
		return err
	}); err != nil {
		return p, fmt.Errorf("issue join keys: %w", err)
	}
	if creds.Len() > 0 {
		log.Info("issued join keys", "count", creds.Len(), "nodes", creds.Subjects())
	}

	_ = stage("rules", func() error {
		p.Rules = netpolicy.Compile(cfg, p.Topology)
		return nil
	})
	log.V(1).Info("compiled network rules", "count", len(p.Rules))
	for _, r := range p.Rules {
		log.V(2).Info("rule", "rule", r.Describe())
	}

	if err := stage("manifests", func() (err error) {
		p.Manifests, err = manifests.Compile(cfg, p.Topology, p.Claims)
		return err
	}); err != nil {
		return p, fmt.Errorf("compile manifests: %w", err)
	}
	log.Info("compiled manifests", "entries", p.Manifests.Names())

	bundle := script.Bundle{Credentials: creds, Claims: p.Claims, Manifests: p.Manifests}
	if err := stage("scripts", func() error {
		for _, node := range p.Topology.Nodes() {
			s, err := script.Compile(node, cfg, p.Topology, bundle)
			if err != nil {
				return err
			}
			p.Scripts = append(p.Scripts, s)
		}
		return nil
	}); err != nil {
		return p, fmt.Errorf("compile scripts: %w", err)
	}
	log.Info("compiled scripts", "count", len(p.Scripts))

	if opts.RecordMetrics {
		recordArtifacts("script", len(p.Scripts))
		recordArtifacts("manifest", p.Manifests.Len())
		recordArtifacts("rule", len(p.Rules))
		recordArtifacts("claim", len(p.Claims.All()))
	}
	return p, nil
}
