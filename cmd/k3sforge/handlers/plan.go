package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/platform/hcloud"
	"github.com/imamik/k3sforge/internal/platform/s3"
	"github.com/imamik/k3sforge/internal/platform/tailscale"
	"github.com/imamik/k3sforge/internal/plan"
	"github.com/imamik/k3sforge/internal/util/naming"
	"github.com/imamik/k3sforge/internal/util/watch"
)

// PlanOptions holds the plan command's flags.
type PlanOptions struct {
	ConfigPath string
	OutDir     string
	Offline    bool
	Watch      bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newInfraClient creates a new infrastructure client.
	newInfraClient = func(token string) hcloud.InfrastructureManager {
		return hcloud.NewRealClient(token, hcloud.WithTimeouts(config.LoadTimeouts()))
	}

	// newS3Client creates an object storage client.
	newS3Client = s3.NewClient

	// newOverlayIssuer creates the Tailscale join key issuer.
	newOverlayIssuer = func(tailnet, apiKey string, log logr.Logger) (credentials.Issuer, error) {
		return tailscale.NewIssuer(tailnet, apiKey, tailscale.WithLogger(log))
	}

	// watchFile blocks re-running onChange on spec edits.
	watchFile = watch.File
)

// Plan composes the spec and writes the artifacts to opts.OutDir.
func Plan(ctx context.Context, log logr.Logger, out io.Writer, opts PlanOptions) error {
	path, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return err
	}

	if !opts.Watch {
		_, err := composeAndWrite(ctx, log, out, path, opts.OutDir, opts.Offline, nil)
		return err
	}

	if !opts.Offline {
		log.Info("watch mode composes offline; rerun without --watch to resolve against the cloud")
	}
	run := func() {
		if _, err := composeAndWrite(ctx, log, out, path, opts.OutDir, true, nil); err != nil {
			log.Error(err, "composition failed")
		}
	}
	run()
	return watchFile(ctx, path, watch.DefaultDebounce, log.WithName("watch"), run)
}

// composeAndWrite loads the spec at path, composes it and writes every
// artifact.
func composeAndWrite(ctx context.Context, log logr.Logger, out io.Writer, path, outDir string, offline bool, infra hcloud.InfrastructureManager) (*plan.Plan, error) {
	spec, err := loadSpecFile(path)
	if err != nil {
		return nil, err
	}
	return composeSpec(ctx, log, out, spec, outDir, offline, infra)
}

// composeSpec composes spec and writes the artifacts to outDir. infra is
// only used online; nil builds a client from the spec's token.
func composeSpec(ctx context.Context, log logr.Logger, out io.Writer, spec *config.Spec, outDir string, offline bool, infra hcloud.InfrastructureManager) (*plan.Plan, error) {
	var (
		opts plan.Options
		err  error
	)
	if offline {
		opts = plan.OfflineOptions(log)
	} else {
		if infra == nil {
			infra = newInfraClient(spec.HCloudToken)
		}
		opts, err = onlineOptions(ctx, spec, infra, log)
		if err != nil {
			return nil, err
		}
	}
	opts.RecordMetrics = true

	p, err := plan.Compose(ctx, spec, opts)
	if err != nil {
		var (
			findings []errdefs.ValidationError
			verrs    errdefs.ValidationErrors
		)
		if errors.As(err, &verrs) {
			findings = append(findings, verrs...)
		}
		if p != nil {
			findings = append(findings, p.Warnings...)
		}
		renderFindings(out, findings)
		return nil, err
	}

	if err := p.Write(outDir); err != nil {
		return nil, err
	}
	fmt.Fprint(out, renderSummary(p.Summarize(), outDir))
	return p, nil
}

// onlineOptions wires the real backends. Object storage backs the backup
// container and the cluster token when credentials are present; the token
// falls back to memory otherwise, so it does not survive the run.
func onlineOptions(ctx context.Context, spec *config.Spec, infra hcloud.InfrastructureManager, log logr.Logger) (plan.Options, error) {
	claimLog := log.WithName("claims")
	mem := claims.NewMemory()

	volumes := hcloud.NewVolumeBackend(infra, spec.ClusterName, spec.Location, claimLog)
	var containers, tokens claims.Backend = mem, mem

	if spec.BackupS3Endpoint != "" && spec.BackupS3AccessKey != "" && spec.BackupS3SecretKey != "" {
		client, err := newS3Client(ctx, spec.BackupS3Endpoint, spec.BackupS3Region, spec.BackupS3AccessKey, spec.BackupS3SecretKey)
		if err != nil {
			return plan.Options{}, fmt.Errorf("failed to create object storage client: %w", err)
		}
		containers = s3.NewBucketBackend(client, claimLog)
		tokens = s3.NewTokenBackend(client, naming.StateContainer(spec.ClusterName), claimLog)
	} else {
		log.Info("no object storage credentials; the cluster token is generated per run and cannot be reused")
	}

	opts := plan.Options{
		Resolver: claims.NewResolver(
			claims.WithBackend(claims.KindVolume, volumes),
			claims.WithBackend(claims.KindObjectContainer, containers),
			claims.WithBackend(claims.KindCredential, tokens),
			claims.WithLogger(claimLog),
		),
		Logger: log,
	}

	// Missing overlay credentials are reported by validation.
	if spec.EnableOverlayVPN && spec.TailscaleTailnet != "" && spec.TailscaleAPIKey != "" {
		issuer, err := newOverlayIssuer(spec.TailscaleTailnet, spec.TailscaleAPIKey, log.WithName("overlay"))
		if err != nil {
			return plan.Options{}, err
		}
		opts.Issuer = issuer
	}
	return opts, nil
}
