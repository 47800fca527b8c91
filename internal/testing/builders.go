package testing

import (
	"slices"
	"testing"

	"github.com/imamik/k3sforge/internal/config"
)

// SpecBuilder constructs feature specs for tests. Each method returns a new
// builder; the receiver is never modified.
type SpecBuilder struct {
	spec config.Spec
}

// NewSpecBuilder starts from defaults plus every credential the default
// feature set needs, so Build().Resolve succeeds.
func NewSpecBuilder() *SpecBuilder {
	s := config.DefaultSpec()
	s.ClusterName = "test-cluster"
	s.HCloudToken = "test-hcloud-token"
	s.BackupS3Endpoint = "https://fsn1.your-objectstorage.com"
	s.BackupS3Region = "fsn1"
	s.BackupS3AccessKey = "test-access-key"
	s.BackupS3SecretKey = "test-secret-key"
	return &SpecBuilder{spec: *s}
}

// WithClusterName sets the cluster name.
func (b *SpecBuilder) WithClusterName(name string) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.ClusterName = name })
}

// WithServers sets the server count.
func (b *SpecBuilder) WithServers(n int) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.ServerCount = n })
}

// WithAgents sets the agent count.
func (b *SpecBuilder) WithAgents(n int) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.AgentCount = n })
}

// WithOverlayVPN toggles the overlay network and supplies its API credentials.
func (b *SpecBuilder) WithOverlayVPN(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.EnableOverlayVPN = enabled
		s.TailscaleAPIKey = "tskey-api-test"
		s.TailscaleTailnet = "example.com"
	})
}

// WithOperatorCredentials supplies OAuth credentials for the in-cluster overlay operator.
func (b *SpecBuilder) WithOperatorCredentials() *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.TailscaleOAuthClientID = "oauth-client"
		s.TailscaleOAuthClientSecret = "oauth-secret"
	})
}

// WithBastion toggles the jump host.
func (b *SpecBuilder) WithBastion(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.EnableBastion = enabled })
}

// WithStorageEngine toggles the storage engine; disabling it also disables backups.
func (b *SpecBuilder) WithStorageEngine(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.EnableStorageEngine = enabled
		if !enabled {
			s.EnableStorageBackup = false
		}
	})
}

// WithBackup toggles storage backups.
func (b *SpecBuilder) WithBackup(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.EnableStorageBackup = enabled })
}

// WithBlockStorageDriver enables the block storage driver with the given default reclaim policy.
func (b *SpecBuilder) WithBlockStorageDriver(defaultPolicy string) *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.EnableBlockStorageDriver = true
		s.DefaultReclaimPolicy = defaultPolicy
	})
}

// WithGitOps toggles the GitOps add-on.
func (b *SpecBuilder) WithGitOps(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.EnableGitOps = enabled })
}

// WithGPU toggles GPU support.
func (b *SpecBuilder) WithGPU(enabled bool) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.EnableGPU = enabled })
}

// WithSSHAllowedCIDRs sets external SSH sources.
func (b *SpecBuilder) WithSSHAllowedCIDRs(cidrs ...string) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.SSHAllowedCIDRs = cidrs })
}

// WithAPIAllowedCIDRs sets external API sources.
func (b *SpecBuilder) WithAPIAllowedCIDRs(cidrs ...string) *SpecBuilder {
	return b.with(func(s *config.Spec) { s.APIAllowedCIDRs = cidrs })
}

// WithAddresses sets the floating IP and internal load balancer address.
func (b *SpecBuilder) WithAddresses(floatingIP, loadBalancerIP string) *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.FloatingIP = floatingIP
		s.LoadBalancerIP = loadBalancerIP
	})
}

// WithReuse sets the reuse-if-exists policy per resource family.
func (b *SpecBuilder) WithReuse(volumes, backupContainer, clusterToken bool) *SpecBuilder {
	return b.with(func(s *config.Spec) {
		s.ReuseExistingVolumes = volumes
		s.ReuseBackupContainer = backupContainer
		s.ReuseClusterToken = clusterToken
	})
}

// With applies an arbitrary mutation.
func (b *SpecBuilder) With(fn func(*config.Spec)) *SpecBuilder {
	return b.with(fn)
}

// Build returns a copy of the spec.
func (b *SpecBuilder) Build() *config.Spec {
	return b.clone()
}

// Resolve resolves the spec and fails the test on any validation error.
func (b *SpecBuilder) Resolve(t testing.TB) *config.EffectiveConfig {
	t.Helper()
	cfg, _, err := config.Resolve(b.Build())
	if err != nil {
		t.Fatalf("resolve test spec: %v", err)
	}
	return cfg
}

func (b *SpecBuilder) with(fn func(*config.Spec)) *SpecBuilder {
	spec := b.clone()
	fn(spec)
	return &SpecBuilder{spec: *spec}
}

func (b *SpecBuilder) clone() *config.Spec {
	s := b.spec
	s.SSHKeyNames = slices.Clone(b.spec.SSHKeyNames)
	s.SSHAllowedCIDRs = slices.Clone(b.spec.SSHAllowedCIDRs)
	s.APIAllowedCIDRs = slices.Clone(b.spec.APIAllowedCIDRs)
	return &s
}
