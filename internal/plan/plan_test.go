package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/errdefs"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func freshOptions() Options {
	mem := claims.NewMemory()
	return Options{
		Resolver: claims.NewResolver(
			claims.WithBackend(claims.KindVolume, mem),
			claims.WithBackend(claims.KindObjectContainer, mem),
			claims.WithBackend(claims.KindCredential, mem),
		),
		Issuer: credentials.Offline{Tailnet: "example.com"},
	}
}

func TestCompose_ProducesEveryArtifact(t *testing.T) {
	t.Parallel()
	spec := k3stesting.NewSpecBuilder().WithClusterName("lab").WithOverlayVPN(true).WithBastion(true).Build()

	p, err := Compose(k3stesting.TestContext(t), spec, freshOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, p.Topology.Len())
	assert.Len(t, p.Scripts, 7)
	assert.NotEmpty(t, p.Rules)
	assert.Equal(t, []string{"cloud-integration", "storage-engine", "storage-backup-credential", "recurring-backup-job"}, p.Manifests.Names())
	assert.Len(t, p.Claims.All(), 1+1+3)

	s, ok := p.Script("lab-bastion-0")
	require.True(t, ok)
	assert.Equal(t, "lab-bastion-0.sh", s.Filename())
	_, ok = p.Script("nope")
	assert.False(t, ok)

	// bastion and vpn together only warn
	require.NotEmpty(t, p.Warnings)
}

func TestCompose_ValidationErrors(t *testing.T) {
	t.Parallel()
	spec := k3stesting.NewSpecBuilder().WithGitOps(true).WithOverlayVPN(false).Build()

	p, err := Compose(context.Background(), spec, freshOptions())
	require.Error(t, err)

	var verrs errdefs.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Contains("gitops requires overlay_vpn"))
	require.NotNil(t, p)
	assert.Nil(t, p.Config)
}

func TestCompose_MissingReusedResources(t *testing.T) {
	t.Parallel()
	spec := k3stesting.NewSpecBuilder().WithClusterName("lab").WithReuse(true, true, false).Build()

	_, err := Compose(context.Background(), spec, freshOptions())
	require.Error(t, err)
	assert.True(t, errdefs.IsMissingResource(err))
	assert.Contains(t, err.Error(), "lab-storage-backups")
	assert.Contains(t, err.Error(), "lab-agent-2-storage")
}

func TestCompose_RequiresResolver(t *testing.T) {
	t.Parallel()
	_, err := Compose(context.Background(), k3stesting.NewSpecBuilder().Build(), Options{})
	assert.ErrorContains(t, err, "no claim resolver")
}

func TestCompose_OverlayWithoutIssuer(t *testing.T) {
	t.Parallel()
	opts := freshOptions()
	opts.Issuer = nil

	_, err := Compose(context.Background(), k3stesting.NewSpecBuilder().WithOverlayVPN(true).Build(), opts)
	assert.ErrorContains(t, err, "no credential issuer")
}

func TestCompose_Offline(t *testing.T) {
	t.Parallel()
	spec := k3stesting.NewSpecBuilder().WithReuse(true, true, true).Build()

	p, err := Compose(context.Background(), spec, OfflineOptions(logr.Discard()))
	require.NoError(t, err)
	for _, c := range p.Claims.All() {
		assert.False(t, c.Created, c.LogicalName)
	}
}

func TestCompose_LogsStages(t *testing.T) {
	t.Parallel()
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{})

	opts := freshOptions()
	opts.Logger = logger
	_, err := Compose(context.Background(), k3stesting.NewSpecBuilder().Build(), opts)
	require.NoError(t, err)

	require.NotEmpty(t, lines)
	found := false
	for _, l := range lines {
		if strings.Contains(l, "resolved feature spec") {
			found = true
			assert.Contains(t, l, "plan")
		}
	}
	assert.True(t, found)
}

func TestCompose_RecordsMetrics(t *testing.T) {
	before := testutil.ToFloat64(plansTotal.WithLabelValues("success"))
	beforeInvalid := testutil.ToFloat64(plansTotal.WithLabelValues("invalid"))

	opts := freshOptions()
	opts.RecordMetrics = true
	_, err := Compose(context.Background(), k3stesting.NewSpecBuilder().Build(), opts)
	require.NoError(t, err)
	_, err = Compose(context.Background(), k3stesting.NewSpecBuilder().WithGitOps(true).Build(), opts)
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(plansTotal.WithLabelValues("success")))
	assert.Equal(t, beforeInvalid+1, testutil.ToFloat64(plansTotal.WithLabelValues("invalid")))
	assert.Positive(t, testutil.ToFloat64(artifactsTotal.WithLabelValues("script")))
}

func TestWrite(t *testing.T) {
	t.Parallel()
	p, err := Compose(context.Background(), k3stesting.NewSpecBuilder().WithClusterName("lab").Build(), freshOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, p.Write(dir))

	info, err := os.Stat(filepath.Join(dir, ScriptsDir, "lab-server-0.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	manifest, err := os.ReadFile(filepath.Join(dir, ManifestsDir, "storage-engine.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "HelmChart")

	raw, err := os.ReadFile(filepath.Join(dir, ClaimsFile))
	require.NoError(t, err)
	var doc struct {
		Claims []map[string]any `yaml:"claims"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	require.Len(t, doc.Claims, 5)
	assert.Equal(t, "lab-cluster-token", doc.Claims[0]["name"])
	assert.NotContains(t, string(raw), "secret")

	rules, err := os.ReadFile(filepath.Join(dir, RulesFile))
	require.NoError(t, err)
	assert.Contains(t, string(rules), "feature: cluster")
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	p, err := Compose(context.Background(), k3stesting.NewSpecBuilder().WithClusterName("lab").WithAgents(2).Build(), freshOptions())
	require.NoError(t, err)

	s := p.Summarize()
	assert.Equal(t, "lab", s.Cluster)
	assert.Len(t, s.Nodes, 5)
	assert.Equal(t, 3, s.CountByRole()["server"])
	assert.Equal(t, 2, s.CountByRole()["agent"])
	assert.Equal(t, "network-ready", s.Nodes[0].Steps[0])
	assert.Equal(t, "lab-cluster-token", s.Claims[0].Name)
	assert.True(t, s.Claims[0].Created)
	assert.Contains(t, s.Rules, "cluster/etcd/server-to-server")
}
