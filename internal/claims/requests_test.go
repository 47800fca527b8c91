package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	k3stesting "github.com/imamik/k3sforge/internal/testing"
	"github.com/imamik/k3sforge/internal/topology"
)

func requestNames(reqs []Request) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.LogicalName)
	}
	return out
}

func TestRequests_Defaults(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithClusterName("lab").Resolve(t)
	topo, err := topology.Compute(cfg)
	require.NoError(t, err)

	reqs := Requests(cfg, topo)
	assert.Equal(t, []string{
		"lab-cluster-token",
		"lab-storage-backups",
		"lab-agent-0-storage",
		"lab-agent-1-storage",
		"lab-agent-2-storage",
	}, requestNames(reqs))

	for _, r := range reqs {
		assert.Equal(t, PolicyForceRecreate, r.Policy)
	}
	assert.Equal(t, KindVolume, reqs[2].Kind)
	assert.Equal(t, 50, reqs[2].SizeGiB)
	assert.Equal(t, "lab-agent-0", reqs[2].Node)
	assert.Equal(t, KindObjectContainer, reqs[1].Kind)
	assert.Equal(t, KindCredential, reqs[0].Kind)
}

func TestRequests_FeatureGated(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithStorageEngine(false).Resolve(t)
	topo, err := topology.Compute(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"test-cluster-cluster-token"}, requestNames(Requests(cfg, topo)))
}

func TestRequests_ReusePolicies(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithReuse(true, false, true).Resolve(t)
	topo, err := topology.Compute(cfg)
	require.NoError(t, err)

	for _, r := range Requests(cfg, topo) {
		switch r.Kind {
		case KindVolume, KindCredential:
			assert.Equal(t, PolicyReuseIfExists, r.Policy, r.LogicalName)
		case KindObjectContainer:
			assert.Equal(t, PolicyForceRecreate, r.Policy, r.LogicalName)
		}
	}
}
