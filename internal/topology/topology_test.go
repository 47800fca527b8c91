package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/config"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func hostnames(nodes []NodeIdentity) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Hostname)
	}
	return out
}

func TestCompute_DefaultLayout(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithClusterName("lab").Resolve(t)

	topo, err := Compute(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"lab-server-0", "lab-server-1", "lab-server-2",
		"lab-agent-0", "lab-agent-1", "lab-agent-2",
	}, hostnames(topo.Nodes()))
	assert.Equal(t, 6, topo.Len())
	assert.False(t, topo.Has(RoleBastion))

	first := topo.First()
	assert.Equal(t, "lab-server-0", first.Hostname)
	assert.Equal(t, RoleServer, first.Role)
	assert.Equal(t, 0, first.Ordinal)
	assert.True(t, topo.IsFirst(first))
	for _, n := range topo.Nodes()[1:] {
		assert.False(t, topo.IsFirst(n), n.Hostname)
	}
}

func TestCompute_AddressesAndTypes(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithBastion(true).Resolve(t)

	topo, err := Compute(cfg)
	require.NoError(t, err)

	servers := topo.ByRole(RoleServer)
	agents := topo.ByRole(RoleAgent)
	bastions := topo.ByRole(RoleBastion)
	require.Len(t, servers, 3)
	require.Len(t, agents, 3)
	require.Len(t, bastions, 1)

	assert.Equal(t, "10.0.1.10", servers[0].PrivateIP)
	assert.Equal(t, "10.0.1.12", servers[2].PrivateIP)
	assert.Equal(t, "10.0.1.20", agents[0].PrivateIP)
	assert.Equal(t, "10.0.1.250", bastions[0].PrivateIP)
	assert.Equal(t, "test-cluster-bastion-0", bastions[0].Hostname)

	assert.Equal(t, config.DefaultServerType, servers[0].ServerType)
	assert.Equal(t, config.DefaultAgentType, agents[0].ServerType)
	assert.Equal(t, config.DefaultBastionType, bastions[0].ServerType)

	for i, n := range topo.Nodes() {
		assert.Equal(t, i, n.Index)
		assert.Equal(t, n, topo.At(i))
	}
}

func TestCompute_HostnamePrefixOverride(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().
		With(func(s *config.Spec) { s.HostnamePrefix = "edge" }).
		WithServers(1).
		WithAgents(1).
		Resolve(t)

	topo, err := Compute(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"edge-server-0", "edge-agent-0"}, hostnames(topo.Nodes()))
}

func TestCompute_CredentialRefOnlyWithOverlay(t *testing.T) {
	t.Parallel()

	without, err := Compute(k3stesting.NewSpecBuilder().Resolve(t))
	require.NoError(t, err)
	for _, n := range without.Nodes() {
		assert.Empty(t, n.CredentialRef)
	}

	with, err := Compute(k3stesting.NewSpecBuilder().WithOverlayVPN(true).Resolve(t))
	require.NoError(t, err)
	for _, n := range with.Nodes() {
		assert.Equal(t, n.Hostname, n.CredentialRef)
	}
}

func TestCompute_NoAgents(t *testing.T) {
	t.Parallel()
	cfg := k3stesting.NewSpecBuilder().WithServers(1).WithAgents(0).WithStorageEngine(false).Resolve(t)

	topo, err := Compute(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-cluster-server-0"}, hostnames(topo.Nodes()))
	assert.Empty(t, topo.ByRole(RoleAgent))
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()
	b := k3stesting.NewSpecBuilder().WithBastion(true).WithOverlayVPN(true)
	a, err := Compute(b.Resolve(t))
	require.NoError(t, err)
	c, err := Compute(b.Resolve(t))
	require.NoError(t, err)
	assert.Equal(t, a.Nodes(), c.Nodes())
}

func TestLookup(t *testing.T) {
	t.Parallel()
	topo, err := Compute(k3stesting.NewSpecBuilder().Resolve(t))
	require.NoError(t, err)

	n, ok := topo.Lookup("test-cluster-agent-1")
	require.True(t, ok)
	assert.Equal(t, RoleAgent, n.Role)
	assert.Equal(t, 1, n.Ordinal)

	_, ok = topo.Lookup("missing")
	assert.False(t, ok)
}

func TestNodes_ReturnsCopy(t *testing.T) {
	t.Parallel()
	topo, err := Compute(k3stesting.NewSpecBuilder().Resolve(t))
	require.NoError(t, err)

	nodes := topo.Nodes()
	nodes[0].Hostname = "mutated"
	assert.Equal(t, "test-cluster-server-0", topo.First().Hostname)
}
