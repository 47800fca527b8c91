package hcloud

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/util/labels"
)

// fakeVolumes is a VolumeManager backed by a slice, newest last.
type fakeVolumes struct {
	volumes   []*hcloud.Volume
	created   []VolumeCreateOpts
	listErr   error
	selectors []string
}

func (f *fakeVolumes) FindVolumes(_ context.Context, selector string) ([]*hcloud.Volume, error) {
	f.selectors = append(f.selectors, selector)
	if f.listErr != nil {
		return nil, f.listErr
	}
	claim := selector[strings.LastIndex(selector, "=")+1:]
	var out []*hcloud.Volume
	for i := len(f.volumes) - 1; i >= 0; i-- {
		if f.volumes[i].Labels[labels.KeyClaim] == claim {
			out = append(out, f.volumes[i])
		}
	}
	return out, nil
}

func (f *fakeVolumes) CreateVolume(_ context.Context, opts VolumeCreateOpts) (*hcloud.Volume, error) {
	f.created = append(f.created, opts)
	v := &hcloud.Volume{ID: int64(100 + len(f.volumes)), Name: opts.Name, Size: opts.SizeGiB, Labels: opts.Labels}
	f.volumes = append(f.volumes, v)
	return v, nil
}

func volumeRequest(policy claims.Policy) claims.Request {
	return claims.Request{
		LogicalName: "lab-agent-0-storage",
		Kind:        claims.KindVolume,
		Policy:      policy,
		SizeGiB:     50,
		Node:        "lab-agent-0",
	}
}

func TestVolumeBackend_CreateThenReuse(t *testing.T) {
	t.Parallel()
	fake := &fakeVolumes{}
	backend := NewVolumeBackend(fake, "lab", "nbg1", logr.Discard())
	resolver := claims.NewResolver(claims.WithBackend(claims.KindVolume, backend))

	first, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyForceRecreate))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "100", first.ResourceID)

	require.Len(t, fake.created, 1)
	assert.Equal(t, "lab-agent-0-storage", fake.created[0].Name)
	assert.Equal(t, "nbg1", fake.created[0].Location)
	assert.Equal(t, "lab-agent-0", fake.created[0].Labels[labels.KeyNode])
	assert.Equal(t, "lab", fake.created[0].Labels[labels.KeyCluster])

	second, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyReuseIfExists))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ResourceID, second.ResourceID)
	assert.Len(t, fake.created, 1)
}

func TestVolumeBackend_ForceRecreateKeepsOld(t *testing.T) {
	t.Parallel()
	fake := &fakeVolumes{}
	backend := NewVolumeBackend(fake, "lab", "nbg1", logr.Discard())
	resolver := claims.NewResolver(claims.WithBackend(claims.KindVolume, backend))

	first, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyForceRecreate))
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyForceRecreate))
	require.NoError(t, err)

	assert.NotEqual(t, first.ResourceID, second.ResourceID)
	assert.Len(t, fake.volumes, 2)
	assert.True(t, strings.HasPrefix(fake.created[1].Name, "lab-agent-0-storage-"))
	assert.Equal(t, "lab-agent-0-storage", fake.created[1].Labels[labels.KeyClaim])

	// The newest volume is the one bound afterwards.
	third, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyReuseIfExists))
	require.NoError(t, err)
	assert.Equal(t, second.ResourceID, third.ResourceID)
}

func TestVolumeBackend_ReuseMissing(t *testing.T) {
	t.Parallel()
	backend := NewVolumeBackend(&fakeVolumes{}, "lab", "nbg1", logr.Discard())
	resolver := claims.NewResolver(claims.WithBackend(claims.KindVolume, backend))

	_, err := resolver.Resolve(context.Background(), volumeRequest(claims.PolicyReuseIfExists))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lab-agent-0-storage")
}

func TestVolumeBackend_ProbeSelector(t *testing.T) {
	t.Parallel()
	fake := &fakeVolumes{}
	backend := NewVolumeBackend(fake, "lab", "nbg1", logr.Discard())

	_, err := backend.Probe(context.Background(), volumeRequest(claims.PolicyReuseIfExists))
	require.NoError(t, err)
	assert.Equal(t, []string{"k3sforge.io/cluster=lab,k3sforge.io/claim=lab-agent-0-storage"}, fake.selectors)
}

func TestVolumeBackend_ListError(t *testing.T) {
	t.Parallel()
	backend := NewVolumeBackend(&fakeVolumes{listErr: errors.New("api down")}, "lab", "nbg1", logr.Discard())

	_, err := backend.Probe(context.Background(), volumeRequest(claims.PolicyReuseIfExists))
	assert.ErrorContains(t, err, "api down")
}
