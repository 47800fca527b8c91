package hcloud

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/util/labels"
)

// VolumeBackend resolves volume claims against Hetzner volumes. A volume
// belongs to a claim through its claim label, not its name, so a
// force-recreate can coexist with the volume it replaces.
type VolumeBackend struct {
	volumes  VolumeManager
	cluster  string
	location string
	log      logr.Logger
}

// NewVolumeBackend creates a backend for a cluster's volumes in location.
func NewVolumeBackend(volumes VolumeManager, cluster, location string, log logr.Logger) *VolumeBackend {
	return &VolumeBackend{volumes: volumes, cluster: cluster, location: location, log: log}
}

// Probe implements claims.Backend. When several volumes carry the claim
// label the newest wins.
func (b *VolumeBackend) Probe(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	found, err := b.volumes.FindVolumes(ctx, labels.SelectorForClaim(b.cluster, req.LogicalName))
	if err != nil {
		return claims.ProbeResult{}, err
	}
	if len(found) == 0 {
		return claims.ProbeResult{}, nil
	}
	v := found[0]
	if len(found) > 1 {
		b.log.Info("several volumes carry the same claim; binding the newest",
			"claim", req.LogicalName, "volume", v.ID, "count", len(found))
	}
	if req.SizeGiB > 0 && v.Size < req.SizeGiB {
		b.log.Info("existing volume is smaller than requested",
			"claim", req.LogicalName, "size", v.Size, "requested", req.SizeGiB)
	}
	return claims.ProbeResult{Found: true, ResourceID: strconv.FormatInt(v.ID, 10)}, nil
}

// Create implements claims.Backend. Volume names are unique per project,
// so a replacement for a still existing volume gets a suffixed name.
func (b *VolumeBackend) Create(ctx context.Context, req claims.Request) (claims.ProbeResult, error) {
	existing, err := b.volumes.FindVolumes(ctx, labels.SelectorForClaim(b.cluster, req.LogicalName))
	if err != nil {
		return claims.ProbeResult{}, err
	}
	name := req.LogicalName
	if len(existing) > 0 {
		name = fmt.Sprintf("%s-%s", req.LogicalName, strings.SplitN(uuid.NewString(), "-", 2)[0])
	}

	lb := labels.NewLabelBuilder(b.cluster).WithClaim(req.LogicalName)
	if req.Node != "" {
		lb.WithNode(req.Node)
	}
	v, err := b.volumes.CreateVolume(ctx, VolumeCreateOpts{
		Name:     name,
		SizeGiB:  req.SizeGiB,
		Location: b.location,
		Labels:   lb.Build(),
	})
	if err != nil {
		return claims.ProbeResult{}, err
	}
	return claims.ProbeResult{Found: true, ResourceID: strconv.FormatInt(v.ID, 10)}, nil
}

var _ claims.Backend = (*VolumeBackend)(nil)
