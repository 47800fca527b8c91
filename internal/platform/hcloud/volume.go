package hcloud

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// VolumeCreateOpts holds the parameters of a new, unattached volume.
type VolumeCreateOpts struct {
	Name     string
	SizeGiB  int
	Location string
	Labels   map[string]string
}

// FindVolumes returns volumes matching selector, newest first.
func (c *RealClient) FindVolumes(ctx context.Context, selector string) ([]*hcloud.Volume, error) {
	volumes, err := c.client.Volume.AllWithOpts(ctx, hcloud.VolumeListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: selector},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}
	slices.SortStableFunc(volumes, func(a, b *hcloud.Volume) int {
		if d := b.Created.Compare(a.Created); d != 0 {
			return d
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return volumes, nil
}

// CreateVolume creates an unformatted volume in a location. It is attached
// when the server that owns it is created.
func (c *RealClient) CreateVolume(ctx context.Context, opts VolumeCreateOpts) (*hcloud.Volume, error) {
	location, _, err := c.client.Location.Get(ctx, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", opts.Location, err)
	}
	if location == nil {
		return nil, fmt.Errorf("location not found: %s", opts.Location)
	}

	res, _, err := c.client.Volume.Create(ctx, hcloud.VolumeCreateOpts{
		Name:     opts.Name,
		Size:     opts.SizeGiB,
		Location: location,
		Labels:   opts.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create volume %s: %w", opts.Name, err)
	}

	actions := append([]*hcloud.Action{}, res.NextActions...)
	if res.Action != nil {
		actions = append(actions, res.Action)
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for volume %s creation: %w", opts.Name, err)
	}
	return res.Volume, nil
}
