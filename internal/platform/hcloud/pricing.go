package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// GetPricing returns the project's current price list.
func (c *RealClient) GetPricing(ctx context.Context) (hcloud.Pricing, error) {
	pricing, _, err := c.client.Pricing.Get(ctx)
	if err != nil {
		return hcloud.Pricing{}, fmt.Errorf("failed to fetch pricing: %w", err)
	}
	return pricing, nil
}
