package hcloud

import (
	"context"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is a mock implementation of InfrastructureManager. Unset
// functions fall back to a successful default.
type MockClient struct {
	CreateServerFunc    func(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	GetServerByNameFunc func(ctx context.Context, name string) (*hcloud.Server, error)

	EnsureSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)

	// Network
	EnsureNetworkFunc func(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	EnsureSubnetFunc  func(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error

	// Firewall
	EnsureFirewallFunc func(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error)

	// Volume
	FindVolumesFunc  func(ctx context.Context, selector string) ([]*hcloud.Volume, error)
	CreateVolumeFunc func(ctx context.Context, opts VolumeCreateOpts) (*hcloud.Volume, error)

	// IP and pricing
	GetPublicIPFunc func(ctx context.Context) (string, error)
	GetPricingFunc  func(ctx context.Context) (hcloud.Pricing, error)
}

// Ensure interface compliance
var _ InfrastructureManager = (*MockClient)(nil)

// CreateServer mocks server creation. The default returns a running server.
func (m *MockClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, opts)
	}
	return &hcloud.Server{
		ID:     1,
		Name:   opts.Name,
		Status: hcloud.ServerStatusRunning,
		Labels: opts.Labels,
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP("192.0.2.10")},
		},
	}, nil
}

// GetServerByName mocks server lookup. The default finds nothing.
func (m *MockClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	if m.GetServerByNameFunc != nil {
		return m.GetServerByNameFunc(ctx, name)
	}
	return nil, nil
}

// EnsureSSHKey mocks SSH key reconciliation.
func (m *MockClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	if m.EnsureSSHKeyFunc != nil {
		return m.EnsureSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return &hcloud.SSHKey{ID: 1, Name: name, PublicKey: publicKey, Labels: labels}, nil
}

// EnsureNetwork mocks network reconciliation.
func (m *MockClient) EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
	if m.EnsureNetworkFunc != nil {
		return m.EnsureNetworkFunc(ctx, name, ipRange, labels)
	}
	_, ipNet, _ := net.ParseCIDR(ipRange)
	return &hcloud.Network{ID: 1, Name: name, IPRange: ipNet, Labels: labels}, nil
}

// EnsureSubnet mocks subnet reconciliation.
func (m *MockClient) EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error {
	if m.EnsureSubnetFunc != nil {
		return m.EnsureSubnetFunc(ctx, network, ipRange, networkZone)
	}
	return nil
}

// EnsureFirewall mocks firewall reconciliation.
func (m *MockClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error) {
	if m.EnsureFirewallFunc != nil {
		return m.EnsureFirewallFunc(ctx, name, rules, labels, applyToLabelSelector)
	}
	return &hcloud.Firewall{ID: 1, Name: name, Rules: rules, Labels: labels}, nil
}

// FindVolumes mocks volume lookup. The default finds nothing.
func (m *MockClient) FindVolumes(ctx context.Context, selector string) ([]*hcloud.Volume, error) {
	if m.FindVolumesFunc != nil {
		return m.FindVolumesFunc(ctx, selector)
	}
	return nil, nil
}

// CreateVolume mocks volume creation.
func (m *MockClient) CreateVolume(ctx context.Context, opts VolumeCreateOpts) (*hcloud.Volume, error) {
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(ctx, opts)
	}
	return &hcloud.Volume{ID: 1, Name: opts.Name, Size: opts.SizeGiB, Labels: opts.Labels}, nil
}

// GetPublicIP mocks public IP detection.
func (m *MockClient) GetPublicIP(ctx context.Context) (string, error) {
	if m.GetPublicIPFunc != nil {
		return m.GetPublicIPFunc(ctx)
	}
	return "203.0.113.1", nil
}

// GetPricing mocks the price list. The default is empty.
func (m *MockClient) GetPricing(ctx context.Context) (hcloud.Pricing, error) {
	if m.GetPricingFunc != nil {
		return m.GetPricingFunc(ctx)
	}
	return hcloud.Pricing{}, nil
}
