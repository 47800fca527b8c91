package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating a node.
type ServerCreateOpts struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKeys    []string
	Labels     map[string]string
	UserData   string
	NetworkID  int64
	PrivateIP  string
	VolumeIDs  []int64
}

// ServerProvisioner creates and looks up servers. Servers are never deleted.
type ServerProvisioner interface {
	// CreateServer creates a powered-off server, attaches it to the
	// network at the requested private IP and powers it on.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	// GetServerByName returns nil when no server has the name.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
}

// SSHKeyManager manages the cluster's SSH key.
type SSHKeyManager interface {
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
}

// NetworkManager manages the private network.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error
}

// FirewallManager manages firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error)
}

// VolumeManager looks up and creates volumes. Volumes are never deleted.
type VolumeManager interface {
	// FindVolumes returns volumes matching a label selector, newest first.
	FindVolumes(ctx context.Context, selector string) ([]*hcloud.Volume, error)
	CreateVolume(ctx context.Context, opts VolumeCreateOpts) (*hcloud.Volume, error)
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	ServerProvisioner
	SSHKeyManager
	NetworkManager
	FirewallManager
	VolumeManager
	PricingReader
	GetPublicIP(ctx context.Context) (string, error)
}

// PricingReader reads the price list used for cost estimates.
type PricingReader interface {
	GetPricing(ctx context.Context) (hcloud.Pricing, error)
}
