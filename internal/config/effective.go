package config

import (
	"slices"
	"time"
)

// Cluster holds identity and machine settings.
type Cluster struct {
	Name           string
	HostnamePrefix string
	CloudToken     string
	Location       string
	NetworkZone    string
	ServerType     string
	AgentType      string
	BastionType    string
	Image          string
	K3sVersion     string
	SSHKeyNames    []string
}

// Network holds addressing and external access settings.
type Network struct {
	CIDR            string
	SubnetCIDR      string
	SSHAllowedCIDRs []string
	APIAllowedCIDRs []string
	FloatingIP      string
	LoadBalancerIP  string
}

// Sizing holds node counts.
type Sizing struct {
	ServerCount int
	AgentCount  int
}

// Storage holds storage engine and block driver settings.
type Storage struct {
	SizeGiB              int
	ReplicaCount         int
	DefaultReclaimPolicy string
	HelmValues           map[string]any
}

// Backup holds recurring backup settings and the object store credentials.
type Backup struct {
	Schedule    string
	Retention   int
	Concurrency int
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
}

// Overlay holds Tailscale settings.
type Overlay struct {
	APIKey            string
	Tailnet           string
	OAuthClientID     string
	OAuthClientSecret string
	KeyExpiry         time.Duration
	IPRecheckInterval time.Duration
}

// HasOperatorCredentials reports whether the in-cluster operator can be deployed.
func (o Overlay) HasOperatorCredentials() bool {
	return o.OAuthClientID != "" && o.OAuthClientSecret != ""
}

// Reuse selects reuse-if-exists instead of force-recreate per resource family.
type Reuse struct {
	Volumes         bool
	BackupContainer bool
	ClusterToken    bool
}

// JoinBarrier bounds how long joining servers wait for the first server.
type JoinBarrier struct {
	Attempts int
	Interval time.Duration
}

// EffectiveConfig is the validated, read-only configuration every compiler
// consumes. Accessors return copies.
type EffectiveConfig struct {
	cluster  Cluster
	network  Network
	features Features
	sizing   Sizing
	storage  Storage
	backup   Backup
	overlay  Overlay
	reuse    Reuse
	join     JoinBarrier
}

// Cluster returns a copy of the cluster section.
func (c *EffectiveConfig) Cluster() Cluster {
	out := c.cluster
	out.SSHKeyNames = slices.Clone(c.cluster.SSHKeyNames)
	return out
}

// Network returns a copy of the network section, CIDR lists included.
func (c *EffectiveConfig) Network() Network {
	out := c.network
	out.SSHAllowedCIDRs = slices.Clone(c.network.SSHAllowedCIDRs)
	out.APIAllowedCIDRs = slices.Clone(c.network.APIAllowedCIDRs)
	return out
}

// Features returns the resolved feature set.
func (c *EffectiveConfig) Features() Features { return c.features }

// Sizing returns the server and agent counts.
func (c *EffectiveConfig) Sizing() Sizing { return c.sizing }

// Backup returns the backup schedule and object store credentials.
func (c *EffectiveConfig) Backup() Backup { return c.backup }

// Overlay returns the overlay network credentials and key lifetimes.
func (c *EffectiveConfig) Overlay() Overlay { return c.overlay }

// Reuse returns which claim kinds bind existing resources.
func (c *EffectiveConfig) Reuse() Reuse { return c.reuse }

// Join returns how long joining servers wait for the first server.
func (c *EffectiveConfig) Join() JoinBarrier { return c.join }

// Name returns the cluster name.
func (c *EffectiveConfig) Name() string { return c.cluster.Name }

// Enabled reports whether feature f is on.
func (c *EffectiveConfig) Enabled(f Feature) bool {
	return c.features.Enabled(f)
}

// Storage returns a copy of the storage settings, Helm values included.
func (c *EffectiveConfig) Storage() Storage {
	out := c.storage
	out.HelmValues = copyValues(c.storage.HelmValues)
	return out
}

// copyValues deep-copies a decoded YAML/JSON value tree.
func copyValues(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyValues(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	default:
		return v
	}
}
