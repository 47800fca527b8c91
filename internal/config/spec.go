package config

import "github.com/hashicorp/hcl/v2"

// Defaults applied by DefaultSpec.
const (
	DefaultClusterName           = "k3s-multicloud"
	DefaultLocation              = "nbg1"
	DefaultNetworkZone           = "eu-central"
	DefaultNetworkCIDR           = "10.0.0.0/16"
	DefaultSubnetCIDR            = "10.0.1.0/24"
	DefaultServerType            = "cx32"
	DefaultAgentType             = "cx42"
	DefaultBastionType           = "cx22"
	DefaultImage                 = "ubuntu-24.04"
	DefaultK3sVersion            = "v1.31.4+k3s1"
	DefaultServerCount           = 3
	DefaultAgentCount            = 3
	DefaultStorageSizeGiB        = 50
	DefaultStorageReplicaCount   = 2
	DefaultReclaimPolicy         = ReclaimDelete
	DefaultBackupSchedule        = "0 2 * * *"
	DefaultBackupRetention       = 7
	DefaultBackupConcurrency     = 2
	DefaultKeyExpirySeconds      = 7200
	DefaultIPRecheckSeconds      = 300
	DefaultJoinRetryAttempts     = 90
	DefaultJoinRetryIntervalSecs = 10
)

// Reclaim policies accepted by default_reclaim_policy.
const (
	ReclaimDelete = "Delete"
	ReclaimRetain = "Retain"
)

// Spec is the operator-facing feature spec. It is mutable until passed to
// Resolve. YAML keys and tfvars variable names are identical.
type Spec struct {
	ClusterName    string   `yaml:"cluster_name" json:"cluster_name" hcl:"cluster_name,optional"`
	HostnamePrefix string   `yaml:"hostname_prefix,omitempty" json:"hostname_prefix,omitempty" hcl:"hostname_prefix,optional"`
	HCloudToken    string   `yaml:"hcloud_token,omitempty" json:"hcloud_token,omitempty" hcl:"hcloud_token,optional"`
	Location       string   `yaml:"location" json:"location" hcl:"location,optional"`
	NetworkZone    string   `yaml:"network_zone" json:"network_zone" hcl:"network_zone,optional"`
	NetworkCIDR    string   `yaml:"network_cidr" json:"network_cidr" hcl:"network_cidr,optional"`
	SubnetCIDR     string   `yaml:"subnet_cidr" json:"subnet_cidr" hcl:"subnet_cidr,optional"`
	ServerType     string   `yaml:"server_type" json:"server_type" hcl:"server_type,optional"`
	AgentType      string   `yaml:"agent_type" json:"agent_type" hcl:"agent_type,optional"`
	BastionType    string   `yaml:"bastion_type" json:"bastion_type" hcl:"bastion_type,optional"`
	Image          string   `yaml:"image" json:"image" hcl:"image,optional"`
	K3sVersion     string   `yaml:"k3s_version" json:"k3s_version" hcl:"k3s_version,optional"`
	SSHKeyNames    []string `yaml:"ssh_key_names,omitempty" json:"ssh_key_names,omitempty" hcl:"ssh_key_names,optional"`

	EnableOverlayVPN         bool   `yaml:"enable_overlay_vpn" json:"enable_overlay_vpn" hcl:"enable_overlay_vpn,optional"`
	EnableBastion            bool   `yaml:"enable_bastion" json:"enable_bastion" hcl:"enable_bastion,optional"`
	EnableStorageEngine      bool   `yaml:"enable_storage_engine" json:"enable_storage_engine" hcl:"enable_storage_engine,optional"`
	EnableStorageBackup      bool   `yaml:"enable_storage_backup" json:"enable_storage_backup" hcl:"enable_storage_backup,optional"`
	EnableBlockStorageDriver bool   `yaml:"enable_block_storage_driver" json:"enable_block_storage_driver" hcl:"enable_block_storage_driver,optional"`
	EnableGitOps             bool   `yaml:"enable_gitops" json:"enable_gitops" hcl:"enable_gitops,optional"`
	EnableGPU                bool   `yaml:"enable_gpu" json:"enable_gpu" hcl:"enable_gpu,optional"`
	DefaultReclaimPolicy     string `yaml:"default_reclaim_policy" json:"default_reclaim_policy" hcl:"default_reclaim_policy,optional"`

	ServerCount         int            `yaml:"server_count" json:"server_count" hcl:"server_count,optional"`
	AgentCount          int            `yaml:"agent_count" json:"agent_count" hcl:"agent_count,optional"`
	StorageSizeGiB      int            `yaml:"storage_size_gib" json:"storage_size_gib" hcl:"storage_size_gib,optional"`
	StorageReplicaCount int            `yaml:"storage_replica_count" json:"storage_replica_count" hcl:"storage_replica_count,optional"`
	StorageHelmValues   map[string]any `yaml:"storage_helm_values,omitempty" json:"storage_helm_values,omitempty"`

	BackupSchedule    string `yaml:"backup_schedule" json:"backup_schedule" hcl:"backup_schedule,optional"`
	BackupRetention   int    `yaml:"backup_retention" json:"backup_retention" hcl:"backup_retention,optional"`
	BackupConcurrency int    `yaml:"backup_concurrency" json:"backup_concurrency" hcl:"backup_concurrency,optional"`
	BackupS3Endpoint  string `yaml:"backup_s3_endpoint,omitempty" json:"backup_s3_endpoint,omitempty" hcl:"backup_s3_endpoint,optional"`
	BackupS3Region    string `yaml:"backup_s3_region,omitempty" json:"backup_s3_region,omitempty" hcl:"backup_s3_region,optional"`
	BackupS3AccessKey string `yaml:"backup_s3_access_key,omitempty" json:"backup_s3_access_key,omitempty" hcl:"backup_s3_access_key,optional"`
	BackupS3SecretKey string `yaml:"backup_s3_secret_key,omitempty" json:"backup_s3_secret_key,omitempty" hcl:"backup_s3_secret_key,optional"`

	TailscaleAPIKey            string `yaml:"tailscale_api_key,omitempty" json:"tailscale_api_key,omitempty" hcl:"tailscale_api_key,optional"`
	TailscaleTailnet           string `yaml:"tailscale_tailnet,omitempty" json:"tailscale_tailnet,omitempty" hcl:"tailscale_tailnet,optional"`
	TailscaleOAuthClientID     string `yaml:"tailscale_oauth_client_id,omitempty" json:"tailscale_oauth_client_id,omitempty" hcl:"tailscale_oauth_client_id,optional"`
	TailscaleOAuthClientSecret string `yaml:"tailscale_oauth_client_secret,omitempty" json:"tailscale_oauth_client_secret,omitempty" hcl:"tailscale_oauth_client_secret,optional"`

	CredentialKeyExpirySeconds int `yaml:"credential_key_expiry_seconds" json:"credential_key_expiry_seconds" hcl:"credential_key_expiry_seconds,optional"`
	IPRecheckIntervalSeconds   int `yaml:"ip_recheck_interval_seconds" json:"ip_recheck_interval_seconds" hcl:"ip_recheck_interval_seconds,optional"`
	JoinRetryAttempts          int `yaml:"join_retry_attempts" json:"join_retry_attempts" hcl:"join_retry_attempts,optional"`
	JoinRetryIntervalSeconds   int `yaml:"join_retry_interval_seconds" json:"join_retry_interval_seconds" hcl:"join_retry_interval_seconds,optional"`

	SSHAllowedCIDRs []string `yaml:"ssh_allowed_cidrs,omitempty" json:"ssh_allowed_cidrs,omitempty" hcl:"ssh_allowed_cidrs,optional"`
	APIAllowedCIDRs []string `yaml:"api_allowed_cidrs,omitempty" json:"api_allowed_cidrs,omitempty" hcl:"api_allowed_cidrs,optional"`
	FloatingIP      string   `yaml:"floating_ip,omitempty" json:"floating_ip,omitempty" hcl:"floating_ip,optional"`
	LoadBalancerIP  string   `yaml:"load_balancer_ip,omitempty" json:"load_balancer_ip,omitempty" hcl:"load_balancer_ip,optional"`

	ReuseExistingVolumes bool `yaml:"reuse_existing_volumes" json:"reuse_existing_volumes" hcl:"reuse_existing_volumes,optional"`
	ReuseBackupContainer bool `yaml:"reuse_backup_container" json:"reuse_backup_container" hcl:"reuse_backup_container,optional"`
	ReuseClusterToken    bool `yaml:"reuse_cluster_token" json:"reuse_cluster_token" hcl:"reuse_cluster_token,optional"`

	// Remain holds tfvars variables this tool does not consume.
	Remain hcl.Body `yaml:"-" json:"-" hcl:",remain"`
}

// DefaultSpec returns a Spec populated with every default. Loaders decode
// on top of it so absent keys keep their defaults.
func DefaultSpec() *Spec {
	return &Spec{
		ClusterName:                DefaultClusterName,
		Location:                   DefaultLocation,
		NetworkZone:                DefaultNetworkZone,
		NetworkCIDR:                DefaultNetworkCIDR,
		SubnetCIDR:                 DefaultSubnetCIDR,
		ServerType:                 DefaultServerType,
		AgentType:                  DefaultAgentType,
		BastionType:                DefaultBastionType,
		Image:                      DefaultImage,
		K3sVersion:                 DefaultK3sVersion,
		EnableStorageEngine:        true,
		EnableStorageBackup:        true,
		DefaultReclaimPolicy:       DefaultReclaimPolicy,
		ServerCount:                DefaultServerCount,
		AgentCount:                 DefaultAgentCount,
		StorageSizeGiB:             DefaultStorageSizeGiB,
		StorageReplicaCount:        DefaultStorageReplicaCount,
		BackupSchedule:             DefaultBackupSchedule,
		BackupRetention:            DefaultBackupRetention,
		BackupConcurrency:          DefaultBackupConcurrency,
		CredentialKeyExpirySeconds: DefaultKeyExpirySeconds,
		IPRecheckIntervalSeconds:   DefaultIPRecheckSeconds,
		JoinRetryAttempts:          DefaultJoinRetryAttempts,
		JoinRetryIntervalSeconds:   DefaultJoinRetryIntervalSecs,
	}
}
