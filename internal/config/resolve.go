package config

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/imamik/k3sforge/internal/errdefs"
)

// nameRegex matches 1-32 lowercase alphanumerics or hyphens, no leading/trailing hyphen.
var nameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

type intRange struct {
	field    string
	value    int
	min, max int
}

// findings accumulates validation results for one Resolve call.
type findings struct {
	errs     errdefs.ValidationErrors
	warnings []errdefs.ValidationError
}

func (f *findings) fail(field, remediation, format string, args ...any) {
	f.errs = append(f.errs, errdefs.ValidationError{
		Field:       field,
		Message:     fmt.Sprintf(format, args...),
		Remediation: remediation,
		Severity:    errdefs.SeverityError,
	})
}

func (f *findings) warn(field, format string, args ...any) {
	f.warnings = append(f.warnings, errdefs.ValidationError{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: errdefs.SeverityWarning,
	})
}

func (f *findings) require(value, field string, feature Feature) {
	if strings.TrimSpace(value) == "" {
		f.fail(field, "supply "+field, "%s is required when %s is enabled", field, feature)
	}
}

// Resolve validates spec and returns the immutable configuration. All fatal
// findings are returned together as errdefs.ValidationErrors; warnings are
// returned even when resolution fails. The spec itself is not modified.
func Resolve(spec *Spec) (*EffectiveConfig, []errdefs.ValidationError, error) {
	if spec == nil {
		return nil, nil, errdefs.ValidationErrors{{Field: "spec", Message: "spec is nil", Severity: errdefs.SeverityError}}
	}

	f := &findings{}
	s := normalize(spec)

	checkIdentity(f, s)
	checkRanges(f, s)
	checkEnums(f, s)
	checkNetwork(f, s)
	checkFeatures(f, s)
	checkCredentials(f, s)
	checkWarnings(f, s)

	if len(f.errs) > 0 {
		return nil, f.warnings, f.errs
	}
	return build(s), f.warnings, nil
}

// normalize returns a trimmed copy of spec with derived defaults filled in.
func normalize(spec *Spec) Spec {
	s := *spec
	s.ClusterName = strings.TrimSpace(s.ClusterName)
	s.HostnamePrefix = strings.TrimSpace(s.HostnamePrefix)
	if s.HostnamePrefix == "" {
		s.HostnamePrefix = s.ClusterName
	}
	s.BackupSchedule = strings.Join(strings.Fields(s.BackupSchedule), " ")
	s.SSHKeyNames = dedupe(s.SSHKeyNames)
	s.SSHAllowedCIDRs = dedupe(s.SSHAllowedCIDRs)
	s.APIAllowedCIDRs = dedupe(s.APIAllowedCIDRs)
	s.StorageHelmValues = copyValues(s.StorageHelmValues)
	return s
}

func dedupe(in []string) []string {
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func checkIdentity(f *findings, s Spec) {
	if !nameRegex.MatchString(s.ClusterName) {
		f.fail("cluster_name", "use 1-32 lowercase alphanumerics or hyphens",
			"cluster name %q is not a valid DNS label", s.ClusterName)
	}
	if s.HostnamePrefix != s.ClusterName && !nameRegex.MatchString(s.HostnamePrefix) {
		f.fail("hostname_prefix", "use 1-32 lowercase alphanumerics or hyphens",
			"hostname prefix %q is not a valid DNS label", s.HostnamePrefix)
	}
	for _, kv := range [][2]string{
		{"location", s.Location},
		{"server_type", s.ServerType},
		{"agent_type", s.AgentType},
		{"image", s.Image},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			f.fail(kv[0], "supply "+kv[0], "%s must not be empty", kv[0])
		}
	}
	if err := checkK3sVersion(s.K3sVersion); err != nil {
		f.fail("k3s_version", "use a k3s release tag such as "+DefaultK3sVersion, "%v", err)
	}
}

func checkRanges(f *findings, s Spec) {
	ranges := []intRange{
		{"server_count", s.ServerCount, 1, 5},
		{"agent_count", s.AgentCount, 0, 50},
		{"storage_size_gib", s.StorageSizeGiB, 10, 1000},
		{"storage_replica_count", s.StorageReplicaCount, 1, 3},
		{"backup_retention", s.BackupRetention, 1, 100},
		{"backup_concurrency", s.BackupConcurrency, 1, 10},
		{"credential_key_expiry_seconds", s.CredentialKeyExpirySeconds, 300, 86400},
		{"ip_recheck_interval_seconds", s.IPRecheckIntervalSeconds, 60, 3600},
		{"join_retry_attempts", s.JoinRetryAttempts, 1, 1000},
		{"join_retry_interval_seconds", s.JoinRetryIntervalSeconds, 1, 300},
	}
	for _, r := range ranges {
		if r.value < r.min || r.value > r.max {
			f.fail(r.field, fmt.Sprintf("set %s between %d and %d", r.field, r.min, r.max),
				"%s=%d is out of range [%d, %d]", r.field, r.value, r.min, r.max)
		}
	}
}

func checkEnums(f *findings, s Spec) {
	if s.DefaultReclaimPolicy != ReclaimDelete && s.DefaultReclaimPolicy != ReclaimRetain {
		f.fail("default_reclaim_policy", "use Delete or Retain",
			"unknown reclaim policy %q", s.DefaultReclaimPolicy)
	}
	if s.EnableStorageBackup {
		if _, err := cron.ParseStandard(s.BackupSchedule); err != nil {
			f.fail("backup_schedule", "use a 5-field cron expression such as "+DefaultBackupSchedule,
				"invalid backup schedule %q: %v", s.BackupSchedule, err)
		}
	}
}

func checkNetwork(f *findings, s Spec) {
	_, network, err := net.ParseCIDR(s.NetworkCIDR)
	if err != nil {
		f.fail("network_cidr", "use CIDR notation such as "+DefaultNetworkCIDR, "invalid network CIDR %q", s.NetworkCIDR)
	}
	_, subnet, err := net.ParseCIDR(s.SubnetCIDR)
	switch {
	case err != nil:
		f.fail("subnet_cidr", "use CIDR notation such as "+DefaultSubnetCIDR, "invalid subnet CIDR %q", s.SubnetCIDR)
	case network != nil && !network.Contains(subnet.IP):
		f.fail("subnet_cidr", "pick a subnet inside network_cidr", "subnet %s is outside network %s", s.SubnetCIDR, s.NetworkCIDR)
	case subnet.IP.To4() == nil:
		f.fail("subnet_cidr", "use an IPv4 subnet", "subnet %s is not IPv4", s.SubnetCIDR)
	default:
		if ones, _ := subnet.Mask.Size(); ones > 24 {
			f.fail("subnet_cidr", "use a /24 or larger subnet", "subnet %s is too small for node addressing", s.SubnetCIDR)
		}
	}

	checkCIDRs(f, "ssh_allowed_cidrs", s.SSHAllowedCIDRs)
	checkCIDRs(f, "api_allowed_cidrs", s.APIAllowedCIDRs)
	checkIP(f, "floating_ip", s.FloatingIP)
	checkIP(f, "load_balancer_ip", s.LoadBalancerIP)
}

func checkCIDRs(f *findings, field string, list []string) {
	for _, c := range list {
		if _, _, err := net.ParseCIDR(c); err != nil {
			f.fail(field, "use CIDR notation such as 203.0.113.0/24", "invalid CIDR %q", c)
		}
	}
}

func checkIP(f *findings, field, v string) {
	if v != "" && net.ParseIP(v) == nil {
		f.fail(field, "use a plain IP address", "invalid IP address %q", v)
	}
}

func checkFeatures(f *findings, s Spec) {
	features := featuresOf(s)
	for _, d := range dependencies {
		if features.Enabled(d.Feature) && !features.Enabled(d.Requires) {
			f.fail(d.Feature.Flag(), d.remediation(), "%s", d.message())
		}
	}
	if features.GPU && s.AgentCount == 0 {
		f.fail("enable_gpu", "set agent_count to at least 1 or enable_gpu=false", "gpu requires at least one agent")
	}
}

func checkCredentials(f *findings, s Spec) {
	if strings.TrimSpace(s.HCloudToken) == "" {
		f.fail("hcloud_token", "supply hcloud_token or set HCLOUD_TOKEN", "hcloud_token is required")
	}
	if s.EnableOverlayVPN {
		f.require(s.TailscaleAPIKey, "tailscale_api_key", FeatureOverlayVPN)
		f.require(s.TailscaleTailnet, "tailscale_tailnet", FeatureOverlayVPN)
		if (s.TailscaleOAuthClientID == "") != (s.TailscaleOAuthClientSecret == "") {
			f.fail("tailscale_oauth_client_secret", "supply both tailscale_oauth_client_id and tailscale_oauth_client_secret or neither",
				"operator OAuth credentials are incomplete")
		}
	}
	if s.EnableStorageEngine && s.EnableStorageBackup {
		f.require(s.BackupS3Endpoint, "backup_s3_endpoint", FeatureStorageBackup)
		f.require(s.BackupS3Region, "backup_s3_region", FeatureStorageBackup)
		f.require(s.BackupS3AccessKey, "backup_s3_access_key", FeatureStorageBackup)
		f.require(s.BackupS3SecretKey, "backup_s3_secret_key", FeatureStorageBackup)
	}
}

func checkWarnings(f *findings, s Spec) {
	if s.EnableBastion && s.EnableOverlayVPN {
		f.warn("enable_bastion", "bastion and overlay_vpn are both enabled; nodes are already reachable over the overlay network")
	}
	if s.EnableBastion && len(s.SSHAllowedCIDRs) > 0 {
		f.warn("ssh_allowed_cidrs", "SSH is allowed from %d CIDR range(s) and from the bastion at the same time", len(s.SSHAllowedCIDRs))
	}
	if s.ServerCount > 1 && s.ServerCount%2 == 0 {
		f.warn("server_count", "server_count=%d is even; etcd tolerates no more failures than with %d servers", s.ServerCount, s.ServerCount-1)
	}
	if s.EnableStorageEngine && s.AgentCount == 0 {
		f.warn("enable_storage_engine", "storage engine is enabled but there are no agents to carry storage volumes")
	}
	if s.EnableStorageEngine && s.AgentCount > 0 && s.StorageReplicaCount > s.AgentCount {
		f.warn("storage_replica_count", "storage_replica_count=%d exceeds agent_count=%d; volumes will stay degraded", s.StorageReplicaCount, s.AgentCount)
	}
	if s.EnableOverlayVPN && s.TailscaleOAuthClientID == "" {
		f.warn("tailscale_oauth_client_id", "overlay operator credentials are not set; the in-cluster operator will not be deployed")
	}
}

func featuresOf(s Spec) Features {
	return Features{
		OverlayVPN:         s.EnableOverlayVPN,
		Bastion:            s.EnableBastion,
		StorageEngine:      s.EnableStorageEngine,
		StorageBackup:      s.EnableStorageBackup,
		BlockStorageDriver: s.EnableBlockStorageDriver,
		GitOps:             s.EnableGitOps,
		GPU:                s.EnableGPU,
	}
}

func build(s Spec) *EffectiveConfig {
	return &EffectiveConfig{
		cluster: Cluster{
			Name:           s.ClusterName,
			HostnamePrefix: s.HostnamePrefix,
			CloudToken:     s.HCloudToken,
			Location:       s.Location,
			NetworkZone:    s.NetworkZone,
			ServerType:     s.ServerType,
			AgentType:      s.AgentType,
			BastionType:    s.BastionType,
			Image:          s.Image,
			K3sVersion:     s.K3sVersion,
			SSHKeyNames:    s.SSHKeyNames,
		},
		network: Network{
			CIDR:            s.NetworkCIDR,
			SubnetCIDR:      s.SubnetCIDR,
			SSHAllowedCIDRs: s.SSHAllowedCIDRs,
			APIAllowedCIDRs: s.APIAllowedCIDRs,
			FloatingIP:      s.FloatingIP,
			LoadBalancerIP:  s.LoadBalancerIP,
		},
		features: featuresOf(s),
		sizing: Sizing{
			ServerCount: s.ServerCount,
			AgentCount:  s.AgentCount,
		},
		storage: Storage{
			SizeGiB:              s.StorageSizeGiB,
			ReplicaCount:         s.StorageReplicaCount,
			DefaultReclaimPolicy: s.DefaultReclaimPolicy,
			HelmValues:           s.StorageHelmValues,
		},
		backup: Backup{
			Schedule:    s.BackupSchedule,
			Retention:   s.BackupRetention,
			Concurrency: s.BackupConcurrency,
			Endpoint:    s.BackupS3Endpoint,
			Region:      s.BackupS3Region,
			AccessKey:   s.BackupS3AccessKey,
			SecretKey:   s.BackupS3SecretKey,
		},
		overlay: Overlay{
			APIKey:            s.TailscaleAPIKey,
			Tailnet:           s.TailscaleTailnet,
			OAuthClientID:     s.TailscaleOAuthClientID,
			OAuthClientSecret: s.TailscaleOAuthClientSecret,
			KeyExpiry:         time.Duration(s.CredentialKeyExpirySeconds) * time.Second,
			IPRecheckInterval: time.Duration(s.IPRecheckIntervalSeconds) * time.Second,
		},
		reuse: Reuse{
			Volumes:         s.ReuseExistingVolumes,
			BackupContainer: s.ReuseBackupContainer,
			ClusterToken:    s.ReuseClusterToken,
		},
		join: JoinBarrier{
			Attempts: s.JoinRetryAttempts,
			Interval: time.Duration(s.JoinRetryIntervalSeconds) * time.Second,
		},
	}
}
