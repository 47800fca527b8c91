package manifests

import (
	"fmt"
	"maps"
	"strconv"

	"helm.sh/helm/v3/pkg/chartutil"
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/labels"
	"github.com/imamik/k3sforge/internal/util/naming"
	"github.com/imamik/k3sforge/internal/util/ptr"
)

// Entry names, in emission order.
const (
	EntryCloudIntegration  = "cloud-integration"
	EntryOverlayOperator   = "overlay-vpn-operator"
	EntryBlockStorage      = "block-storage-driver"
	EntryStorageEngine     = "storage-engine"
	EntryBackupCredential  = "storage-backup-credential"
	EntryRecurringBackup   = "recurring-backup-job"
	StorageClassDelete     = "hcloud-volumes-delete"
	StorageClassRetain     = "hcloud-volumes-retain"
	BackupCredentialSecret = "longhorn-backup-credential"
	RecurringBackupJob     = "storage-backup"
	defaultClassAnnotation = "storageclass.kubernetes.io/is-default-class"
	longhornNamespace      = "longhorn-system"
	overlayNamespace       = "tailscale"
	longhornDataPath       = "/var/lib/longhorn"
	csiProvisioner         = "csi.hetzner.cloud"
)

// Pinned chart sources.
const (
	longhornRepo    = "https://charts.longhorn.io"
	longhornVersion = "1.7.2"
	csiRepo         = "https://charts.hetzner.cloud"
	csiVersion      = "2.11.0"
	operatorRepo    = "https://pkgs.tailscale.com/helmcharts"
	operatorVersion = "1.78.1"
)

type builder struct {
	cfg    *config.EffectiveConfig
	topo   *topology.Topology
	claims *claims.Set
	labels map[string]string
}

// Compile builds the manifest set. Entries that reference a claim fail
// with a ManifestDependencyError when the claim is absent from set.
func Compile(cfg *config.EffectiveConfig, topo *topology.Topology, set *claims.Set) (*Set, error) {
	b := &builder{
		cfg:    cfg,
		topo:   topo,
		claims: set,
		labels: labels.NewLabelBuilder(cfg.Name()).Build(),
	}

	steps := []struct {
		name    string
		enabled bool
		build   func() ([]runtime.Object, error)
	}{
		{EntryCloudIntegration, true, b.cloudIntegration},
		{EntryOverlayOperator, cfg.Enabled(config.FeatureOverlayVPN) && cfg.Overlay().HasOperatorCredentials(), b.overlayOperator},
		{EntryBlockStorage, cfg.Enabled(config.FeatureBlockStorageDriver), b.blockStorage},
		{EntryStorageEngine, cfg.Enabled(config.FeatureStorageEngine), b.storageEngine},
		{EntryBackupCredential, cfg.Enabled(config.FeatureStorageBackup), b.backupCredential},
		{EntryRecurringBackup, cfg.Enabled(config.FeatureStorageBackup), b.recurringBackup},
	}

	out := &Set{}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		objs, err := step.build()
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", step.name, err)
		}
		content, err := render(objs...)
		if err != nil {
			return nil, &errdefs.EncodingError{Artifact: "manifest " + step.name, Err: err}
		}
		out.add(Entry{Name: step.name, Content: content, Encoding: EncodingYAML})
	}
	return out, nil
}

func (b *builder) meta(name, namespace string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: namespace,
		Labels:    maps.Clone(b.labels),
	}
}

// requireClaim returns the resolved claim or a dependency error naming the entry.
func (b *builder) requireClaim(entry, name string) (claims.Claim, error) {
	if b.claims != nil {
		if c, ok := b.claims.Get(name); ok {
			return c, nil
		}
	}
	return claims.Claim{}, &errdefs.ManifestDependencyError{Manifest: entry, Claim: name}
}

func (b *builder) cloudIntegration() ([]runtime.Object, error) {
	cluster := b.cfg.Cluster()
	secret := &corev1.Secret{
		ObjectMeta: b.meta("hcloud", "kube-system"),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{
			"token":   cluster.CloudToken,
			"network": naming.Network(cluster.Name),
		},
	}
	return []runtime.Object{secret}, nil
}

func (b *builder) overlayOperator() ([]runtime.Object, error) {
	overlay := b.cfg.Overlay()
	ns := &corev1.Namespace{ObjectMeta: b.meta(overlayNamespace, "")}
	secret := &corev1.Secret{
		ObjectMeta: b.meta("operator-oauth", overlayNamespace),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{
			"client_id":     overlay.OAuthClientID,
			"client_secret": overlay.OAuthClientSecret,
		},
	}
	chart, err := helmChart("tailscale-operator", operatorRepo, "tailscale-operator", operatorVersion, overlayNamespace, map[string]any{
		"operatorConfig": map[string]any{
			"hostname":    b.cfg.Name() + "-operator",
			"defaultTags": []any{naming.OverlayTag(b.cfg.Name())},
		},
	})
	if err != nil {
		return nil, err
	}
	return []runtime.Object{ns, secret, chart}, nil
}

func (b *builder) blockStorage() ([]runtime.Object, error) {
	replicas := 1
	if len(b.topo.ByRole(topology.RoleServer)) > 1 {
		replicas = 2
	}
	chart, err := helmChart("hcloud-csi", csiRepo, "hcloud-csi", csiVersion, "kube-system", map[string]any{
		"controller": map[string]any{"replicaCount": replicas},
		// Classes are managed as separate objects below.
		"storageClasses": []any{},
	})
	if err != nil {
		return nil, err
	}
	def := b.cfg.Storage().DefaultReclaimPolicy
	return []runtime.Object{
		chart,
		b.storageClass(StorageClassDelete, corev1.PersistentVolumeReclaimDelete, def == config.ReclaimDelete),
		b.storageClass(StorageClassRetain, corev1.PersistentVolumeReclaimRetain, def == config.ReclaimRetain),
	}, nil
}

func (b *builder) storageClass(name string, policy corev1.PersistentVolumeReclaimPolicy, isDefault bool) *storagev1.StorageClass {
	meta := b.meta(name, "")
	meta.Annotations = map[string]string{defaultClassAnnotation: strconv.FormatBool(isDefault)}
	return &storagev1.StorageClass{
		ObjectMeta:           meta,
		Provisioner:          csiProvisioner,
		ReclaimPolicy:        ptr.To(policy),
		VolumeBindingMode:    ptr.To(storagev1.VolumeBindingWaitForFirstConsumer),
		AllowVolumeExpansion: ptr.Bool(true),
	}
}

func (b *builder) storageEngine() ([]runtime.Object, error) {
	storage := b.cfg.Storage()
	ns := &corev1.Namespace{ObjectMeta: b.meta(longhornNamespace, "")}
	for _, key := range []string{"enforce", "audit", "warn"} {
		ns.Labels["pod-security.kubernetes.io/"+key] = "privileged"
	}

	settings := map[string]any{
		"defaultDataPath":                     longhornDataPath,
		"defaultReplicaCount":                 storage.ReplicaCount,
		"allowCollectingLonghornUsageMetrics": false,
		"upgradeChecker":                      false,
	}
	// The 1.7 chart reads the backup target from defaultSettings; the
	// defaultBackupStore block only exists from 1.8 on.
	if b.cfg.Enabled(config.FeatureStorageBackup) {
		bucket, err := b.requireClaim(EntryStorageEngine, naming.BackupContainer(b.cfg.Name()))
		if err != nil {
			return nil, err
		}
		settings["backupTarget"] = fmt.Sprintf("s3://%s@%s/", bucket.ResourceID, b.cfg.Backup().Region)
		settings["backupTargetCredentialSecret"] = BackupCredentialSecret
	}
	values := map[string]any{
		"persistence": map[string]any{
			"defaultClass":             !b.cfg.Enabled(config.FeatureBlockStorageDriver),
			"defaultClassReplicaCount": storage.ReplicaCount,
			"reclaimPolicy":            storage.DefaultReclaimPolicy,
		},
		"defaultSettings": settings,
		"preUpgradeChecker": map[string]any{
			"upgradeVersionCheck": false,
		},
	}
	values = mergeValues(values, storage.HelmValues)

	chart, err := helmChart("longhorn", longhornRepo, "longhorn", longhornVersion, longhornNamespace, values)
	if err != nil {
		return nil, err
	}
	return []runtime.Object{ns, chart}, nil
}

func (b *builder) backupCredential() ([]runtime.Object, error) {
	if _, err := b.requireClaim(EntryBackupCredential, naming.BackupContainer(b.cfg.Name())); err != nil {
		return nil, err
	}
	backup := b.cfg.Backup()
	secret := &corev1.Secret{
		ObjectMeta: b.meta(BackupCredentialSecret, longhornNamespace),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{
			"AWS_ACCESS_KEY_ID":     backup.AccessKey,
			"AWS_SECRET_ACCESS_KEY": backup.SecretKey,
			"AWS_ENDPOINTS":         backup.Endpoint,
			"AWS_REGION":            backup.Region,
		},
	}
	return []runtime.Object{secret}, nil
}

func (b *builder) recurringBackup() ([]runtime.Object, error) {
	backup := b.cfg.Backup()
	job := &unstructured.Unstructured{}
	job.SetAPIVersion(recurringJobAPIVersion)
	job.SetKind("RecurringJob")
	job.SetName(RecurringBackupJob)
	job.SetNamespace(longhornNamespace)
	job.SetLabels(maps.Clone(b.labels))
	job.Object["spec"] = map[string]any{
		"name":        RecurringBackupJob,
		"task":        "backup",
		"cron":        backup.Schedule,
		"retain":      int64(backup.Retention),
		"concurrency": int64(backup.Concurrency),
		"groups":      []any{"default"},
	}
	return []runtime.Object{job}, nil
}

// mergeValues overlays user values on computed defaults; user keys win and
// nested maps merge key by key.
func mergeValues(defaults, overrides map[string]any) map[string]any {
	if len(overrides) == 0 {
		return defaults
	}
	return chartutil.CoalesceTables(overrides, defaults)
}
