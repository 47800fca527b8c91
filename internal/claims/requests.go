package claims

import (
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/topology"
	"github.com/imamik/k3sforge/internal/util/naming"
)

// Requests lists the claims a plan needs, in a fixed order: cluster token,
// backup container, then one storage volume per agent.
func Requests(cfg *config.EffectiveConfig, topo *topology.Topology) []Request {
	reuse := cfg.Reuse()
	reqs := []Request{{
		LogicalName: naming.ClusterToken(cfg.Name()),
		Kind:        KindCredential,
		Policy:      PolicyFor(reuse.ClusterToken),
	}}

	if cfg.Enabled(config.FeatureStorageBackup) {
		reqs = append(reqs, Request{
			LogicalName: naming.BackupContainer(cfg.Name()),
			Kind:        KindObjectContainer,
			Policy:      PolicyFor(reuse.BackupContainer),
		})
	}

	if cfg.Enabled(config.FeatureStorageEngine) {
		size := cfg.Storage().SizeGiB
		for _, agent := range topo.ByRole(topology.RoleAgent) {
			reqs = append(reqs, Request{
				LogicalName: naming.StorageVolume(agent.Hostname),
				Kind:        KindVolume,
				Policy:      PolicyFor(reuse.Volumes),
				SizeGiB:     size,
				Node:        agent.Hostname,
			})
		}
	}
	return reqs
}
