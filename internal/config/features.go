package config

import (
	"fmt"
	"slices"
)

// Feature names an optional subsystem.
type Feature string

const (
	FeatureOverlayVPN         Feature = "overlay_vpn"
	FeatureBastion            Feature = "bastion"
	FeatureStorageEngine      Feature = "storage_engine"
	FeatureStorageBackup      Feature = "storage_backup"
	FeatureBlockStorageDriver Feature = "block_storage_driver"
	FeatureGitOps             Feature = "gitops"
	FeatureGPU                Feature = "gpu"
)

// Flag returns the spec key that toggles the feature.
func (f Feature) Flag() string {
	return "enable_" + string(f)
}

// Features is the set of enabled subsystems after resolution.
type Features struct {
	OverlayVPN         bool
	Bastion            bool
	StorageEngine      bool
	StorageBackup      bool
	BlockStorageDriver bool
	GitOps             bool
	GPU                bool
}

// Enabled reports whether f is on.
func (fs Features) Enabled(f Feature) bool {
	switch f {
	case FeatureOverlayVPN:
		return fs.OverlayVPN
	case FeatureBastion:
		return fs.Bastion
	case FeatureStorageEngine:
		return fs.StorageEngine
	case FeatureStorageBackup:
		return fs.StorageBackup
	case FeatureBlockStorageDriver:
		return fs.BlockStorageDriver
	case FeatureGitOps:
		return fs.GitOps
	case FeatureGPU:
		return fs.GPU
	}
	return false
}

// Dependency records that Feature cannot be enabled without Requires.
type Dependency struct {
	Feature  Feature
	Requires Feature
}

// dependencies is the single source of cross-feature requirements.
// GitOps UIs are only reachable through the overlay reverse proxy, and
// backups are taken by the storage engine.
var dependencies = []Dependency{
	{Feature: FeatureGitOps, Requires: FeatureOverlayVPN},
	{Feature: FeatureStorageBackup, Requires: FeatureStorageEngine},
}

// Dependencies returns a copy of the feature dependency table.
func Dependencies() []Dependency {
	return slices.Clone(dependencies)
}

func (d Dependency) message() string {
	return fmt.Sprintf("%s requires %s", d.Feature, d.Requires)
}

func (d Dependency) remediation() string {
	return fmt.Sprintf("set %s=true or %s=false", d.Requires.Flag(), d.Feature.Flag())
}
