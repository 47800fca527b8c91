package wizard

import (
	"github.com/charmbracelet/huh"

	"github.com/imamik/k3sforge/internal/config"
)

// LocationOption represents a Hetzner Cloud datacenter location.
type LocationOption struct {
	Value       string
	Label       string
	Description string
	NetworkZone string
}

// ServerTypeOption represents a Hetzner Cloud server type.
type ServerTypeOption struct {
	Value       string
	Label       string
	Description string
}

// FeatureOption represents an optional subsystem the wizard can enable.
type FeatureOption struct {
	Feature     config.Feature
	Label       string
	Description string
	Default     bool
}

// Locations contains all valid Hetzner Cloud datacenter locations.
var Locations = []LocationOption{
	{Value: "nbg1", Label: "nbg1", Description: "Nuremberg, Germany", NetworkZone: "eu-central"},
	{Value: "fsn1", Label: "fsn1", Description: "Falkenstein, Germany", NetworkZone: "eu-central"},
	{Value: "hel1", Label: "hel1", Description: "Helsinki, Finland", NetworkZone: "eu-central"},
	{Value: "ash", Label: "ash", Description: "Ashburn, USA", NetworkZone: "us-east"},
	{Value: "hil", Label: "hil", Description: "Hillsboro, USA", NetworkZone: "us-west"},
	{Value: "sin", Label: "sin", Description: "Singapore", NetworkZone: "ap-southeast"},
}

// ServerTypes contains recommended server types for servers and agents.
var ServerTypes = []ServerTypeOption{
	{Value: "cx22", Label: "cx22", Description: "2 vCPU, 4GB RAM (Intel)"},
	{Value: "cx32", Label: "cx32", Description: "4 vCPU, 8GB RAM (Intel)"},
	{Value: "cx42", Label: "cx42", Description: "8 vCPU, 16GB RAM (Intel)"},
	{Value: "cpx31", Label: "cpx31", Description: "4 vCPU, 8GB RAM (AMD)"},
	{Value: "cpx41", Label: "cpx41", Description: "8 vCPU, 16GB RAM (AMD)"},
	{Value: "ccx23", Label: "ccx23", Description: "4 vCPU, 16GB RAM (Dedicated)"},
	{Value: "ccx33", Label: "ccx33", Description: "8 vCPU, 32GB RAM (Dedicated)"},
}

// Features lists the optional subsystems in the order they are offered.
var Features = []FeatureOption{
	{Feature: config.FeatureStorageEngine, Label: "Storage engine", Description: "Replicated block storage on agent volumes", Default: true},
	{Feature: config.FeatureStorageBackup, Label: "Storage backups", Description: "Recurring backups to S3 object storage", Default: true},
	{Feature: config.FeatureBlockStorageDriver, Label: "Hetzner CSI", Description: "Cloud volumes as a storage class"},
	{Feature: config.FeatureOverlayVPN, Label: "Tailscale overlay", Description: "Nodes join a tailnet with ephemeral keys"},
	{Feature: config.FeatureBastion, Label: "Bastion host", Description: "SSH jump host in front of the cluster"},
	{Feature: config.FeatureGitOps, Label: "GitOps", Description: "Argo CD, exposed over the overlay"},
	{Feature: config.FeatureGPU, Label: "GPU", Description: "NVIDIA device plugin on agents"},
}

// ServerCountOptions contains valid server counts.
var ServerCountOptions = []huh.Option[int]{
	huh.NewOption("1 (Development only)", 1),
	huh.NewOption("3 (Recommended for HA)", 3),
	huh.NewOption("5 (Large clusters)", 5),
}

// AgentCountOptions contains common agent counts.
var AgentCountOptions = []huh.Option[int]{
	huh.NewOption("0 (Servers run workloads)", 0),
	huh.NewOption("1", 1),
	huh.NewOption("2", 2),
	huh.NewOption("3", 3),
	huh.NewOption("5", 5),
	huh.NewOption("10", 10),
}

// LocationsToOptions converts LocationOption slice to huh.Option slice.
func LocationsToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Locations))
	for i, loc := range Locations {
		opts[i] = huh.NewOption(loc.Label+" - "+loc.Description, loc.Value)
	}
	return opts
}

// ServerTypesToOptions converts ServerTypeOption slice to huh.Option slice.
func ServerTypesToOptions(types []ServerTypeOption) []huh.Option[string] {
	opts := make([]huh.Option[string], len(types))
	for i, st := range types {
		opts[i] = huh.NewOption(st.Label+" - "+st.Description, st.Value)
	}
	return opts
}

// FeaturesToOptions converts the feature list to multi-select options,
// preselecting the defaults.
func FeaturesToOptions() []huh.Option[config.Feature] {
	opts := make([]huh.Option[config.Feature], len(Features))
	for i, f := range Features {
		opts[i] = huh.NewOption(f.Label+" - "+f.Description, f.Feature).Selected(f.Default)
	}
	return opts
}

// NetworkZoneFor returns the network zone of a location.
func NetworkZoneFor(location string) string {
	for _, loc := range Locations {
		if loc.Value == location {
			return loc.NetworkZone
		}
	}
	return config.DefaultNetworkZone
}
