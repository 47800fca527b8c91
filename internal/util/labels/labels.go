package labels

import "maps"

// Label keys, namespaced under k3sforge.io.
const (
	KeyCluster   = "k3sforge.io/cluster"
	KeyRole      = "k3sforge.io/role"
	KeyClaim     = "k3sforge.io/claim"
	KeyNode      = "k3sforge.io/node"
	KeyManagedBy = "k3sforge.io/managed-by"
)

// ManagedBy is the value of KeyManagedBy on everything k3sforge creates.
const ManagedBy = "k3sforge"

// LabelBuilder provides a fluent interface for building label sets.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder starts a label set for a cluster.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithRole adds the node role (server, agent, bastion).
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithClaim records the logical claim name a resource satisfies.
func (lb *LabelBuilder) WithClaim(name string) *LabelBuilder {
	lb.labels[KeyClaim] = name
	return lb
}

// WithNode records the hostname owning a per-node resource.
func (lb *LabelBuilder) WithNode(hostname string) *LabelBuilder {
	lb.labels[KeyNode] = hostname
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	maps.Copy(lb.labels, extra)
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// SelectorForCluster returns a label selector for all resources in a cluster.
func SelectorForCluster(clusterName string) string {
	return KeyCluster + "=" + clusterName
}

// SelectorForClaim returns a label selector for the resource bound to a claim.
func SelectorForClaim(clusterName, claim string) string {
	return SelectorForCluster(clusterName) + "," + KeyClaim + "=" + claim
}
