// Package infrastructure provisions the cluster-wide resources every node
// depends on: the private network and its subnet, one firewall per present
// role compiled from the plan's rule set, and the cluster SSH key.
package infrastructure
