// Package labels builds the label sets k3sforge puts on cloud resources
// and Kubernetes objects so they can be found again by cluster, role or
// claim name.
package labels
