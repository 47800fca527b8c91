// Package manifests compiles the bootstrap manifest set that the first
// server drops into k3s's auto-deploy directory.
//
// Entries come out in a fixed order and each is emitted only when its
// feature is enabled. Typed Kubernetes objects take their apiVersion and
// kind from the client-go scheme; charts and Longhorn resources are
// unstructured. Serialization sorts keys, so equal inputs give byte-equal
// manifests.
package manifests
