// Package retry provides the two waiting primitives used by the provisioner:
// exponential backoff for transient API failures ([WithExponentialBackoff])
// and fixed-interval bounded polling for readiness barriers ([Poll]).
package retry
