// Package provisioning applies a composed plan against Hetzner Cloud.
//
// # Subpackages
//
//   - infrastructure/: private network, per-role firewalls, SSH key
//   - compute/: servers, created in parallel with their bootstrap user data
//
// # Core Types
//
// Context carries the plan, state, infrastructure client, and logger.
// Phase defines a provisioning step with Name() and Provision() methods.
// State accumulates results from each phase; node outcomes are recorded
// per node so one failing server never hides its siblings' results.
package provisioning
