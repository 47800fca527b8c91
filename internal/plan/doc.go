// Package plan runs the composition pipeline: it resolves a feature spec,
// lays out the topology, resolves claims and join keys, and compiles the
// rule set, the manifest set and one provisioning script per node.
//
// Compose is synchronous and deterministic for a given set of backends; the
// only side effects are the claim creations and key issuance performed by
// the backends passed in Options.
package plan
