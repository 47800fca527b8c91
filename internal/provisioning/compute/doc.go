// Package compute creates one server per planned node, hands each its
// bootstrap script as user data and waits for it to come up.
//
// Nodes are created in parallel. A failed node does not stop its siblings;
// the phase reports every failure at the end.
package compute
