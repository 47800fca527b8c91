// Package pricing estimates the monthly cost of a planned cluster.
//
// Prices come from the Hetzner price list for the cluster's location, or
// from a built-in table when composing offline. Every planned node costs its
// server type plus one primary IPv4; volume claims are billed per GiB.
package pricing
