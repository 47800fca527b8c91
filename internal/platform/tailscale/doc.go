// Package tailscale issues overlay join keys through the Tailscale API.
//
// The Issuer satisfies credentials.Issuer: every key it mints is
// pre-authorized, single-use and tagged, so a leaked provisioning script
// cannot enrol a second device.
package tailscale
