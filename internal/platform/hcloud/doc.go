// Package hcloud wraps the Hetzner Cloud API for the resources k3sforge
// applies: the private network, per-role firewalls, the SSH key, servers and
// storage volumes.
//
// Get-or-create logic goes through EnsureOperation, so every resource type
// shares the same retry handling. Nothing here deletes cloud resources. Locked resources are retried with exponential backoff; invalid
// input fails immediately.
//
// VolumeBackend adapts volumes to the claims resolver: volumes are found by
// their claim label, never deleted, and a force-recreate leaves the previous
// volume in place.
package hcloud
