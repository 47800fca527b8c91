// Package keygen generates SSH key pairs for node access.
//
// Private keys are PEM encoded, public keys use the OpenSSH
// authorized_keys format accepted by the Hetzner Cloud SSH key API.
package keygen
