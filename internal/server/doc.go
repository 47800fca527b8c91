// Package server exposes offline plan composition over HTTP.
//
// Plans built here never touch a cloud account: claims bind to deterministic
// placeholders and overlay keys come from the offline issuer. The server is
// stateless; every request composes from the posted spec.
package server
