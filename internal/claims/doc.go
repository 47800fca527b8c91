// Package claims decides create-versus-reuse for the persistent resources a
// cluster depends on: storage volumes, the backup object container and the
// cluster join token.
//
// A claim with reuse-if-exists binds to a resource found under its
// deterministic name and fails with errdefs.MissingResourceError when there
// is none. A claim with force-recreate always creates. The resolver never
// deletes anything; a resource orphaned by force-recreate is the operator's
// to reconcile.
package claims
