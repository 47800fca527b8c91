// Package naming provides the deterministic names used for nodes and for
// every external resource a plan creates or probes.
//
// Infrastructure follows {cluster}-{type}, nodes follow {prefix}-{role}-{ordinal}.
// Because names are derived only from configuration, a second plan for the
// same cluster probes exactly the resources the first one created.
package naming
