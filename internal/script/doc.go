// Package script compiles the bash provisioning script of each node.
//
// A fixed catalog of steps is filtered by feature flags and node role,
// checked against its ordering constraints and rendered in order-key order.
// Hard steps abort the script when they fail; soft steps log a warning and
// let the node continue. Output is byte-deterministic for equal inputs.
package script
