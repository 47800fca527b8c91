// Package ssh runs commands on cluster nodes over SSH.
//
// It authenticates with the cluster key pair written by apply and is used to
// read bootstrap progress from the nodes. Host keys are not verified: nodes
// are recreated often and their keys are unknown to the operator.
package ssh
