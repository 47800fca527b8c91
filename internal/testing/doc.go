// Package testing provides builders and helpers shared by package tests.
//
//   - SpecBuilder: fluent, immutable builder for feature specs that resolve cleanly
//   - TestContext: context bounded by a test-friendly timeout
//
// Usage:
//
//	cfg := testing.NewSpecBuilder().
//	    WithOverlayVPN(true).
//	    WithGitOps(true).
//	    Resolve(t)
package testing
