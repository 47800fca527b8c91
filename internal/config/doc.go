// Package config turns an operator-supplied feature spec into an immutable,
// validated EffectiveConfig.
//
// A Spec is loaded from YAML (k3sforge.yaml) or HCL tfvars
// (terraform.tfvars), optionally filled from the environment, and passed to
// [Resolve]. Resolve checks ranges, enums, formats, required credentials and
// the static feature dependency graph in one pass and reports every finding.
// Nothing downstream of the resolver re-checks feature interactions.
package config
