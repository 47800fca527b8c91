// Package errdefs defines the error types shared by the composition engine
// and the provisioner.
//
// Composition errors (validation, missing resources, manifest dependencies,
// encoding) are fatal and abort before any external resource is touched.
// StepTimeoutError is the only execution-phase error; its severity decides
// whether the node script stops or continues.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity classifies a validation finding or a step failure.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a single finding produced while resolving a feature spec.
type ValidationError struct {
	Field       string   // Configuration field that failed validation
	Message     string   // Human-readable description of the failed check
	Remediation string   // Flag or credential the operator should supply
	Severity    Severity // SeverityError or SeverityWarning
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
	if ve.Remediation != "" {
		msg += " (" + ve.Remediation + ")"
	}
	return msg
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == SeverityError
}

// ValidationErrors collects every fatal finding of one resolution pass.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return "validation failed: " + v[0].Error()
	}
	lines := make([]string, 0, len(v))
	for _, ve := range v {
		lines = append(lines, "  - "+ve.Error())
	}
	return fmt.Sprintf("validation failed with %d errors:\n%s", len(v), strings.Join(lines, "\n"))
}

// Contains reports whether any finding mentions substr.
func (v ValidationErrors) Contains(substr string) bool {
	for _, ve := range v {
		if strings.Contains(ve.Message, substr) {
			return true
		}
	}
	return false
}

// MissingResourceError is returned when a reuse-if-exists claim finds nothing to bind.
type MissingResourceError struct {
	Name string
	Kind string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("%s %q does not exist and its reuse policy forbids creating it (set the matching reuse flag to false to create it)", e.Kind, e.Name)
}

// StepTimeoutError is returned when a bounded poll exhausts its budget.
type StepTimeoutError struct {
	Step     string
	Attempts int
	Interval time.Duration
	Severity Severity
	Err      error
}

func (e *StepTimeoutError) Error() string {
	msg := fmt.Sprintf("step %s timed out after %d attempts (%s interval)", e.Step, e.Attempts, e.Interval)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepTimeoutError) Unwrap() error {
	return e.Err
}

// Hard reports whether the timeout aborts the node.
func (e *StepTimeoutError) Hard() bool {
	return e.Severity == SeverityError
}

// ManifestDependencyError signals that a manifest referenced a claim that was not resolved.
type ManifestDependencyError struct {
	Manifest string
	Claim    string
}

func (e *ManifestDependencyError) Error() string {
	return fmt.Sprintf("manifest %s references unresolved claim %s", e.Manifest, e.Claim)
}

// OrderingError reports a step whose order key does not place it after a
// step it depends on.
type OrderingError struct {
	Step       string
	StepOrder  int
	After      string
	AfterOrder int
}

func (e *OrderingError) Error() string {
	if e.AfterOrder < 0 {
		return fmt.Sprintf("step %s depends on unknown step %s", e.Step, e.After)
	}
	return fmt.Sprintf("step %s (order %d) must run after %s (order %d)", e.Step, e.StepOrder, e.After, e.AfterOrder)
}

// ScriptDependencyError signals that a node script needs an input the plan
// did not provide, such as a join key or a volume claim.
type ScriptDependencyError struct {
	Node  string
	Step  string
	Input string
	Err   error
}

func (e *ScriptDependencyError) Error() string {
	msg := fmt.Sprintf("script for %s: step %s needs %s", e.Node, e.Step, e.Input)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScriptDependencyError) Unwrap() error {
	return e.Err
}

// EncodingError wraps a failure to serialize or transport-encode an artifact.
type EncodingError struct {
	Artifact string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Artifact, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsMissingResource reports whether err is or wraps a MissingResourceError.
func IsMissingResource(err error) bool {
	var target *MissingResourceError
	return errors.As(err, &target)
}

// IsHardTimeout reports whether err is a StepTimeoutError that aborts its node.
func IsHardTimeout(err error) bool {
	var target *StepTimeoutError
	return errors.As(err, &target) && target.Hard()
}
