// Package wizard provides an interactive configuration wizard for k3sforge.
//
// RunWizard collects answers through charmbracelet/huh forms and returns a
// Result. BuildSpec turns the result into a feature spec and WriteSpec saves
// it as YAML. Secrets are never asked for; they come from the environment.
package wizard
