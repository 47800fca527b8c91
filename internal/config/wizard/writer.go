package wizard

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k3sforge/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// secretKeys are never written by the wizard; they come from the environment.
var secretKeys = []string{
	"hcloud_token",
	"tailscale_api_key",
	"tailscale_oauth_client_secret",
	"backup_s3_access_key",
	"backup_s3_secret_key",
}

// alwaysKeys are written even when they equal the default.
var alwaysKeys = []string{"cluster_name", "location"}

// WriteSpec writes the spec to a YAML file with a descriptive header.
// If fullOutput is false, only values that differ from the defaults are
// written.
func WriteSpec(spec *config.Spec, outputPath string, fullOutput bool) error {
	fields, err := specFields(spec)
	if err != nil {
		return err
	}
	for _, k := range secretKeys {
		delete(fields, k)
	}

	if !fullOutput {
		defaults, err := specFields(config.DefaultSpec())
		if err != nil {
			return err
		}
		for k, v := range fields {
			if slices.Contains(alwaysKeys, k) {
				continue
			}
			if reflect.DeepEqual(defaults[k], v) {
				delete(fields, k)
			}
		}
	}

	yamlBytes, err := yaml.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath, fullOutput))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// specFields round-trips the spec through YAML into a generic map, so the
// written keys are exactly the loader's keys.
func specFields(spec *config.Spec) (map[string]any, error) {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	fields := make(map[string]any)
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return fields, nil
}

// generateHeader creates the YAML file header comment.
func generateHeader(outputPath string, fullOutput bool) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}
	return fmt.Sprintf(`# k3sforge feature spec
# Generated by: k3sforge init
# Generated at: %s
# Output mode: %s%s
#
# Secrets are read from the environment:
#   %s - Hetzner Cloud API token (required)
#   %s - Tailscale API key (overlay VPN)
#   %s / %s - object storage credentials (backups)
#
# Usage:
#   export HCLOUD_TOKEN=<your-token>
#   k3sforge plan -c %s
#   k3sforge apply -c %s
`, time.Now().Format(time.RFC3339), mode, note,
		config.EnvHCloudToken, config.EnvTailscaleAPIKey, config.EnvBackupAccessKey, config.EnvBackupSecretKey,
		outputPath, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
