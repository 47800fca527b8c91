package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Config file names searched by FindConfigFile, in order.
const (
	DefaultConfigFilename = "k3sforge.yaml"
	TFVarsFilename        = "terraform.tfvars"
)

// Environment variables that fill empty secrets.
const (
	EnvHCloudToken     = "HCLOUD_TOKEN"
	EnvTailscaleAPIKey = "TAILSCALE_API_KEY"
	EnvBackupAccessKey = "BACKUP_S3_ACCESS_KEY"
	EnvBackupSecretKey = "BACKUP_S3_SECRET_KEY"
)

// LoadSpec reads a spec file, picking the decoder from its extension
// (.tfvars and .hcl are HCL, anything else YAML), and fills empty secrets
// from the environment. The result is not validated; pass it to Resolve.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var spec *Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tfvars", ".hcl":
		spec, err = ParseTFVars(data, filepath.Base(path))
	default:
		spec, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	ApplyEnv(spec)
	return spec, nil
}

// ParseYAML decodes YAML on top of DefaultSpec.
func ParseYAML(data []byte) (*Spec, error) {
	spec := DefaultSpec()
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return spec, nil
}

// ParseTFVars decodes HCL variable assignments on top of DefaultSpec.
// Variables the spec does not know are kept in Spec.Remain.
func ParseTFVars(data []byte, filename string) (*Spec, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %s", filename, diags.Error())
	}

	spec := DefaultSpec()
	if diags := gohcl.DecodeBody(file.Body, nil, spec); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %s", filename, diags.Error())
	}
	return spec, nil
}

// ApplyEnv fills empty secret fields from the environment.
func ApplyEnv(spec *Spec) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&spec.HCloudToken, EnvHCloudToken)
	fill(&spec.TailscaleAPIKey, EnvTailscaleAPIKey)
	fill(&spec.BackupS3AccessKey, EnvBackupAccessKey)
	fill(&spec.BackupS3SecretKey, EnvBackupSecretKey)
}

// FindConfigFile walks from dir up to the filesystem root looking for
// k3sforge.yaml, then terraform.tfvars, in each directory.
func FindConfigFile(dir string) (string, error) {
	for {
		for _, name := range []string{DefaultConfigFilename, TFVarsFilename} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s or %s found", DefaultConfigFilename, TFVarsFilename)
}
