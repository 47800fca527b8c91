package handlers

import (
	"fmt"
	"os"

	"github.com/imamik/k3sforge/internal/config"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	loadSpecFile   = config.LoadSpec
	findConfigFile = config.FindConfigFile
)

// resolveConfigPath returns configPath, or the nearest spec file found
// from the working directory upward.
func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path, err := findConfigFile(wd)
	if err != nil {
		return "", fmt.Errorf("%w (run 'k3sforge init' or pass --config)", err)
	}
	return path, nil
}

// loadSpec reads and parses the spec at configPath, or the auto-detected one.
func loadSpec(configPath string) (*config.Spec, string, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, "", err
	}
	spec, err := loadSpecFile(path)
	if err != nil {
		return nil, "", err
	}
	return spec, path, nil
}
