package handlers

import (
	"testing"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/platform/hcloud"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

// saveAndRestoreFactories restores every factory variable after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadSpecFile := loadSpecFile
	origFindConfigFile := findConfigFile
	origNewInfraClient := newInfraClient
	origNewS3Client := newS3Client
	origNewOverlayIssuer := newOverlayIssuer
	origWatchFile := watchFile
	origNewPhases := newPhases
	origGenerateKey := generateKey
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteSpec := writeSpec
	origNewNodeRunner := newNodeRunner
	origIsTerminal := isTerminal

	isTerminal = func() bool { return false }

	t.Cleanup(func() {
		loadSpecFile = origLoadSpecFile
		findConfigFile = origFindConfigFile
		newInfraClient = origNewInfraClient
		newS3Client = origNewS3Client
		newOverlayIssuer = origNewOverlayIssuer
		watchFile = origWatchFile
		newPhases = origNewPhases
		generateKey = origGenerateKey
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeSpec = origWriteSpec
		newNodeRunner = origNewNodeRunner
		isTerminal = origIsTerminal
	})
}

// useSpec makes every handler load spec regardless of path.
func useSpec(spec *config.Spec) {
	loadSpecFile = func(string) (*config.Spec, error) {
		clone := *spec
		return &clone, nil
	}
}

// localSpec is a valid spec that needs no object storage.
func localSpec() *config.Spec {
	return k3stesting.NewSpecBuilder().
		WithClusterName("lab").
		WithBackup(false).
		With(func(s *config.Spec) {
			s.BackupS3Endpoint = ""
			s.BackupS3Region = ""
			s.BackupS3AccessKey = ""
			s.BackupS3SecretKey = ""
		}).
		Build()
}

// useInfra routes every infrastructure client to m.
func useInfra(m *hcloud.MockClient) *[]string {
	var tokens []string
	newInfraClient = func(token string) hcloud.InfrastructureManager {
		tokens = append(tokens, token)
		return m
	}
	return &tokens
}
