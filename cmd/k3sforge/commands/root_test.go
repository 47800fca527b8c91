package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "k3sforge", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"init",
		"validate",
		"plan",
		"apply",
		"cost",
		"status",
		"serve",
		"keygen",
		"version",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), len(expectedSubcommands))
}

func TestFlags(t *testing.T) {
	plan := Plan()
	assert.Equal(t, "out", plan.Flags().Lookup("out").DefValue)
	assert.Equal(t, "false", plan.Flags().Lookup("offline").DefValue)
	assert.Equal(t, "w", plan.Flags().Lookup("watch").Shorthand)

	apply := Apply()
	assert.Equal(t, "5", apply.Flags().Lookup("concurrency").DefValue)
	assert.Equal(t, "c", apply.Flags().Lookup("config").Shorthand)

	initCmd := Init()
	assert.Equal(t, "k3sforge.yaml", initCmd.Flags().Lookup("output").DefValue)

	serve := Serve()
	assert.Equal(t, ":8080", serve.Flags().Lookup("addr").DefValue)

	keygen := Keygen()
	assert.Equal(t, "ed25519", keygen.Flags().Lookup("type").DefValue)
	assert.Equal(t, "4096", keygen.Flags().Lookup("bits").DefValue)
}
