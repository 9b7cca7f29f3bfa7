package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "underwriting-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestPipelineCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range pipelineCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"discover", "group", "map", "reconcile", "conflicts", "extract", "validate", "approve", "status", "reset"}
	for _, name := range expected {
		assert.True(t, names[name], "pipeline should have subcommand %q", name)
	}
}

func TestPipelineDiscoverCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"listing", "ftp-dir", "mirror-dir"} {
		flag := pipelineDiscoverCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "pipeline discover should have --%s flag", flagName)
	}
}

func TestPipelineExtractCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"group", "live", "stop-on-error"} {
		flag := pipelineExtractCmd.Flags().Lookup(flagName)
		require.NotNil(t, flag, "pipeline extract should have --%s flag", flagName)
	}
	assert.Equal(t, "false", pipelineExtractCmd.Flags().Lookup("live").DefValue)
}

func TestPipelineValidateCommand_Flags(t *testing.T) {
	flag := pipelineValidateCmd.Flags().Lookup("group")
	require.NotNil(t, flag, "pipeline validate should have --group flag")
}

func TestPipelineMapCommand_Flags(t *testing.T) {
	flag := pipelineMapCmd.Flags().Lookup("skip-properties")
	require.NotNil(t, flag, "pipeline map should have --skip-properties flag")
}
