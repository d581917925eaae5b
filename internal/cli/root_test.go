package cmd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmd "github.com/hfadhel/consolepull/internal/cli"
	"github.com/hfadhel/consolepull/internal/config"
)

func TestInitConfig_FlagsOverrideDefaults(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	cmd.SetBaseURLForTest("https://flag.example.com")
	cmd.SetAPITokenForTest("flag-secret")
	cmd.SetOutputDirForTest("/tmp/flag-out")
	cmd.SetDatasetsForTest([]string{"sites"})
	cmd.SetDryRunForTest(true)

	cfg, err := cmd.InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.com", cfg.BaseURL())
	assert.Equal(t, "flag-secret", cfg.APIToken())
	assert.Equal(t, "/tmp/flag-out", cfg.OutputDir())
	assert.Equal(t, []string{"sites"}, cfg.Datasets())
	assert.True(t, cfg.DryRun())
}

func TestInitConfig_EnvSuppliesCredential(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	t.Setenv(config.EnvAPIToken, "env-secret")
	cmd.SetBaseURLForTest("https://flag.example.com")

	cfg, err := cmd.InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.APIToken())
}

func TestInitConfig_MissingCredentialFails(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	t.Setenv(config.EnvAPIToken, "")
	cmd.SetBaseURLForTest("https://flag.example.com")

	_, err := cmd.InitConfig()
	require.Error(t, err)
}
