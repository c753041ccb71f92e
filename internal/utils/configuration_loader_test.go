package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgerun/forgerun/internal/utils"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Credentials struct {
		Username string `mapstructure:"username"`
		RepoName string `mapstructure:"repo_name"`
	} `mapstructure:"credentials"`
}

func TestLoadConfigurationReadsFileAndDefaults(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(temporaryDirectory, "config.yaml")
	configurationContent := "credentials:\n  username: automation-bot\n  repo_name: repo-automation-demo\n"
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o644))

	loader := utils.NewConfigurationLoader("config", "yaml", "FORGERUN", []string{temporaryDirectory})

	var loadedTarget loaderTestConfiguration
	loadedConfiguration, loadError := loader.LoadConfiguration(configurationFilePath, map[string]any{"common.log_level": "info"}, &loadedTarget)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationFilePath, loadedConfiguration.ConfigFileUsed)
	require.Equal(testInstance, "automation-bot", loadedTarget.Credentials.Username)
	require.Equal(testInstance, "repo-automation-demo", loadedTarget.Credentials.RepoName)
	require.Equal(testInstance, "info", loadedTarget.Common.LogLevel)
}

func TestLoadConfigurationToleratesMissingFile(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader("config", "yaml", "FORGERUN", []string{testInstance.TempDir()})

	var loadedTarget loaderTestConfiguration
	_, loadError := loader.LoadConfiguration("", map[string]any{"common.log_level": "warn"}, &loadedTarget)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "warn", loadedTarget.Common.LogLevel)
}

func TestLoadConfigurationReportsMalformedFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(temporaryDirectory, "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("credentials: [unterminated"), 0o644))

	loader := utils.NewConfigurationLoader("config", "yaml", "FORGERUN", []string{temporaryDirectory})

	var loadedTarget loaderTestConfiguration
	_, loadError := loader.LoadConfiguration(configurationFilePath, nil, &loadedTarget)
	require.Error(testInstance, loadError)
}

func TestLoadConfigurationAppliesEnvironmentOverrides(testInstance *testing.T) {
	testInstance.Setenv("FORGERUN_COMMON_LOG_LEVEL", "debug")

	loader := utils.NewConfigurationLoader("config", "yaml", "FORGERUN", []string{testInstance.TempDir()})

	var loadedTarget loaderTestConfiguration
	_, loadError := loader.LoadConfiguration("", map[string]any{"common.log_level": "info"}, &loadedTarget)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", loadedTarget.Common.LogLevel)
}
