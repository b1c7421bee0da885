package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quaytools/quay-audit/internal/utils"
)

const (
	testEnvironmentPrefixConstant = "TESTQUAYAUDIT"
	testConfigurationNameConstant = "config"
	testConfigurationTypeConstant = "yaml"
	testEmbeddedContentConstant   = "common:\n  log_level: debug\n"
	testFileContentConstant       = "common:\n  log_level: warn\n"
	testLogLevelEnvironmentKey    = "TESTQUAYAUDIT_COMMON_LOG_LEVEL"
)

type commonConfigurationFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationFixture struct {
	Common commonConfigurationFixture `mapstructure:"common"`
}

func newFixtureLoader(embeddedConfiguration []byte, searchPaths []string) *utils.ConfigurationLoader {
	return utils.NewConfigurationLoader(utils.LoaderSettings{
		ConfigurationName:     testConfigurationNameConstant,
		ConfigurationType:     testConfigurationTypeConstant,
		EnvironmentPrefix:     testEnvironmentPrefixConstant,
		SearchPaths:           searchPaths,
		EmbeddedConfiguration: embeddedConfiguration,
	})
}

func TestLoadConfigurationAppliesDefaults(testInstance *testing.T) {
	loader := newFixtureLoader(nil, nil)

	configuration := configurationFixture{}
	_, loadError := loader.LoadConfiguration("", map[string]any{"common.log_level": "info"}, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
}

func TestLoadConfigurationMergesEmbeddedContent(testInstance *testing.T) {
	loader := newFixtureLoader([]byte(testEmbeddedContentConstant), nil)

	configuration := configurationFixture{}
	_, loadError := loader.LoadConfiguration("", nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
}

func TestLoadConfigurationFileOverridesEmbedded(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testFileContentConstant), 0o644))

	loader := newFixtureLoader([]byte(testEmbeddedContentConstant), []string{configurationDirectory})

	configuration := configurationFixture{}
	loadedConfiguration, loadError := loader.LoadConfiguration("", nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "warn", configuration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, loadedConfiguration.ConfigFileUsed)
}

func TestLoadConfigurationEnvironmentOverridesFile(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(testFileContentConstant), 0o644))
	testInstance.Setenv(testLogLevelEnvironmentKey, "error")

	loader := newFixtureLoader(nil, []string{configurationDirectory})

	configuration := configurationFixture{}
	_, loadError := loader.LoadConfiguration("", map[string]any{"common.log_level": "info"}, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "error", configuration.Common.LogLevel)
}

func TestLoadConfigurationExplicitPathFailsWhenUnreadable(testInstance *testing.T) {
	loader := newFixtureLoader(nil, nil)

	configuration := configurationFixture{}
	_, loadError := loader.LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"), nil, &configuration)
	require.Error(testInstance, loadError)
}
