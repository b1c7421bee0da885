package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quaytools/quay-audit/cmd/cli"
	"github.com/quaytools/quay-audit/internal/registry"
)

type embeddedConfigurationDocument struct {
	Common struct {
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"common"`
	Tools struct {
		Audit struct {
			APIRoot string `yaml:"api_root"`
			Format  string `yaml:"format"`
		} `yaml:"audit"`
	} `yaml:"tools"`
}

func TestEmbeddedDefaultConfigurationMatchesBaselineDefaults(t *testing.T) {
	configurationContent, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(t, "yaml", configurationType)

	parsedDocument := embeddedConfigurationDocument{}
	require.NoError(t, yaml.Unmarshal(configurationContent, &parsedDocument))

	require.Equal(t, "info", parsedDocument.Common.LogLevel)
	require.Equal(t, "structured", parsedDocument.Common.LogFormat)
	require.Equal(t, registry.DefaultEndpoint, parsedDocument.Tools.Audit.APIRoot)
	require.Equal(t, "text", parsedDocument.Tools.Audit.Format)
}

func TestEmbeddedDefaultConfigurationReturnsIndependentCopies(t *testing.T) {
	firstCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEmpty(t, firstCopy)

	firstCopy[0] = '#'

	secondCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(t, firstCopy[0], secondCopy[0])
}
