package audit

import (
	"strings"

	"github.com/quaytools/quay-audit/internal/registry"
)

const (
	apiRootConfigurationKeySuffix = ".api_root"
	formatConfigurationKeySuffix  = ".format"
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	APIRoot         string `mapstructure:"api_root"`
	TokenSource     string `mapstructure:"token_source"`
	TrustBundlePath string `mapstructure:"trust_bundle"`
	Format          string `mapstructure:"format"`
}

// DefaultConfigurationValues returns baseline configuration defaults keyed
// under the provided configuration section.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + apiRootConfigurationKeySuffix: registry.DefaultEndpoint,
		configurationKey + formatConfigurationKeySuffix:  string(ReportFormatText),
	}
}

// sanitize trims whitespace and applies defaults to unset values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := CommandConfiguration{
		APIRoot:         strings.TrimSpace(configuration.APIRoot),
		TokenSource:     strings.TrimSpace(configuration.TokenSource),
		TrustBundlePath: strings.TrimSpace(configuration.TrustBundlePath),
		Format:          strings.TrimSpace(configuration.Format),
	}

	if len(sanitized.APIRoot) == 0 {
		sanitized.APIRoot = registry.DefaultEndpoint
	}
	if len(sanitized.Format) == 0 {
		sanitized.Format = string(ReportFormatText)
	}

	return sanitized
}
