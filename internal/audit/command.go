package audit

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quaytools/quay-audit/internal/registry"
	"github.com/quaytools/quay-audit/internal/registryauth"
	"github.com/quaytools/quay-audit/internal/snapshot"
)

const (
	commandUseConstant   = "audit <namespace>"
	commandShortConstant = "Report repositories accessible by users outside the organization"
	commandLongConstant  = "audit lists every repository in the namespace, fetches user and team permissions for each, and reports repositories granting access to users who are not organization members. The command exits non-zero when external access is found."

	flagFromStateNameConstant    = "from-state"
	flagFromStateUsageConstant   = "Read the snapshot from a state file instead of the registry API."
	flagAPIRootNameConstant      = "api-root"
	flagAPIRootUsageConstant     = "Registry API root. Ignored when --from-state is provided."
	flagDumpStateNameConstant    = "dump-state"
	flagDumpStateUsageConstant   = "Write the snapshot to a state file. Overwrites the file if it exists."
	flagTokenSourceNameConstant  = "token-source"
	flagTokenSourceUsageConstant = "Bearer token source (env:NAME or file:PATH). Defaults to the QUAY_TOKEN environment variable."
	flagTrustBundleNameConstant  = "trust-bundle"
	flagTrustBundleUsageConstant = "Path to a PEM CA bundle trusted for registry API connections."
	flagFormatNameConstant       = "format"
	flagFormatUsageConstant      = "Report format: text or table."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted audit configuration at
// execution time, after the application shell has loaded it.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the audit cobra command with configurable
// dependencies. Zero-value fields fall back to production implementations.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	BuilderFactory        BuilderFactory
	Store                 SnapshotStore
	Environment           map[string]string
}

// Build constructs the cobra command for the audit workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagFromStateNameConstant, "", flagFromStateUsageConstant)
	command.Flags().String(flagAPIRootNameConstant, "", flagAPIRootUsageConstant)
	command.Flags().String(flagDumpStateNameConstant, "", flagDumpStateUsageConstant)
	command.Flags().String(flagTokenSourceNameConstant, "", flagTokenSourceUsageConstant)
	command.Flags().String(flagTrustBundleNameConstant, "", flagTrustBundleUsageConstant)
	command.Flags().String(flagFormatNameConstant, "", flagFormatUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command, arguments)

	service, serviceError := NewService(
		builder.resolveBuilderFactory(),
		builder.resolveStore(),
		command.OutOrStdout(),
		builder.resolveLogger(),
	)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) CommandOptions {
	configuration := builder.resolveConfiguration().sanitize()

	fromStateFlag, _ := command.Flags().GetString(flagFromStateNameConstant)
	apiRootFlag, _ := command.Flags().GetString(flagAPIRootNameConstant)
	dumpStateFlag, _ := command.Flags().GetString(flagDumpStateNameConstant)
	tokenSourceFlag, _ := command.Flags().GetString(flagTokenSourceNameConstant)
	trustBundleFlag, _ := command.Flags().GetString(flagTrustBundleNameConstant)
	formatFlag, _ := command.Flags().GetString(flagFormatNameConstant)

	options := CommandOptions{
		Namespace:       strings.TrimSpace(arguments[0]),
		APIRoot:         configuration.APIRoot,
		FromStatePath:   strings.TrimSpace(fromStateFlag),
		DumpStatePath:   strings.TrimSpace(dumpStateFlag),
		TokenSource:     configuration.TokenSource,
		TrustBundlePath: configuration.TrustBundlePath,
		Format:          ReportFormat(configuration.Format),
	}

	if command.Flags().Changed(flagAPIRootNameConstant) {
		options.APIRoot = strings.TrimSpace(apiRootFlag)
	}
	if command.Flags().Changed(flagTokenSourceNameConstant) {
		options.TokenSource = strings.TrimSpace(tokenSourceFlag)
	}
	if command.Flags().Changed(flagTrustBundleNameConstant) {
		options.TrustBundlePath = strings.TrimSpace(trustBundleFlag)
	}
	if command.Flags().Changed(flagFormatNameConstant) {
		options.Format = ReportFormat(strings.TrimSpace(formatFlag))
	}

	return options
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveStore() SnapshotStore {
	if builder.Store == nil {
		return snapshot.NewStore()
	}
	return builder.Store
}

func (builder *CommandBuilder) resolveBuilderFactory() BuilderFactory {
	if builder.BuilderFactory == nil {
		return builder.liveBuilderFactory
	}
	return builder.BuilderFactory
}

func (builder *CommandBuilder) liveBuilderFactory(options CommandOptions) (SnapshotBuilder, error) {
	token, tokenError := resolveConfiguredToken(options.TokenSource, builder.Environment)
	if tokenError != nil {
		return nil, tokenError
	}

	client, clientError := registry.NewClient(registry.Options{
		Endpoint:        options.APIRoot,
		Token:           token,
		TrustBundlePath: options.TrustBundlePath,
	})
	if clientError != nil {
		return nil, clientError
	}

	return snapshot.NewBuilder(client)
}

// resolveConfiguredToken resolves the bearer token for live requests. An
// explicit token source must resolve successfully; without one, absence of
// the conventional environment variables simply means unauthenticated
// requests.
func resolveConfiguredToken(tokenSourceValue string, environment map[string]string) (string, error) {
	if len(strings.TrimSpace(tokenSourceValue)) > 0 {
		tokenSource, parseError := registryauth.ParseTokenSource(tokenSourceValue)
		if parseError != nil {
			return "", parseError
		}
		return tokenSource.Resolve()
	}

	token, _ := registryauth.ResolveToken(environment)
	return token, nil
}
