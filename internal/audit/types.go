package audit

// ReportFormat enumerates the supported report renderings.
type ReportFormat string

// Report format values accepted by the audit command.
const (
	ReportFormatText  ReportFormat = "text"
	ReportFormatTable ReportFormat = "table"
)

// CommandOptions captures the configurable parameters for one audit run.
type CommandOptions struct {
	// Namespace is the organization or user scope whose repositories are
	// audited.
	Namespace string
	// APIRoot overrides the registry API endpoint; ignored when
	// FromStatePath is set.
	APIRoot string
	// FromStatePath replays a previously persisted snapshot instead of
	// querying the live API.
	FromStatePath string
	// DumpStatePath persists the snapshot after building or loading it.
	DumpStatePath string
	// TokenSource declares where the bearer token comes from ("env:NAME" or
	// "file:PATH"); when empty the conventional environment variables are
	// consulted and absence means unauthenticated requests.
	TokenSource string
	// TrustBundlePath points at a PEM CA bundle for the API transport.
	TrustBundlePath string
	// Format selects the report rendering.
	Format ReportFormat
}
