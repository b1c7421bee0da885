package audit

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/quaytools/quay-audit/internal/snapshot"
)

const (
	externalAccessDetectedMessageConstant   = "external access detected"
	builderFactoryMissingMessageConstant    = "snapshot builder factory not configured"
	storeMissingMessageConstant             = "snapshot store not configured"
	namespaceMissingMessageConstant         = "namespace must be provided"
	stateLoadedLogMessageConstant           = "snapshot loaded from state file"
	snapshotBuiltLogMessageConstant         = "snapshot built from registry"
	statePersistedLogMessageConstant        = "snapshot persisted to state file"
	analysisCompletedLogMessageConstant     = "external access analysis completed"
	logFieldNamespaceConstant               = "namespace"
	logFieldStatePathConstant               = "state_path"
	logFieldRepositoryCountConstant         = "repository_count"
	logFieldExternalRepositoryCountConstant = "external_repository_count"
)

// ErrExternalAccessDetected signals that at least one repository is
// accessible by users outside the owning organization. It is returned after
// the report has been written so the process can exit non-zero.
var ErrExternalAccessDetected = errors.New(externalAccessDetectedMessageConstant)

// SnapshotBuilder produces a live snapshot for one namespace.
type SnapshotBuilder interface {
	Build(executionContext context.Context, namespace string) (*snapshot.Snapshot, error)
}

// SnapshotStore persists and restores snapshots.
type SnapshotStore interface {
	Save(snapshotToPersist *snapshot.Snapshot, path string) error
	Load(path string) (*snapshot.Snapshot, error)
}

// BuilderFactory constructs the snapshot builder for one run. It is invoked
// only when the snapshot is built live, so credential resolution and client
// construction are skipped entirely during state-file replay.
type BuilderFactory func(options CommandOptions) (SnapshotBuilder, error)

// Service coordinates snapshot acquisition, persistence, analysis, and
// reporting for the audit command.
type Service struct {
	builderFactory BuilderFactory
	store          SnapshotStore
	outputWriter   io.Writer
	logger         *zap.Logger
}

// NewService constructs a Service using the provided dependencies.
func NewService(builderFactory BuilderFactory, store SnapshotStore, outputWriter io.Writer, logger *zap.Logger) (*Service, error) {
	if builderFactory == nil {
		return nil, errors.New(builderFactoryMissingMessageConstant)
	}
	if store == nil {
		return nil, errors.New(storeMissingMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		builderFactory: builderFactory,
		store:          store,
		outputWriter:   outputWriter,
		logger:         logger,
	}, nil
}

// Run executes one audit. The snapshot comes from the state file when
// FromStatePath is set and from the live registry otherwise; it is then
// optionally persisted, always analyzed, and the findings are written to the
// output writer. ErrExternalAccessDetected is returned when the report is
// non-empty.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	auditedSnapshot, acquisitionError := service.acquireSnapshot(executionContext, options)
	if acquisitionError != nil {
		return acquisitionError
	}

	externalAccesses := snapshot.FindExternal(auditedSnapshot)
	service.logger.Info(
		analysisCompletedLogMessageConstant,
		zap.String(logFieldNamespaceConstant, options.Namespace),
		zap.Int(logFieldRepositoryCountConstant, auditedSnapshot.Len()),
		zap.Int(logFieldExternalRepositoryCountConstant, len(externalAccesses)),
	)

	if renderError := renderReport(service.outputWriter, options.Format, externalAccesses); renderError != nil {
		return renderError
	}

	if len(options.DumpStatePath) > 0 {
		if saveError := service.store.Save(auditedSnapshot, options.DumpStatePath); saveError != nil {
			return saveError
		}
		service.logger.Info(
			statePersistedLogMessageConstant,
			zap.String(logFieldStatePathConstant, options.DumpStatePath),
			zap.Int(logFieldRepositoryCountConstant, auditedSnapshot.Len()),
		)
	}

	if len(externalAccesses) > 0 {
		return ErrExternalAccessDetected
	}

	return nil
}

func (service *Service) acquireSnapshot(executionContext context.Context, options CommandOptions) (*snapshot.Snapshot, error) {
	if len(options.FromStatePath) > 0 {
		loadedSnapshot, loadError := service.store.Load(options.FromStatePath)
		if loadError != nil {
			return nil, loadError
		}
		service.logger.Info(
			stateLoadedLogMessageConstant,
			zap.String(logFieldStatePathConstant, options.FromStatePath),
			zap.Int(logFieldRepositoryCountConstant, loadedSnapshot.Len()),
		)
		return loadedSnapshot, nil
	}

	if len(strings.TrimSpace(options.Namespace)) == 0 {
		return nil, errors.New(namespaceMissingMessageConstant)
	}

	builder, builderError := service.builderFactory(options)
	if builderError != nil {
		return nil, builderError
	}

	builtSnapshot, buildError := builder.Build(executionContext, options.Namespace)
	if buildError != nil {
		return nil, buildError
	}
	service.logger.Info(
		snapshotBuiltLogMessageConstant,
		zap.String(logFieldNamespaceConstant, options.Namespace),
		zap.Int(logFieldRepositoryCountConstant, builtSnapshot.Len()),
	)
	return builtSnapshot, nil
}
