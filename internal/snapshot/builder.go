package snapshot

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

const (
	clientNotConfiguredMessageConstant = "registry client not configured"
)

// ErrClientNotConfigured indicates the builder was constructed without a
// registry client.
var ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)

// Builder assembles namespace snapshots from a live registry client.
type Builder struct {
	client RegistryClient
}

// NewBuilder constructs a snapshot builder.
func NewBuilder(client RegistryClient) (*Builder, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	return &Builder{client: client}, nil
}

// Build lists every repository in the namespace and aggregates both
// permission sets per repository concurrently. Every per-repository fetch is
// launched before any is awaited; no concurrency bound is imposed. The
// resulting snapshot preserves the repository order returned by the listing
// regardless of fetch completion order. Any single failure aborts the whole
// build with that error and no snapshot is produced; in-flight sibling
// fetches are discarded rather than forcibly cancelled.
func (builder *Builder) Build(executionContext context.Context, namespace string) (*Snapshot, error) {
	repositories, listError := builder.client.ListRepositories(executionContext, namespace)
	if listError != nil {
		return nil, listError
	}

	collectedEntries := make([]RepositoryPermissions, len(repositories))

	fetchGroup, groupContext := errgroup.WithContext(executionContext)
	for repositoryIndex, repository := range repositories {
		fetchGroup.Go(func() error {
			repositoryPermissions, aggregationError := GetRepositoryPermissions(groupContext, builder.client, repository)
			if aggregationError != nil {
				return aggregationError
			}
			collectedEntries[repositoryIndex] = repositoryPermissions
			return nil
		})
	}

	if waitError := fetchGroup.Wait(); waitError != nil {
		return nil, waitError
	}

	return NewSnapshot(collectedEntries), nil
}
