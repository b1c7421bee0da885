package snapshot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/quaytools/quay-audit/internal/registry"
)

// PermissionFetcher is the subset of the registry client the aggregator
// needs. Implementations must be safe for concurrent use.
type PermissionFetcher interface {
	GetUserPermissions(executionContext context.Context, repositorySpec string) ([]registry.UserPermission, error)
	GetTeamPermissions(executionContext context.Context, repositorySpec string) ([]registry.TeamPermission, error)
}

// RegistryClient is the full read surface the builder needs.
type RegistryClient interface {
	PermissionFetcher
	ListRepositories(executionContext context.Context, namespace string) ([]registry.Repository, error)
}

// GetRepositoryPermissions fetches the user and team grants for one
// repository concurrently and merges them into a single record. Both fetches
// must succeed: on any failure the first error is returned and no partial
// record is produced. The sibling fetch is not forcibly cancelled, only its
// result is discarded, though it observes the group context and may abort
// early.
func GetRepositoryPermissions(executionContext context.Context, fetcher PermissionFetcher, repository registry.Repository) (RepositoryPermissions, error) {
	repositorySpec := repository.Spec()

	var userPermissions []registry.UserPermission
	var teamPermissions []registry.TeamPermission

	fetchGroup, groupContext := errgroup.WithContext(executionContext)
	fetchGroup.Go(func() error {
		fetchedPermissions, fetchError := fetcher.GetUserPermissions(groupContext, repositorySpec)
		if fetchError != nil {
			return fetchError
		}
		userPermissions = fetchedPermissions
		return nil
	})
	fetchGroup.Go(func() error {
		fetchedPermissions, fetchError := fetcher.GetTeamPermissions(groupContext, repositorySpec)
		if fetchError != nil {
			return fetchError
		}
		teamPermissions = fetchedPermissions
		return nil
	})

	if waitError := fetchGroup.Wait(); waitError != nil {
		return RepositoryPermissions{}, waitError
	}

	return RepositoryPermissions{
		Repository:      repository,
		UserPermissions: userPermissions,
		TeamPermissions: teamPermissions,
	}, nil
}
