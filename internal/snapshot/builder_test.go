package snapshot_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quaytools/quay-audit/internal/registry"
	"github.com/quaytools/quay-audit/internal/snapshot"
)

type stubRegistryClient struct {
	repositories    []registry.Repository
	listError       error
	userPermissions map[string][]registry.UserPermission
	teamPermissions map[string][]registry.TeamPermission
	userErrors      map[string]error
	teamErrors      map[string]error
	userDelays      map[string]time.Duration
}

func (client *stubRegistryClient) ListRepositories(executionContext context.Context, namespace string) ([]registry.Repository, error) {
	if client.listError != nil {
		return nil, client.listError
	}
	return client.repositories, nil
}

func (client *stubRegistryClient) GetUserPermissions(executionContext context.Context, repositorySpec string) ([]registry.UserPermission, error) {
	if delay, delayed := client.userDelays[repositorySpec]; delayed {
		time.Sleep(delay)
	}
	if fetchError, failing := client.userErrors[repositorySpec]; failing {
		return nil, fetchError
	}
	return client.userPermissions[repositorySpec], nil
}

func (client *stubRegistryClient) GetTeamPermissions(executionContext context.Context, repositorySpec string) ([]registry.TeamPermission, error) {
	if fetchError, failing := client.teamErrors[repositorySpec]; failing {
		return nil, fetchError
	}
	return client.teamPermissions[repositorySpec], nil
}

func makeTestRepository(name string) registry.Repository {
	description := fmt.Sprintf("%s image", name)
	return registry.Repository{
		Namespace:   "acme",
		Name:        name,
		Kind:        "image",
		IsPublic:    true,
		Description: &description,
	}
}

func makeTestUserPermission(name string, isOrgMember bool, isRobot bool) registry.UserPermission {
	return registry.UserPermission{
		Avatar:      registry.Avatar{Kind: registry.AvatarKindUser, Name: name},
		Name:        name,
		Role:        registry.RoleWrite,
		IsOrgMember: isOrgMember,
		IsRobot:     isRobot,
	}
}

func makeTestTeamPermission(name string) registry.TeamPermission {
	return registry.TeamPermission{
		Avatar: registry.Avatar{Kind: registry.AvatarKindTeam, Name: name},
		Name:   name,
		Role:   registry.RoleAdmin,
	}
}

func TestNewBuilderRequiresClient(testInstance *testing.T) {
	_, builderError := snapshot.NewBuilder(nil)
	require.ErrorIs(testInstance, builderError, snapshot.ErrClientNotConfigured)
}

func TestBuildPreservesRepositoryOrder(testInstance *testing.T) {
	repositories := []registry.Repository{
		makeTestRepository("alpha"),
		makeTestRepository("beta"),
		makeTestRepository("gamma"),
	}

	// Delays force completion order gamma, beta, alpha; the snapshot must
	// still follow the listing order.
	client := &stubRegistryClient{
		repositories: repositories,
		userPermissions: map[string][]registry.UserPermission{
			"acme/alpha": {makeTestUserPermission("alice", true, false)},
			"acme/beta":  {makeTestUserPermission("bob", false, false)},
			"acme/gamma": {makeTestUserPermission("carol", true, false)},
		},
		teamPermissions: map[string][]registry.TeamPermission{
			"acme/alpha": {makeTestTeamPermission("owners")},
			"acme/beta":  {},
			"acme/gamma": {},
		},
		userDelays: map[string]time.Duration{
			"acme/alpha": 30 * time.Millisecond,
			"acme/beta":  15 * time.Millisecond,
		},
	}

	builder, builderError := snapshot.NewBuilder(client)
	require.NoError(testInstance, builderError)

	builtSnapshot, buildError := builder.Build(context.Background(), "acme")
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, 3, builtSnapshot.Len())

	entries := builtSnapshot.Entries()
	require.Equal(testInstance, "acme/alpha", entries[0].Repository.Spec())
	require.Equal(testInstance, "acme/beta", entries[1].Repository.Spec())
	require.Equal(testInstance, "acme/gamma", entries[2].Repository.Spec())
	require.Equal(testInstance, "alice", entries[0].UserPermissions[0].Name)
	require.Equal(testInstance, "owners", entries[0].TeamPermissions[0].Name)
}

func TestBuildFailsFastWithoutPartialSnapshot(testInstance *testing.T) {
	teamFetchFailure := registry.ProtocolError{Operation: registry.GetTeamPermissionsOperation, Detail: "missing \"permissions\" key"}

	client := &stubRegistryClient{
		repositories: []registry.Repository{
			makeTestRepository("alpha"),
			makeTestRepository("beta"),
			makeTestRepository("gamma"),
		},
		userPermissions: map[string][]registry.UserPermission{},
		teamPermissions: map[string][]registry.TeamPermission{},
		teamErrors: map[string]error{
			"acme/beta": teamFetchFailure,
		},
	}

	builder, builderError := snapshot.NewBuilder(client)
	require.NoError(testInstance, builderError)

	builtSnapshot, buildError := builder.Build(context.Background(), "acme")
	require.Nil(testInstance, builtSnapshot)
	require.ErrorAs(testInstance, buildError, &registry.ProtocolError{})
	require.Equal(testInstance, teamFetchFailure.Error(), buildError.Error())
}

func TestBuildPropagatesListingFailure(testInstance *testing.T) {
	listFailure := registry.AuthError{Operation: registry.ListRepositoriesOperation, StatusCode: 401}
	client := &stubRegistryClient{listError: listFailure}

	builder, builderError := snapshot.NewBuilder(client)
	require.NoError(testInstance, builderError)

	builtSnapshot, buildError := builder.Build(context.Background(), "acme")
	require.Nil(testInstance, builtSnapshot)
	require.ErrorAs(testInstance, buildError, &registry.AuthError{})
}

func TestBuildEmptyNamespace(testInstance *testing.T) {
	client := &stubRegistryClient{}

	builder, builderError := snapshot.NewBuilder(client)
	require.NoError(testInstance, builderError)

	builtSnapshot, buildError := builder.Build(context.Background(), "acme")
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, 0, builtSnapshot.Len())
	require.Empty(testInstance, builtSnapshot.Entries())
}

func TestGetRepositoryPermissionsMergesBothSets(testInstance *testing.T) {
	repository := makeTestRepository("alpha")
	client := &stubRegistryClient{
		userPermissions: map[string][]registry.UserPermission{
			"acme/alpha": {makeTestUserPermission("alice", true, false), makeTestUserPermission("bob", false, false)},
		},
		teamPermissions: map[string][]registry.TeamPermission{
			"acme/alpha": {makeTestTeamPermission("owners")},
		},
	}

	repositoryPermissions, aggregationError := snapshot.GetRepositoryPermissions(context.Background(), client, repository)
	require.NoError(testInstance, aggregationError)
	require.True(testInstance, repositoryPermissions.Repository.Equal(repository))
	require.Len(testInstance, repositoryPermissions.UserPermissions, 2)
	require.Len(testInstance, repositoryPermissions.TeamPermissions, 1)
}

func TestGetRepositoryPermissionsIsAllOrNothing(testInstance *testing.T) {
	repository := makeTestRepository("alpha")
	userFetchFailure := registry.TransportError{Operation: registry.GetUserPermissionsOperation, Cause: context.DeadlineExceeded}

	client := &stubRegistryClient{
		userErrors: map[string]error{"acme/alpha": userFetchFailure},
		teamPermissions: map[string][]registry.TeamPermission{
			"acme/alpha": {makeTestTeamPermission("owners")},
		},
	}

	repositoryPermissions, aggregationError := snapshot.GetRepositoryPermissions(context.Background(), client, repository)
	require.ErrorAs(testInstance, aggregationError, &registry.TransportError{})
	require.Empty(testInstance, repositoryPermissions.UserPermissions)
	require.Empty(testInstance, repositoryPermissions.TeamPermissions)
}
