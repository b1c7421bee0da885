package snapshot_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quaytools/quay-audit/internal/registry"
	"github.com/quaytools/quay-audit/internal/snapshot"
)

func makeStateEntry(repositoryName string, userPermissions []registry.UserPermission, teamPermissions []registry.TeamPermission) snapshot.RepositoryPermissions {
	return snapshot.RepositoryPermissions{
		Repository:      makeTestRepository(repositoryName),
		UserPermissions: userPermissions,
		TeamPermissions: teamPermissions,
	}
}

func TestStoreRoundTrip(testInstance *testing.T) {
	testCases := []struct {
		name    string
		entries []snapshot.RepositoryPermissions
	}{
		{
			name:    "empty_snapshot",
			entries: []snapshot.RepositoryPermissions{},
		},
		{
			name: "single_repository_empty_permissions",
			entries: []snapshot.RepositoryPermissions{
				makeStateEntry("alpha", []registry.UserPermission{}, []registry.TeamPermission{}),
			},
		},
		{
			name: "multiple_repositories_mixed_permissions",
			entries: []snapshot.RepositoryPermissions{
				makeStateEntry("alpha",
					[]registry.UserPermission{
						makeTestUserPermission("alice", true, false),
						makeTestUserPermission("acme+ci", false, true),
					},
					[]registry.TeamPermission{makeTestTeamPermission("owners")},
				),
				makeStateEntry("beta", []registry.UserPermission{}, []registry.TeamPermission{}),
				makeStateEntry("gamma",
					[]registry.UserPermission{makeTestUserPermission("bob", false, false)},
					[]registry.TeamPermission{
						makeTestTeamPermission("owners"),
						makeTestTeamPermission("readers"),
					},
				),
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			statePath := filepath.Join(subtestInstance.TempDir(), "registry.state")
			store := snapshot.NewStore()

			originalSnapshot := snapshot.NewSnapshot(testCase.entries)
			require.NoError(subtestInstance, store.Save(originalSnapshot, statePath))

			loadedSnapshot, loadError := store.Load(statePath)
			require.NoError(subtestInstance, loadError)
			require.Equal(subtestInstance, originalSnapshot.Entries(), loadedSnapshot.Entries())
		})
	}
}

func TestStoreSaveOverwritesExistingFile(testInstance *testing.T) {
	statePath := filepath.Join(testInstance.TempDir(), "registry.state")
	require.NoError(testInstance, os.WriteFile(statePath, []byte("stale contents"), 0o644))

	store := snapshot.NewStore()
	require.NoError(testInstance, store.Save(snapshot.NewSnapshot(nil), statePath))

	loadedSnapshot, loadError := store.Load(statePath)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 0, loadedSnapshot.Len())
}

func TestStoreLoadFailures(testInstance *testing.T) {
	validEntryTemplate := `{"repository": {"namespace": "acme", "name": "app", "kind": "image", "is_starred": false, "is_public": true, "description": null}, "user_permissions": [], "team_permissions": []}`

	testCases := []struct {
		name          string
		stateContents string
		expectedError any
	}{
		{
			name:          "top_level_not_an_array",
			stateContents: `{"repositories": []}`,
			expectedError: &registry.ProtocolError{},
		},
		{
			name:          "entry_missing_team_permissions",
			stateContents: `[{"repository": {"namespace": "acme", "name": "app", "kind": "image", "is_starred": false, "is_public": true, "description": null}, "user_permissions": []}]`,
			expectedError: &registry.ProtocolError{},
		},
		{
			name:          "entry_with_unexpected_field",
			stateContents: `[` + validEntryTemplate[:len(validEntryTemplate)-1] + `, "checksum": "abc"}]`,
			expectedError: &registry.ProtocolError{},
		},
		{
			name:          "permission_with_wrong_type",
			stateContents: `[{"repository": {"namespace": "acme", "name": "app", "kind": "image", "is_starred": false, "is_public": true, "description": null}, "user_permissions": [{"avatar": {"color": "", "hash": "", "kind": "user", "name": "alice"}, "name": "alice", "role": "admin", "is_org_member": "yes", "is_robot": false}], "team_permissions": []}]`,
			expectedError: &registry.ProtocolError{},
		},
		{
			name:          "repository_missing_field",
			stateContents: `[{"repository": {"namespace": "acme", "name": "app"}, "user_permissions": [], "team_permissions": []}]`,
			expectedError: &registry.ProtocolError{},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			statePath := filepath.Join(subtestInstance.TempDir(), "registry.state")
			require.NoError(subtestInstance, os.WriteFile(statePath, []byte(testCase.stateContents), 0o644))

			store := snapshot.NewStore()
			loadedSnapshot, loadError := store.Load(statePath)
			require.Nil(subtestInstance, loadedSnapshot)
			require.ErrorAs(subtestInstance, loadError, testCase.expectedError)
		})
	}
}

func TestStoreLoadMissingFileIsIOError(testInstance *testing.T) {
	store := snapshot.NewStore()

	loadedSnapshot, loadError := store.Load(filepath.Join(testInstance.TempDir(), "absent.state"))
	require.Nil(testInstance, loadedSnapshot)

	ioError := &snapshot.IOError{}
	require.ErrorAs(testInstance, loadError, ioError)
	require.Equal(testInstance, snapshot.LoadStateOperation, ioError.Operation)
}

func TestStoreSaveToUnwritablePathIsIOError(testInstance *testing.T) {
	store := snapshot.NewStore()

	saveError := store.Save(snapshot.NewSnapshot(nil), filepath.Join(testInstance.TempDir(), "missing", "registry.state"))
	require.ErrorAs(testInstance, saveError, &snapshot.IOError{})
}
