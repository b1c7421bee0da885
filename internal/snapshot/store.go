package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quaytools/quay-audit/internal/registry"
)

const (
	stateFileModeConstant           = 0o644
	repositoryEntryKeyConstant      = "repository"
	userPermissionsEntryKeyConstant = "user_permissions"
	teamPermissionsEntryKeyConstant = "team_permissions"
	ioErrorTemplateConstant         = "%s %s failed: %s"
	encodeStateDetailConstant       = "unable to encode state"
	expectedArrayDetailConstant     = "expected a JSON array"
	expectedObjectEntryDetailFormat = "entry %d: expected a JSON object"
	missingEntryFieldDetailTemplate = "entry %d: missing required field %q"
	unexpectedEntryFieldDetailForm  = "entry %d: unexpected field %q"
	invalidEntryFieldDetailTemplate = "entry %d: invalid value for field %q"
)

// Operation names used by snapshot persistence.
const (
	SaveStateOperation registry.OperationName = registry.OperationName("SaveState")
	LoadStateOperation registry.OperationName = registry.OperationName("LoadState")
)

// IOError reports a state-file read or write failure.
type IOError struct {
	Path      string
	Operation registry.OperationName
	Cause     error
}

// Error describes the file failure.
func (ioError IOError) Error() string {
	return fmt.Sprintf(ioErrorTemplateConstant, ioError.Operation, ioError.Path, ioError.Cause)
}

// Unwrap exposes the underlying file system error.
func (ioError IOError) Unwrap() error {
	return ioError.Cause
}

type stateEntryPayload struct {
	Repository      registry.Repository       `json:"repository"`
	UserPermissions []registry.UserPermission `json:"user_permissions"`
	TeamPermissions []registry.TeamPermission `json:"team_permissions"`
}

// Store serializes snapshots to and from the JSON state-file format.
type Store struct{}

// NewStore constructs a snapshot store.
func NewStore() *Store {
	return &Store{}
}

// Save writes the snapshot to path as a single JSON array, one element per
// repository in snapshot order, overwriting any existing file. The write is
// not atomic: a failure may leave a partial file behind.
func (store *Store) Save(snapshotToPersist *Snapshot, path string) error {
	entries := snapshotToPersist.Entries()
	payload := make([]stateEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, stateEntryPayload{
			Repository:      entry.Repository,
			UserPermissions: normalizeUserPermissions(entry.UserPermissions),
			TeamPermissions: normalizeTeamPermissions(entry.TeamPermissions),
		})
	}

	encodedState, encodeError := json.Marshal(payload)
	if encodeError != nil {
		return registry.ProtocolError{Operation: SaveStateOperation, Detail: encodeStateDetailConstant, Cause: encodeError}
	}

	if writeError := os.WriteFile(path, encodedState, stateFileModeConstant); writeError != nil {
		return IOError{Path: path, Operation: SaveStateOperation, Cause: writeError}
	}

	return nil
}

// Load reads and strictly decodes a state file previously produced by Save.
// The loaded snapshot is structurally indistinguishable from one built live
// against the same data, including repository order.
func (store *Store) Load(path string) (*Snapshot, error) {
	stateContents, readError := os.ReadFile(path)
	if readError != nil {
		return nil, IOError{Path: path, Operation: LoadStateOperation, Cause: readError}
	}

	var rawEntries []json.RawMessage
	if unmarshalError := json.Unmarshal(stateContents, &rawEntries); unmarshalError != nil {
		return nil, registry.ProtocolError{Operation: LoadStateOperation, Detail: expectedArrayDetailConstant, Cause: unmarshalError}
	}

	entries := make([]RepositoryPermissions, 0, len(rawEntries))
	for entryIndex, rawEntry := range rawEntries {
		entry, decodeError := decodeStateEntry(entryIndex, rawEntry)
		if decodeError != nil {
			return nil, decodeError
		}
		entries = append(entries, entry)
	}

	return NewSnapshot(entries), nil
}

var stateEntryFieldNames = []string{
	repositoryEntryKeyConstant,
	userPermissionsEntryKeyConstant,
	teamPermissionsEntryKeyConstant,
}

func decodeStateEntry(entryIndex int, rawEntry json.RawMessage) (RepositoryPermissions, error) {
	fieldValues := map[string]json.RawMessage{}
	if unmarshalError := json.Unmarshal(rawEntry, &fieldValues); unmarshalError != nil {
		return RepositoryPermissions{}, registry.ProtocolError{
			Operation: LoadStateOperation,
			Detail:    fmt.Sprintf(expectedObjectEntryDetailFormat, entryIndex),
			Cause:     unmarshalError,
		}
	}

	expectedFields := map[string]struct{}{}
	for _, fieldName := range stateEntryFieldNames {
		expectedFields[fieldName] = struct{}{}
		if _, present := fieldValues[fieldName]; !present {
			return RepositoryPermissions{}, registry.ProtocolError{
				Operation: LoadStateOperation,
				Detail:    fmt.Sprintf(missingEntryFieldDetailTemplate, entryIndex, fieldName),
			}
		}
	}
	for fieldName := range fieldValues {
		if _, expected := expectedFields[fieldName]; !expected {
			return RepositoryPermissions{}, registry.ProtocolError{
				Operation: LoadStateOperation,
				Detail:    fmt.Sprintf(unexpectedEntryFieldDetailForm, entryIndex, fieldName),
			}
		}
	}

	repository, repositoryError := registry.DecodeRepository(LoadStateOperation, fieldValues[repositoryEntryKeyConstant])
	if repositoryError != nil {
		return RepositoryPermissions{}, repositoryError
	}

	rawUserPermissions, userArrayError := decodeEntryArray(entryIndex, fieldValues, userPermissionsEntryKeyConstant)
	if userArrayError != nil {
		return RepositoryPermissions{}, userArrayError
	}
	userPermissions := make([]registry.UserPermission, 0, len(rawUserPermissions))
	for _, rawPermission := range rawUserPermissions {
		permission, decodeError := registry.DecodeUserPermission(LoadStateOperation, rawPermission)
		if decodeError != nil {
			return RepositoryPermissions{}, decodeError
		}
		userPermissions = append(userPermissions, permission)
	}

	rawTeamPermissions, teamArrayError := decodeEntryArray(entryIndex, fieldValues, teamPermissionsEntryKeyConstant)
	if teamArrayError != nil {
		return RepositoryPermissions{}, teamArrayError
	}
	teamPermissions := make([]registry.TeamPermission, 0, len(rawTeamPermissions))
	for _, rawPermission := range rawTeamPermissions {
		permission, decodeError := registry.DecodeTeamPermission(LoadStateOperation, rawPermission)
		if decodeError != nil {
			return RepositoryPermissions{}, decodeError
		}
		teamPermissions = append(teamPermissions, permission)
	}

	return RepositoryPermissions{
		Repository:      repository,
		UserPermissions: userPermissions,
		TeamPermissions: teamPermissions,
	}, nil
}

func decodeEntryArray(entryIndex int, fieldValues map[string]json.RawMessage, fieldName string) ([]json.RawMessage, error) {
	var rawElements []json.RawMessage
	if unmarshalError := json.Unmarshal(fieldValues[fieldName], &rawElements); unmarshalError != nil {
		return nil, registry.ProtocolError{
			Operation: LoadStateOperation,
			Detail:    fmt.Sprintf(invalidEntryFieldDetailTemplate, entryIndex, fieldName),
			Cause:     unmarshalError,
		}
	}
	return rawElements, nil
}

func normalizeUserPermissions(permissions []registry.UserPermission) []registry.UserPermission {
	if permissions == nil {
		return []registry.UserPermission{}
	}
	return permissions
}

func normalizeTeamPermissions(permissions []registry.TeamPermission) []registry.TeamPermission {
	if permissions == nil {
		return []registry.TeamPermission{}
	}
	return permissions
}
