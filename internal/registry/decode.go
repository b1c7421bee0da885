package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	avatarFieldNameConstant       = "avatar"
	nameFieldNameConstant         = "name"
	roleFieldNameConstant         = "role"
	isOrgMemberFieldNameConstant  = "is_org_member"
	isRobotFieldNameConstant      = "is_robot"
	namespaceFieldNameConstant    = "namespace"
	kindFieldNameConstant         = "kind"
	isStarredFieldNameConstant    = "is_starred"
	isPublicFieldNameConstant     = "is_public"
	descriptionFieldNameConstant  = "description"
	colorFieldNameConstant        = "color"
	hashFieldNameConstant         = "hash"
	expectedObjectDetailConstant  = "expected a JSON object"
	missingFieldDetailTemplate    = "missing required field %q"
	unexpectedFieldDetailTemplate = "unexpected field %q"
	invalidFieldDetailTemplate    = "invalid value for field %q"
)

var repositoryFieldNames = []string{
	namespaceFieldNameConstant,
	nameFieldNameConstant,
	kindFieldNameConstant,
	isStarredFieldNameConstant,
	isPublicFieldNameConstant,
	descriptionFieldNameConstant,
}

var userPermissionFieldNames = []string{
	avatarFieldNameConstant,
	nameFieldNameConstant,
	roleFieldNameConstant,
	isOrgMemberFieldNameConstant,
	isRobotFieldNameConstant,
}

var teamPermissionFieldNames = []string{
	avatarFieldNameConstant,
	nameFieldNameConstant,
	roleFieldNameConstant,
}

var avatarFieldNames = []string{
	colorFieldNameConstant,
	hashFieldNameConstant,
	kindFieldNameConstant,
	nameFieldNameConstant,
}

// DecodeRepository parses one repository record, requiring exactly the
// documented field set.
func DecodeRepository(operation OperationName, payload json.RawMessage) (Repository, error) {
	fieldValues, mapError := decodeFieldMap(operation, payload)
	if mapError != nil {
		return Repository{}, mapError
	}
	if fieldsError := requireExactFields(operation, fieldValues, repositoryFieldNames); fieldsError != nil {
		return Repository{}, fieldsError
	}

	repository := Repository{}
	if unmarshalError := unmarshalField(operation, fieldValues, namespaceFieldNameConstant, &repository.Namespace); unmarshalError != nil {
		return Repository{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, nameFieldNameConstant, &repository.Name); unmarshalError != nil {
		return Repository{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, kindFieldNameConstant, &repository.Kind); unmarshalError != nil {
		return Repository{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, isStarredFieldNameConstant, &repository.IsStarred); unmarshalError != nil {
		return Repository{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, isPublicFieldNameConstant, &repository.IsPublic); unmarshalError != nil {
		return Repository{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, descriptionFieldNameConstant, &repository.Description); unmarshalError != nil {
		return Repository{}, unmarshalError
	}

	return repository, nil
}

// DecodeUserPermission parses one user permission record, requiring exactly
// the documented field set.
func DecodeUserPermission(operation OperationName, payload json.RawMessage) (UserPermission, error) {
	fieldValues, mapError := decodeFieldMap(operation, payload)
	if mapError != nil {
		return UserPermission{}, mapError
	}
	if fieldsError := requireExactFields(operation, fieldValues, userPermissionFieldNames); fieldsError != nil {
		return UserPermission{}, fieldsError
	}

	avatar, avatarError := decodeAvatar(operation, fieldValues[avatarFieldNameConstant])
	if avatarError != nil {
		return UserPermission{}, avatarError
	}

	permission := UserPermission{Avatar: avatar}
	if unmarshalError := unmarshalField(operation, fieldValues, nameFieldNameConstant, &permission.Name); unmarshalError != nil {
		return UserPermission{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, roleFieldNameConstant, &permission.Role); unmarshalError != nil {
		return UserPermission{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, isOrgMemberFieldNameConstant, &permission.IsOrgMember); unmarshalError != nil {
		return UserPermission{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, isRobotFieldNameConstant, &permission.IsRobot); unmarshalError != nil {
		return UserPermission{}, unmarshalError
	}

	return permission, nil
}

// DecodeTeamPermission parses one team permission record, requiring exactly
// the documented field set.
func DecodeTeamPermission(operation OperationName, payload json.RawMessage) (TeamPermission, error) {
	fieldValues, mapError := decodeFieldMap(operation, payload)
	if mapError != nil {
		return TeamPermission{}, mapError
	}
	if fieldsError := requireExactFields(operation, fieldValues, teamPermissionFieldNames); fieldsError != nil {
		return TeamPermission{}, fieldsError
	}

	avatar, avatarError := decodeAvatar(operation, fieldValues[avatarFieldNameConstant])
	if avatarError != nil {
		return TeamPermission{}, avatarError
	}

	permission := TeamPermission{Avatar: avatar}
	if unmarshalError := unmarshalField(operation, fieldValues, nameFieldNameConstant, &permission.Name); unmarshalError != nil {
		return TeamPermission{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, roleFieldNameConstant, &permission.Role); unmarshalError != nil {
		return TeamPermission{}, unmarshalError
	}

	return permission, nil
}

func decodeAvatar(operation OperationName, payload json.RawMessage) (Avatar, error) {
	fieldValues, mapError := decodeFieldMap(operation, payload)
	if mapError != nil {
		return Avatar{}, mapError
	}
	if fieldsError := requireExactFields(operation, fieldValues, avatarFieldNames); fieldsError != nil {
		return Avatar{}, fieldsError
	}

	avatar := Avatar{}
	if unmarshalError := unmarshalField(operation, fieldValues, colorFieldNameConstant, &avatar.Color); unmarshalError != nil {
		return Avatar{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, hashFieldNameConstant, &avatar.Hash); unmarshalError != nil {
		return Avatar{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, kindFieldNameConstant, &avatar.Kind); unmarshalError != nil {
		return Avatar{}, unmarshalError
	}
	if unmarshalError := unmarshalField(operation, fieldValues, nameFieldNameConstant, &avatar.Name); unmarshalError != nil {
		return Avatar{}, unmarshalError
	}

	return avatar, nil
}

func decodeFieldMap(operation OperationName, payload json.RawMessage) (map[string]json.RawMessage, error) {
	fieldValues := map[string]json.RawMessage{}
	if unmarshalError := json.Unmarshal(payload, &fieldValues); unmarshalError != nil {
		return nil, ProtocolError{Operation: operation, Detail: expectedObjectDetailConstant, Cause: unmarshalError}
	}
	return fieldValues, nil
}

func requireExactFields(operation OperationName, fieldValues map[string]json.RawMessage, fieldNames []string) error {
	expectedFields := map[string]struct{}{}
	for _, fieldName := range fieldNames {
		expectedFields[fieldName] = struct{}{}
		if _, present := fieldValues[fieldName]; !present {
			return ProtocolError{Operation: operation, Detail: fmt.Sprintf(missingFieldDetailTemplate, fieldName)}
		}
	}

	for fieldName := range fieldValues {
		if _, expected := expectedFields[fieldName]; !expected {
			return ProtocolError{Operation: operation, Detail: fmt.Sprintf(unexpectedFieldDetailTemplate, fieldName)}
		}
	}

	return nil
}

func unmarshalField(operation OperationName, fieldValues map[string]json.RawMessage, fieldName string, target any) error {
	if unmarshalError := json.Unmarshal(fieldValues[fieldName], target); unmarshalError != nil {
		return ProtocolError{Operation: operation, Detail: fmt.Sprintf(invalidFieldDetailTemplate, fieldName), Cause: unmarshalError}
	}
	return nil
}

// decodeObjectValues iterates a JSON object and returns its raw values in
// document order. Keys are discarded: the registry duplicates each identity
// name as both map key and record field.
func decodeObjectValues(operation OperationName, payload json.RawMessage) ([]json.RawMessage, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))

	openingToken, openingError := decoder.Token()
	if openingError != nil {
		return nil, ProtocolError{Operation: operation, Detail: expectedObjectDetailConstant, Cause: openingError}
	}
	if delimiter, isDelimiter := openingToken.(json.Delim); !isDelimiter || delimiter != '{' {
		return nil, ProtocolError{Operation: operation, Detail: expectedObjectDetailConstant}
	}

	values := []json.RawMessage{}
	for decoder.More() {
		if _, keyError := decoder.Token(); keyError != nil {
			return nil, ProtocolError{Operation: operation, Detail: expectedObjectDetailConstant, Cause: keyError}
		}

		var value json.RawMessage
		if valueError := decoder.Decode(&value); valueError != nil {
			return nil, ProtocolError{Operation: operation, Detail: expectedObjectDetailConstant, Cause: valueError}
		}
		values = append(values, value)
	}

	return values, nil
}
