package registry

import "fmt"

const (
	transportErrorTemplateConstant    = "%s request failed: %s"
	authErrorTemplateConstant         = "%s rejected with status %d: check registry credentials"
	protocolErrorTemplateConstant     = "%s returned an unexpected response: %s"
	protocolErrorCauseTemplate        = "%s returned an unexpected response: %s: %s"
	invalidInputErrorTemplateConstant = "%s: %s"
)

// OperationName identifies the registry or persistence operation an error
// originated from.
type OperationName string

// Operation names used by the registry client.
const (
	ListRepositoriesOperation   OperationName = OperationName("ListRepositories")
	GetUserPermissionsOperation OperationName = OperationName("GetUserPermissions")
	GetTeamPermissionsOperation OperationName = OperationName("GetTeamPermissions")
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// TransportError reports a network or TLS level failure before any usable
// response was obtained.
type TransportError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Operation, transportError.Cause)
}

// Unwrap exposes the underlying transport cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// AuthError reports a 401 or 403 response from the registry.
type AuthError struct {
	Operation  OperationName
	StatusCode int
}

// Error describes the authorization failure.
func (authError AuthError) Error() string {
	return fmt.Sprintf(authErrorTemplateConstant, authError.Operation, authError.StatusCode)
}

// ProtocolError reports a response or persisted payload whose shape does not
// match the documented schema.
type ProtocolError struct {
	Operation OperationName
	Detail    string
	Cause     error
}

// Error describes the schema mismatch.
func (protocolError ProtocolError) Error() string {
	if protocolError.Cause == nil {
		return fmt.Sprintf(protocolErrorTemplateConstant, protocolError.Operation, protocolError.Detail)
	}
	return fmt.Sprintf(protocolErrorCauseTemplate, protocolError.Operation, protocolError.Detail, protocolError.Cause)
}

// Unwrap exposes the underlying decode cause when one exists.
func (protocolError ProtocolError) Unwrap() error {
	return protocolError.Cause
}
