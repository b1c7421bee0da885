package registry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultEndpointConstant             = "https://quay.io/api/v1"
	defaultRequestTimeoutConstant       = 30 * time.Second
	authorizationHeaderNameConstant     = "Authorization"
	bearerTokenTemplateConstant         = "Bearer %s"
	endpointPathSeparatorConstant       = "/"
	repositoryListPathConstant          = "repository"
	namespaceQueryParameterConstant     = "namespace"
	userPermissionsPathTemplateConstant = "repository/%s/permissions/user/"
	teamPermissionsPathTemplateConstant = "repository/%s/permissions/team/"
	repositoriesEnvelopeKeyConstant     = "repositories"
	permissionsEnvelopeKeyConstant      = "permissions"
	missingEnvelopeKeyDetailTemplate    = "missing %q key"
	invalidEnvelopeValueDetailTemplate  = "invalid %q value"
	unexpectedStatusDetailTemplate      = "unexpected status %d"
	responseBodyDetailConstant          = "unable to read response body"
	namespaceFieldNameForInputConstant  = "namespace"
	repositorySpecFieldNameConstant     = "repository_spec"
	requiredValueMessageConstant        = "value required"
	trustBundleReadErrorTemplate        = "unable to read trust bundle %s: %w"
	trustBundleEmptyErrorTemplate       = "trust bundle %s contains no certificates"
)

// DefaultEndpoint is the public quay.io API root used when no override is
// configured.
const DefaultEndpoint = defaultEndpointConstant

// Options configures a registry client.
type Options struct {
	// Endpoint is the API root; DefaultEndpoint applies when empty.
	Endpoint string
	// Token is the bearer token; empty means unauthenticated requests with
	// reduced visibility.
	Token string
	// TrustBundlePath optionally points at a PEM bundle that replaces the
	// system certificate pool on the constructed transport.
	TrustBundlePath string
	// Timeout bounds each request; a default applies when zero.
	Timeout time.Duration
	// HTTPClient overrides the constructed client entirely when set;
	// TrustBundlePath and Timeout are ignored in that case.
	HTTPClient *http.Client
}

// Client issues authenticated read requests against the registry API. A
// client holds no mutable state and is safe for concurrent use.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient constructs a registry client from the provided options.
func NewClient(options Options) (*Client, error) {
	endpoint := strings.TrimSpace(options.Endpoint)
	if len(endpoint) == 0 {
		endpoint = defaultEndpointConstant
	}
	endpoint = strings.TrimRight(endpoint, endpointPathSeparatorConstant)

	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout == 0 {
			timeout = defaultRequestTimeoutConstant
		}

		httpClient = &http.Client{Timeout: timeout}

		trustBundlePath := strings.TrimSpace(options.TrustBundlePath)
		if len(trustBundlePath) > 0 {
			trustConfiguration, trustError := loadTrustConfiguration(trustBundlePath)
			if trustError != nil {
				return nil, trustError
			}
			httpClient.Transport = &http.Transport{TLSClientConfig: trustConfiguration}
		}
	}

	return &Client{
		endpoint:   endpoint,
		token:      strings.TrimSpace(options.Token),
		httpClient: httpClient,
	}, nil
}

// ListRepositories returns every repository the registry reports for the
// namespace. The first response page is treated as authoritative: pagination
// markers are ignored.
func (client *Client) ListRepositories(executionContext context.Context, namespace string) ([]Repository, error) {
	trimmedNamespace := strings.TrimSpace(namespace)
	if len(trimmedNamespace) == 0 {
		return nil, InvalidInputError{FieldName: namespaceFieldNameForInputConstant, Message: requiredValueMessageConstant}
	}

	queryValues := url.Values{}
	queryValues.Set(namespaceQueryParameterConstant, trimmedNamespace)

	responseBody, requestError := client.getJSON(executionContext, ListRepositoriesOperation, repositoryListPathConstant, queryValues)
	if requestError != nil {
		return nil, requestError
	}

	rawRepositories, envelopeError := decodeEnvelopeArray(ListRepositoriesOperation, responseBody, repositoriesEnvelopeKeyConstant)
	if envelopeError != nil {
		return nil, envelopeError
	}

	repositories := make([]Repository, 0, len(rawRepositories))
	for _, rawRepository := range rawRepositories {
		repository, decodeError := DecodeRepository(ListRepositoriesOperation, rawRepository)
		if decodeError != nil {
			return nil, decodeError
		}
		repositories = append(repositories, repository)
	}

	return repositories, nil
}

// GetUserPermissions returns the user grants for one repository spec in API
// response order.
func (client *Client) GetUserPermissions(executionContext context.Context, repositorySpec string) ([]UserPermission, error) {
	rawPermissions, fetchError := client.fetchPermissionValues(executionContext, GetUserPermissionsOperation, userPermissionsPathTemplateConstant, repositorySpec)
	if fetchError != nil {
		return nil, fetchError
	}

	permissions := make([]UserPermission, 0, len(rawPermissions))
	for _, rawPermission := range rawPermissions {
		permission, decodeError := DecodeUserPermission(GetUserPermissionsOperation, rawPermission)
		if decodeError != nil {
			return nil, decodeError
		}
		permissions = append(permissions, permission)
	}

	return permissions, nil
}

// GetTeamPermissions returns the team grants for one repository spec in API
// response order.
func (client *Client) GetTeamPermissions(executionContext context.Context, repositorySpec string) ([]TeamPermission, error) {
	rawPermissions, fetchError := client.fetchPermissionValues(executionContext, GetTeamPermissionsOperation, teamPermissionsPathTemplateConstant, repositorySpec)
	if fetchError != nil {
		return nil, fetchError
	}

	permissions := make([]TeamPermission, 0, len(rawPermissions))
	for _, rawPermission := range rawPermissions {
		permission, decodeError := DecodeTeamPermission(GetTeamPermissionsOperation, rawPermission)
		if decodeError != nil {
			return nil, decodeError
		}
		permissions = append(permissions, permission)
	}

	return permissions, nil
}

func (client *Client) fetchPermissionValues(executionContext context.Context, operation OperationName, pathTemplate string, repositorySpec string) ([]json.RawMessage, error) {
	trimmedSpec := strings.TrimSpace(repositorySpec)
	if len(trimmedSpec) == 0 {
		return nil, InvalidInputError{FieldName: repositorySpecFieldNameConstant, Message: requiredValueMessageConstant}
	}

	relativePath := fmt.Sprintf(pathTemplate, trimmedSpec)
	responseBody, requestError := client.getJSON(executionContext, operation, relativePath, nil)
	if requestError != nil {
		return nil, requestError
	}

	envelope, envelopeError := decodeFieldMap(operation, responseBody)
	if envelopeError != nil {
		return nil, envelopeError
	}

	rawObject, present := envelope[permissionsEnvelopeKeyConstant]
	if !present {
		return nil, ProtocolError{Operation: operation, Detail: fmt.Sprintf(missingEnvelopeKeyDetailTemplate, permissionsEnvelopeKeyConstant)}
	}

	return decodeObjectValues(operation, rawObject)
}

func (client *Client) getJSON(executionContext context.Context, operation OperationName, relativePath string, queryValues url.Values) (json.RawMessage, error) {
	requestURL := client.endpoint + endpointPathSeparatorConstant + relativePath
	if len(queryValues) > 0 {
		requestURL = requestURL + "?" + queryValues.Encode()
	}

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, TransportError{Operation: operation, Cause: requestError}
	}

	if len(client.token) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, client.token))
	}

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, TransportError{Operation: operation, Cause: responseError}
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return nil, AuthError{Operation: operation, StatusCode: response.StatusCode}
	case response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices:
		return nil, ProtocolError{Operation: operation, Detail: fmt.Sprintf(unexpectedStatusDetailTemplate, response.StatusCode)}
	}

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, TransportError{Operation: operation, Cause: readError}
	}

	return responseBody, nil
}

func decodeEnvelopeArray(operation OperationName, responseBody json.RawMessage, envelopeKey string) ([]json.RawMessage, error) {
	envelope, envelopeError := decodeFieldMap(operation, responseBody)
	if envelopeError != nil {
		return nil, envelopeError
	}

	rawArray, present := envelope[envelopeKey]
	if !present {
		return nil, ProtocolError{Operation: operation, Detail: fmt.Sprintf(missingEnvelopeKeyDetailTemplate, envelopeKey)}
	}

	var rawElements []json.RawMessage
	if unmarshalError := json.Unmarshal(rawArray, &rawElements); unmarshalError != nil {
		return nil, ProtocolError{Operation: operation, Detail: fmt.Sprintf(invalidEnvelopeValueDetailTemplate, envelopeKey), Cause: unmarshalError}
	}

	return rawElements, nil
}

func loadTrustConfiguration(trustBundlePath string) (*tls.Config, error) {
	bundleContents, readError := os.ReadFile(trustBundlePath)
	if readError != nil {
		return nil, fmt.Errorf(trustBundleReadErrorTemplate, trustBundlePath, readError)
	}

	certificatePool := x509.NewCertPool()
	if !certificatePool.AppendCertsFromPEM(bundleContents) {
		return nil, fmt.Errorf(trustBundleEmptyErrorTemplate, trustBundlePath)
	}

	return &tls.Config{RootCAs: certificatePool}, nil
}
