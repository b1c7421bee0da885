package registryauth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	tokenSourceSeparatorConstant            = ":"
	environmentTokenSourceTypeValueConstant = "env"
	fileTokenSourceTypeValueConstant        = "file"
	tokenSourceMissingErrorMessageConstant  = "token source must be provided"
	tokenSourceReferenceMissingTemplate     = "%s token source requires a reference"
	environmentTokenMissingTemplateConstant = "environment variable %s is not set"
	fileReadErrorTemplateConstant           = "unable to read token file %s: %w"
	fileTokenEmptyErrorTemplateConstant     = "token file %s is empty"
	unsupportedTokenSourceTemplateConstant  = "unsupported token source type %q"
)

// TokenSourceType enumerates the supported token retrieval mechanisms.
type TokenSourceType string

// Token source type enumerations.
const (
	TokenSourceTypeEnvironment TokenSourceType = TokenSourceType(environmentTokenSourceTypeValueConstant)
	TokenSourceTypeFile        TokenSourceType = TokenSourceType(fileTokenSourceTypeValueConstant)
)

// TokenSource locates a registry credential declared as "env:NAME" or
// "file:PATH". A bare name is treated as an environment variable reference.
type TokenSource struct {
	Type      TokenSourceType
	Reference string
}

// ParseTokenSource interprets a textual token source declaration.
func ParseTokenSource(sourceValue string) (TokenSource, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return TokenSource{}, errors.New(tokenSourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return TokenSource{Type: TokenSourceTypeEnvironment, Reference: trimmedValue}, nil
	}

	sourceType := TokenSourceType(strings.ToLower(strings.TrimSpace(components[0])))
	reference := strings.TrimSpace(components[1])

	switch sourceType {
	case TokenSourceTypeEnvironment, TokenSourceTypeFile:
		if len(reference) == 0 {
			return TokenSource{}, fmt.Errorf(tokenSourceReferenceMissingTemplate, sourceType)
		}
		return TokenSource{Type: sourceType, Reference: reference}, nil
	default:
		return TokenSource{}, fmt.Errorf(unsupportedTokenSourceTemplateConstant, sourceType)
	}
}

// Resolve retrieves the token the source points at. Environment lookups and
// file reads go through the process environment and file system; tests
// substitute them via ResolveWith.
func (source TokenSource) Resolve() (string, error) {
	return source.ResolveWith(os.LookupEnv, os.ReadFile)
}

// ResolveWith retrieves the token using the provided lookup and reader.
func (source TokenSource) ResolveWith(environmentLookup func(key string) (string, bool), fileReader func(path string) ([]byte, error)) (string, error) {
	switch source.Type {
	case TokenSourceTypeEnvironment:
		value, found := environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceTypeFile:
		contents, readError := fileReader(source.Reference)
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(fileTokenEmptyErrorTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	default:
		return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Type)
	}
}
