package registryauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for the registry bearer token.
const (
	EnvQuayToken    = "QUAY_TOKEN"
	EnvQuayAPIToken = "QUAY_API_TOKEN"
)

var tokenPreference = []string{
	EnvQuayToken,
	EnvQuayAPIToken,
}

// ResolveToken returns the first non-empty registry token observed in the
// provided environment map or the process environment. A false result means
// the audit proceeds unauthenticated with reduced visibility.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
