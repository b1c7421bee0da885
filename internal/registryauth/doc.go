// Package registryauth resolves the bearer token used for authenticated
// registry requests, from the conventional environment variables or from an
// explicitly declared env:/file: token source.
package registryauth
