// Package registry models container-image registry repositories and their
// access-control grants, and provides an authenticated HTTP client for the
// registry API.
//
// It exposes Client for the three read operations the auditor needs (listing
// repositories, fetching user permissions, fetching team permissions), the
// typed error taxonomy shared with snapshot persistence, and strict decoders
// that reject payloads deviating from the documented schemas.
package registry
