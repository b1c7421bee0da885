// Package snapshot builds, persists, and analyzes point-in-time captures of
// repository permissions for one registry namespace.
//
// A Snapshot is produced either live (Builder fans the permission fetches out
// across every repository in the namespace) or from a previously persisted
// state file (Store). Once produced it is never mutated; FindExternal reads
// it to report repositories reachable by users outside the owning
// organization.
package snapshot
