package snapshot

import "github.com/quaytools/quay-audit/internal/registry"

// RepositoryPermissions combines one repository with every user and team
// grant the registry reports for it. Both permission lists are fetched for
// the same repository spec within one aggregation call; their order follows
// the API response order.
type RepositoryPermissions struct {
	Repository      registry.Repository
	UserPermissions []registry.UserPermission
	TeamPermissions []registry.TeamPermission
}

// Snapshot is an immutable ordered capture of repository permissions, one
// entry per repository listed for the namespace at build time. A snapshot is
// created once by Builder.Build, Store.Load, or NewSnapshot and only read
// afterwards, so it is safe for concurrent use.
type Snapshot struct {
	entries []RepositoryPermissions
}

// NewSnapshot constructs a snapshot over a copy of the provided entries.
func NewSnapshot(entries []RepositoryPermissions) *Snapshot {
	duplicatedEntries := make([]RepositoryPermissions, len(entries))
	copy(duplicatedEntries, entries)
	return &Snapshot{entries: duplicatedEntries}
}

// Len reports the number of repository entries in the snapshot.
func (snapshot *Snapshot) Len() int {
	return len(snapshot.entries)
}

// Entries returns a copy of the ordered repository permission entries.
func (snapshot *Snapshot) Entries() []RepositoryPermissions {
	duplicatedEntries := make([]RepositoryPermissions, len(snapshot.entries))
	copy(duplicatedEntries, snapshot.entries)
	return duplicatedEntries
}
