package snapshot

import "github.com/quaytools/quay-audit/internal/registry"

// ExternalAccess pairs one repository with the user grants held by
// identities outside the owning organization.
type ExternalAccess struct {
	Repository registry.Repository
	Users      []registry.UserPermission
}

// FindExternal reports every repository in the snapshot with at least one
// user permission whose holder is not an organization member. The result
// preserves snapshot order with one entry per repository; repositories whose
// users are all members are omitted entirely. Team grants are never treated
// as external. The snapshot is not modified.
func FindExternal(snapshotToAnalyze *Snapshot) []ExternalAccess {
	externalAccesses := []ExternalAccess{}
	for _, entry := range snapshotToAnalyze.Entries() {
		externalUsers := []registry.UserPermission{}
		for _, userPermission := range entry.UserPermissions {
			if !userPermission.IsOrgMember {
				externalUsers = append(externalUsers, userPermission)
			}
		}

		if len(externalUsers) == 0 {
			continue
		}

		externalAccesses = append(externalAccesses, ExternalAccess{
			Repository: entry.Repository,
			Users:      externalUsers,
		})
	}

	return externalAccesses
}
