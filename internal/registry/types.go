package registry

const (
	repositorySpecSeparatorConstant = "/"
)

// AvatarKind enumerates the identity kinds an avatar can describe.
type AvatarKind string

// Avatar kind values reported by the registry.
const (
	AvatarKindUser AvatarKind = "user"
	AvatarKindTeam AvatarKind = "team"
	AvatarKindOrg  AvatarKind = "org"
)

// Role enumerates the permission roles the registry grants on a repository.
type Role string

// Role values reported by the registry.
const (
	RoleRead  Role = "read"
	RoleWrite Role = "write"
	RoleAdmin Role = "admin"
)

// Avatar carries display metadata for the identity holding a permission.
type Avatar struct {
	Color string     `json:"color"`
	Hash  string     `json:"hash"`
	Kind  AvatarKind `json:"kind"`
	Name  string     `json:"name"`
}

// UserPermission records one user grant on a repository.
type UserPermission struct {
	Avatar      Avatar `json:"avatar"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	IsOrgMember bool   `json:"is_org_member"`
	IsRobot     bool   `json:"is_robot"`
}

// TeamPermission records one team grant on a repository.
type TeamPermission struct {
	Avatar Avatar `json:"avatar"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Repository identifies one repository within a namespace.
type Repository struct {
	Namespace   string  `json:"namespace"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	IsStarred   bool    `json:"is_starred"`
	IsPublic    bool    `json:"is_public"`
	Description *string `json:"description"`
}

// Spec returns the canonical "namespace/name" identifier used in API paths.
func (repository Repository) Spec() string {
	return repository.Namespace + repositorySpecSeparatorConstant + repository.Name
}

// Equal reports whether two repositories agree on every field. Descriptions
// are compared by value with null and empty kept distinct.
func (repository Repository) Equal(other Repository) bool {
	if repository.Namespace != other.Namespace ||
		repository.Name != other.Name ||
		repository.Kind != other.Kind ||
		repository.IsStarred != other.IsStarred ||
		repository.IsPublic != other.IsPublic {
		return false
	}

	if repository.Description == nil || other.Description == nil {
		return repository.Description == nil && other.Description == nil
	}

	return *repository.Description == *other.Description
}
