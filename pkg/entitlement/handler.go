package entitlement

import (
	"github.com/shopaiassist/containerapp/pkg/cariauth"
)

// FacHandler processes one group of feature access controls into a typed
// permissions value.
type FacHandler[T any] interface {
	// FacNames returns the FAC names this handler needs checked.
	FacNames() []string

	// ProcessFacs derives the permissions value from a grant set. The set
	// may contain FACs belonging to other handlers; they are ignored.
	ProcessFacs(grants *cariauth.FacGrants) T

	// FlatFormatEntitlements reformats a permissions value into a flat
	// name to boolean dictionary for embedding in token properties.
	FlatFormatEntitlements(entitlements T) map[string]bool
}

// GeneralPermissions are product wide permissions.
type GeneralPermissions struct {
	// IsAdmin is whether the user is a product administrator.
	IsAdmin bool `json:"isAdmin"`

	// CanUseShopAIAssist gates access to the product as a whole. It is
	// consumed during login and stripped before the permissions are
	// stored.
	CanUseShopAIAssist bool `json:"-"`

	// InfrastructureRegion is the region whose infrastructure serves this
	// user, derived from which regional product FAC is granted. Empty when
	// no regional FAC is granted.
	InfrastructureRegion string `json:"infrastructureRegion,omitempty"`
}

// FileManagementPermissions describe what the user may do with document
// databases.
type FileManagementPermissions struct {
	CanViewDatabases   bool `json:"canViewDatabases"`
	CanCreateDatabases bool `json:"canCreateDatabases"`
	CanShareDatabases  bool `json:"canShareDatabases"`
}

// SkillPermissions list the skills the user may use.
type SkillPermissions struct {
	AllowedSkills []string `json:"allowedSkills"`
}

// UserPermissions are all product permissions for one user.
type UserPermissions struct {
	GeneralPermissions
	FileManagement FileManagementPermissions `json:"fileManagement"`
	Skills         SkillPermissions          `json:"skills"`
}
