package entitlement

import (
	"github.com/shopaiassist/containerapp/pkg/cariauth"
)

const (
	viewDatabasesFacName   = "ShopAIAssist VIEW DATABASE ACCESS"
	createDatabasesFacName = "ShopAIAssist CREATE DATABASE ACCESS"
	shareDatabasesFacName  = "ShopAIAssist SHARE DATABASE ACCESS"
)

// FileManagementFacHandler processes file management FACs: whether the user
// can view, create, and share document databases.
type FileManagementFacHandler struct{}

// NewFileManagementFacHandler creates a file management FAC handler.
func NewFileManagementFacHandler() *FileManagementFacHandler {
	return &FileManagementFacHandler{}
}

func (h *FileManagementFacHandler) FacNames() []string {
	return []string{viewDatabasesFacName, createDatabasesFacName, shareDatabasesFacName}
}

func (h *FileManagementFacHandler) ProcessFacs(grants *cariauth.FacGrants) FileManagementPermissions {
	return FileManagementPermissions{
		CanViewDatabases:   grants.IsGranted(viewDatabasesFacName),
		CanCreateDatabases: grants.IsGranted(createDatabasesFacName),
		CanShareDatabases:  grants.IsGranted(shareDatabasesFacName),
	}
}

func (h *FileManagementFacHandler) FlatFormatEntitlements(entitlements FileManagementPermissions) map[string]bool {
	return map[string]bool{
		"canViewDatabases":   entitlements.CanViewDatabases,
		"canCreateDatabases": entitlements.CanCreateDatabases,
		"canShareDatabases":  entitlements.CanShareDatabases,
	}
}
