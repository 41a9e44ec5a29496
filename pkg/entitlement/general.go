package entitlement

import (
	"github.com/shopaiassist/containerapp/pkg/cariauth"
)

// Infrastructure regions with a regional product FAC. Order matters: the
// first granted region wins when a user somehow holds more than one.
var infrastructureRegions = []string{"US", "UK", "CA", "AU"}

var productFacNamesByRegion = map[string]string{
	"US": "PRDCT ShopAIAssistCORE US",
	"UK": "PRDCT ShopAIAssistCORE UK",
	"CA": "PRDCT ShopAIAssistCORE CA",
	"AU": "PRDCT ShopAIAssistCORE AU",
}

var adminFacNames = []string{"ShopAIAssist APPLICATION ADMIN"}

// GeneralFacHandler processes product wide FACs: whether the user has
// product access at all, whether they are an admin, and which
// infrastructure region serves them.
type GeneralFacHandler struct {
	// bypassProductCheck forces the product access gate open for
	// environments whose users have no FACs provisioned yet. Admin status
	// and region derivation are unaffected.
	bypassProductCheck bool
}

// NewGeneralFacHandler creates a general FAC handler.
func NewGeneralFacHandler(bypassProductCheck bool) *GeneralFacHandler {
	return &GeneralFacHandler{bypassProductCheck: bypassProductCheck}
}

func (h *GeneralFacHandler) FacNames() []string {
	names := make([]string, 0, len(adminFacNames)+len(infrastructureRegions))
	names = append(names, adminFacNames...)
	for _, region := range infrastructureRegions {
		names = append(names, productFacNamesByRegion[region])
	}
	return names
}

func (h *GeneralFacHandler) ProcessFacs(grants *cariauth.FacGrants) GeneralPermissions {
	productFacNames := make([]string, 0, len(infrastructureRegions))
	for _, region := range infrastructureRegions {
		productFacNames = append(productFacNames, productFacNamesByRegion[region])
	}

	return GeneralPermissions{
		IsAdmin:              grants.AreAllGranted(adminFacNames),
		CanUseShopAIAssist:   grants.IsOneGranted(productFacNames) || h.bypassProductCheck,
		InfrastructureRegion: h.infrastructureRegion(grants),
	}
}

// FlatFormatEntitlements exposes only isAdmin. Product access is an input
// to the login decision, not a stored entitlement, and the region is not a
// boolean.
func (h *GeneralFacHandler) FlatFormatEntitlements(entitlements GeneralPermissions) map[string]bool {
	return map[string]bool{"isAdmin": entitlements.IsAdmin}
}

// infrastructureRegion returns the first region, in fixed order, whose
// product FAC is granted. It ignores the bypass so a bypassed login never
// fabricates a region.
func (h *GeneralFacHandler) infrastructureRegion(grants *cariauth.FacGrants) string {
	for _, region := range infrastructureRegions {
		if grants.IsGranted(productFacNamesByRegion[region]) {
			return region
		}
	}
	return ""
}
