package entitlement

import (
	"sort"

	"github.com/shopaiassist/containerapp/pkg/cariauth"
)

// skillFlatPrefix prefixes skill entries in flat formatted entitlements.
const skillFlatPrefix = "skill."

// SkillFacHandler processes skill FACs: which skills the user has access
// to, per the skill registry.
type SkillFacHandler struct {
	registry *SkillRegistry
}

// NewSkillFacHandler creates a skill FAC handler backed by the given
// registry.
func NewSkillFacHandler(registry *SkillRegistry) *SkillFacHandler {
	return &SkillFacHandler{registry: registry}
}

func (h *SkillFacHandler) FacNames() []string {
	mappings := h.registry.snapshot()
	names := make([]string, 0, len(mappings))
	for _, fac := range mappings {
		names = append(names, fac)
	}
	sort.Strings(names)
	return names
}

func (h *SkillFacHandler) ProcessFacs(grants *cariauth.FacGrants) SkillPermissions {
	mappings := h.registry.snapshot()
	allowed := make([]string, 0, len(mappings))
	for skillID, fac := range mappings {
		if grants.IsGranted(fac) {
			allowed = append(allowed, skillID)
		}
	}
	sort.Strings(allowed)
	return SkillPermissions{AllowedSkills: allowed}
}

// FlatFormatEntitlements emits one entry per allowed skill. Denied skills
// get no entry at all, so token properties stay bounded by what the user
// can actually use.
func (h *SkillFacHandler) FlatFormatEntitlements(entitlements SkillPermissions) map[string]bool {
	flat := make(map[string]bool, len(entitlements.AllowedSkills))
	for _, skillID := range entitlements.AllowedSkills {
		flat[skillFlatPrefix+skillID] = true
	}
	return flat
}
