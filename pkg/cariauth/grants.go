package cariauth

// Permission values returned by the check-permission endpoint.
const (
	PermissionGrant = "Grant"
	PermissionDeny  = "Deny"
)

// FacGrants is an immutable set of feature access control decisions for one
// user. A FAC absent from the set is treated as denied.
type FacGrants struct {
	values map[string]string
}

// NewFacGrants builds a FacGrants from a FAC name to permission map. The map
// is copied so later mutation by the caller cannot change the grants.
func NewFacGrants(values map[string]string) *FacGrants {
	copied := make(map[string]string, len(values))
	for name, permission := range values {
		copied[name] = permission
	}
	return &FacGrants{values: copied}
}

// IsGranted reports whether the named FAC is granted.
func (g *FacGrants) IsGranted(facName string) bool {
	return g.values[facName] == PermissionGrant
}

// AreAllGranted reports whether every named FAC is granted. True for an
// empty list.
func (g *FacGrants) AreAllGranted(facNames []string) bool {
	for _, name := range facNames {
		if !g.IsGranted(name) {
			return false
		}
	}
	return true
}

// IsOneGranted reports whether at least one named FAC is granted.
func (g *FacGrants) IsOneGranted(facNames []string) bool {
	for _, name := range facNames {
		if g.IsGranted(name) {
			return true
		}
	}
	return false
}
