package entitlement

import (
	"context"

	"github.com/shopaiassist/containerapp/pkg/cariauth"
	"github.com/shopaiassist/containerapp/pkg/observability"
)

// FacFetcher checks feature access controls for a user. Implemented by
// cariauth.Client.
type FacFetcher interface {
	FetchFeatureAccessControls(ctx context.Context, authorizationToken, productID string, facNames []string) (*cariauth.FacGrants, error)
}

// Service reads entitlements for a user. Given an authorization token it
// determines which permissions the user represented by the token has, in a
// single batched FAC check.
type Service struct {
	fetcher FacFetcher
	logger  *observability.Logger

	general        *GeneralFacHandler
	fileManagement *FileManagementFacHandler
	skills         *SkillFacHandler
}

// NewService creates an entitlement service.
func NewService(fetcher FacFetcher, registry *SkillRegistry, bypassProductCheck bool, logger *observability.Logger) *Service {
	logger = logger.WithField("component", "entitlement")
	if bypassProductCheck {
		logger.Warn("Product access check bypass is active; all users will pass the product gate")
	}
	return &Service{
		fetcher:        fetcher,
		logger:         logger,
		general:        NewGeneralFacHandler(bypassProductCheck),
		fileManagement: NewFileManagementFacHandler(),
		skills:         NewSkillFacHandler(registry),
	}
}

// FetchEntitlementsForUser retrieves all product permissions for the user
// represented by the given token.
func (s *Service) FetchEntitlementsForUser(ctx context.Context, authorizationToken, productID string) (*UserPermissions, error) {
	facNames := make([]string, 0)
	facNames = append(facNames, s.general.FacNames()...)
	facNames = append(facNames, s.fileManagement.FacNames()...)
	facNames = append(facNames, s.skills.FacNames()...)

	grants, err := s.fetcher.FetchFeatureAccessControls(ctx, authorizationToken, productID, facNames)
	if err != nil {
		return nil, err
	}

	return &UserPermissions{
		GeneralPermissions: s.general.ProcessFacs(grants),
		FileManagement:     s.fileManagement.ProcessFacs(grants),
		Skills:             s.skills.ProcessFacs(grants),
	}, nil
}

// FlatFormatEntitlements reformats the permissions for a user into a flat
// name to boolean dictionary, merging every handler's contribution.
func (s *Service) FlatFormatEntitlements(permissions *UserPermissions) map[string]bool {
	flat := make(map[string]bool)
	for name, value := range s.general.FlatFormatEntitlements(permissions.GeneralPermissions) {
		flat[name] = value
	}
	for name, value := range s.fileManagement.FlatFormatEntitlements(permissions.FileManagement) {
		flat[name] = value
	}
	for name, value := range s.skills.FlatFormatEntitlements(permissions.Skills) {
		flat[name] = value
	}
	return flat
}
