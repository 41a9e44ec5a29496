package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopaiassist/containerapp/pkg/cariauth"
)

type fakeFacFetcher struct {
	grants   *cariauth.FacGrants
	err      error
	gotToken string
	gotNames []string
	calls    int
}

func (f *fakeFacFetcher) FetchFeatureAccessControls(ctx context.Context, authorizationToken, productID string, facNames []string) (*cariauth.FacGrants, error) {
	f.calls++
	f.gotToken = authorizationToken
	f.gotNames = facNames
	return f.grants, f.err
}

func newTestService(fetcher FacFetcher, bypass bool) *Service {
	registry := NewSkillRegistry([]SkillMapping{
		{ID: "product-search", FacName: "ShopAIAssist SKILL PRODUCT SEARCH", Active: true},
		{ID: "order-tracking", FacName: "ShopAIAssist SKILL ORDER TRACKING", Active: true},
	}, testLogger())
	return NewService(fetcher, registry, bypass, testLogger())
}

func TestService_FetchEntitlementsForUser(t *testing.T) {
	fetcher := &fakeFacFetcher{grants: grantsFor(
		"PRDCT ShopAIAssistCORE US",
		"ShopAIAssist VIEW DATABASE ACCESS",
		"ShopAIAssist SKILL ORDER TRACKING",
	)}
	svc := newTestService(fetcher, false)

	perms, err := svc.FetchEntitlementsForUser(context.Background(), "orch-token", "ShopAIAssist")
	require.NoError(t, err)

	assert.True(t, perms.CanUseShopAIAssist)
	assert.False(t, perms.IsAdmin)
	assert.Equal(t, "US", perms.InfrastructureRegion)
	assert.True(t, perms.FileManagement.CanViewDatabases)
	assert.False(t, perms.FileManagement.CanCreateDatabases)
	assert.Equal(t, []string{"order-tracking"}, perms.Skills.AllowedSkills)

	// All handler FACs go out in one batched check.
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "orch-token", fetcher.gotToken)
	assert.Contains(t, fetcher.gotNames, "ShopAIAssist APPLICATION ADMIN")
	assert.Contains(t, fetcher.gotNames, "PRDCT ShopAIAssistCORE AU")
	assert.Contains(t, fetcher.gotNames, "ShopAIAssist SHARE DATABASE ACCESS")
	assert.Contains(t, fetcher.gotNames, "ShopAIAssist SKILL PRODUCT SEARCH")
}

func TestService_FetchEntitlementsForUser_FetchError(t *testing.T) {
	fetcher := &fakeFacFetcher{err: errors.New("cari down")}
	svc := newTestService(fetcher, false)

	_, err := svc.FetchEntitlementsForUser(context.Background(), "orch-token", "ShopAIAssist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cari down")
}

func TestService_FlatFormatEntitlements(t *testing.T) {
	svc := newTestService(&fakeFacFetcher{}, false)

	flat := svc.FlatFormatEntitlements(&UserPermissions{
		GeneralPermissions: GeneralPermissions{IsAdmin: true, CanUseShopAIAssist: true, InfrastructureRegion: "US"},
		FileManagement:     FileManagementPermissions{CanViewDatabases: true},
		Skills:             SkillPermissions{AllowedSkills: []string{"product-search"}},
	})

	assert.Equal(t, map[string]bool{
		"isAdmin":              true,
		"canViewDatabases":     true,
		"canCreateDatabases":   false,
		"canShareDatabases":    false,
		"skill.product-search": true,
	}, flat)

	// Neither product access nor the region leak into the flat form.
	_, present := flat["canUseShopAIAssist"]
	assert.False(t, present)
	_, present = flat["infrastructureRegion"]
	assert.False(t, present)
}
