package entitlement

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYAML = `skills:
  - id: product-search
    fac: ShopAIAssist SKILL PRODUCT SEARCH
    description: Product Search
    active: true
  - id: order-tracking
    fac: ShopAIAssist SKILL ORDER TRACKING
    active: true
  - id: price-compare
    fac: ShopAIAssist SKILL PRICE COMPARE
    description: Price Compare
    active: false
`

func writeRegistryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSkillRegistry(t *testing.T) {
	path := writeRegistryFile(t, registryYAML)

	registry, err := LoadSkillRegistry(path, testLogger())
	require.NoError(t, err)

	fac, ok := registry.FacNameForSkill("product-search")
	assert.True(t, ok)
	assert.Equal(t, "ShopAIAssist SKILL PRODUCT SEARCH", fac)

	_, ok = registry.FacNameForSkill("price-compare")
	assert.False(t, ok, "inactive skills are excluded")

	_, ok = registry.FacNameForSkill("unknown")
	assert.False(t, ok)
}

func TestSkillRegistry_DescriptionForSkill(t *testing.T) {
	registry, err := LoadSkillRegistry(writeRegistryFile(t, registryYAML), testLogger())
	require.NoError(t, err)

	assert.Equal(t, "Product Search", registry.DescriptionForSkill("product-search"))
	assert.Empty(t, registry.DescriptionForSkill("order-tracking"), "a mapping without a description has none")
	assert.Empty(t, registry.DescriptionForSkill("price-compare"), "inactive skills are excluded")
	assert.Empty(t, registry.DescriptionForSkill("unknown"))
}

func TestLoadSkillRegistry_MissingFile(t *testing.T) {
	_, err := LoadSkillRegistry(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read skill registry")
}

func TestLoadSkillRegistry_InvalidYAML(t *testing.T) {
	path := writeRegistryFile(t, "skills: [not closed")
	_, err := LoadSkillRegistry(path, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse skill registry")
}

func TestSkillRegistry_WatchReload(t *testing.T) {
	path := writeRegistryFile(t, registryYAML)

	registry, err := LoadSkillRegistry(path, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- registry.Watch(ctx) }()

	// Give the watcher a moment to register before rewriting the file.
	time.Sleep(100 * time.Millisecond)

	updated := registryYAML + `  - id: cart-assistant
    fac: ShopAIAssist SKILL CART ASSISTANT
    active: true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		_, ok := registry.FacNameForSkill("cart-assistant")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestSkillRegistry_WatchKeepsLastGoodOnBadReload(t *testing.T) {
	path := writeRegistryFile(t, registryYAML)

	registry, err := LoadSkillRegistry(path, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.Watch(ctx)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("skills: [broken"), 0o600))
	time.Sleep(500 * time.Millisecond)

	fac, ok := registry.FacNameForSkill("product-search")
	assert.True(t, ok)
	assert.Equal(t, "ShopAIAssist SKILL PRODUCT SEARCH", fac)
}

func TestSkillRegistry_StaticWatchIsNoop(t *testing.T) {
	registry := NewSkillRegistry(DefaultSkillMappings, testLogger())
	assert.NoError(t, registry.Watch(context.Background()))
}
