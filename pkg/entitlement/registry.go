package entitlement

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/shopaiassist/containerapp/pkg/observability"
)

// SkillMapping binds a skill to the FAC gating it. Inactive mappings are
// kept in the registry file for bookkeeping but are never checked. The
// description is the user facing skill name, used in notification emails
// when the caller does not supply one.
type SkillMapping struct {
	ID          string `yaml:"id"`
	FacName     string `yaml:"fac"`
	Description string `yaml:"description"`
	Active      bool   `yaml:"active"`
}

// DefaultSkillMappings is the built-in registry used when no registry file
// is configured.
var DefaultSkillMappings = []SkillMapping{
	{ID: "product-search", FacName: "ShopAIAssist SKILL PRODUCT SEARCH", Description: "Product Search", Active: true},
	{ID: "order-tracking", FacName: "ShopAIAssist SKILL ORDER TRACKING", Description: "Order Tracking", Active: true},
	{ID: "cart-assistant", FacName: "ShopAIAssist SKILL CART ASSISTANT", Description: "Cart Assistant", Active: true},
	{ID: "price-compare", FacName: "ShopAIAssist SKILL PRICE COMPARE", Description: "Price Compare", Active: false},
}

type skillRegistryFile struct {
	Skills []SkillMapping `yaml:"skills"`
}

// SkillRegistry holds the active skill to FAC mappings. When built from a
// file it can watch the file and reload on change, so skill rollouts do not
// need a restart.
type SkillRegistry struct {
	path   string
	logger *observability.Logger

	mu                sync.RWMutex
	facNamesBySkillID map[string]string
	descriptions      map[string]string
}

// NewSkillRegistry builds a static registry from the given mappings.
func NewSkillRegistry(mappings []SkillMapping, logger *observability.Logger) *SkillRegistry {
	r := &SkillRegistry{logger: logger.WithField("component", "skill_registry")}
	r.apply(mappings)
	return r
}

// LoadSkillRegistry builds a registry from a YAML file:
//
//	skills:
//	  - id: product-search
//	    fac: ShopAIAssist SKILL PRODUCT SEARCH
//	    active: true
func LoadSkillRegistry(path string, logger *observability.Logger) (*SkillRegistry, error) {
	r := &SkillRegistry{
		path:   path,
		logger: logger.WithField("component", "skill_registry").WithField("path", path),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// FacNameForSkill returns the FAC gating the given skill.
func (r *SkillRegistry) FacNameForSkill(skillID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.facNamesBySkillID[skillID]
	return name, ok
}

// DescriptionForSkill returns the user facing name of an active skill, or
// an empty string for unknown skills.
func (r *SkillRegistry) DescriptionForSkill(skillID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.descriptions[skillID]
}

// snapshot returns a copy of the active mappings.
func (r *SkillRegistry) snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := make(map[string]string, len(r.facNamesBySkillID))
	for id, fac := range r.facNamesBySkillID {
		copied[id] = fac
	}
	return copied
}

// Watch reloads the registry whenever its file changes, until ctx is done.
// It is a no-op for a static registry.
func (r *SkillRegistry) Watch(ctx context.Context) error {
	if r.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create registry watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.path); err != nil {
		return fmt.Errorf("failed to watch registry file: %w", err)
	}

	r.logger.Info("Watching skill registry for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.reload(); err != nil {
				// Keep serving the last good mappings.
				r.logger.WithError(err).Error("Failed to reload skill registry")
			} else {
				r.logger.Info("Skill registry reloaded")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.WithError(err).Error("Skill registry watcher error")
		}
	}
}

func (r *SkillRegistry) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read skill registry: %w", err)
	}

	var file skillRegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse skill registry: %w", err)
	}

	r.apply(file.Skills)
	return nil
}

func (r *SkillRegistry) apply(mappings []SkillMapping) {
	byID := make(map[string]string)
	descriptions := make(map[string]string)
	for _, m := range mappings {
		if m.Active && m.ID != "" && m.FacName != "" {
			byID[m.ID] = m.FacName
			descriptions[m.ID] = m.Description
		}
	}

	r.mu.Lock()
	r.facNamesBySkillID = byID
	r.descriptions = descriptions
	r.mu.Unlock()
}
