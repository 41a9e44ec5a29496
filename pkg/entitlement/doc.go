// Package entitlement maps feature access controls to product permissions.
//
// # Overview
//
// Authorization data lives in the CARI Auth service as feature access
// controls (FACs), each a Grant or Deny for one user. This package groups
// FACs by concern behind FacHandler implementations:
//
//   - GeneralFacHandler: product access, admin status, infrastructure region
//   - FileManagementFacHandler: document database view/create/share
//   - SkillFacHandler: per-skill access, driven by the skill registry
//
// Service batches every handler's FAC names into a single check-permission
// call and assembles the typed UserPermissions from the result. The flat
// format variant collapses permissions into a name to boolean dictionary
// for embedding in orchestration token properties.
//
// # Skill Registry
//
// Skill to FAC mappings come from a YAML registry file, hot reloaded on
// change, or from the built-in DefaultSkillMappings when no file is
// configured.
package entitlement
