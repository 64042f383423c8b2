// Package visibility decides which entity fields players may see in
// exports. Resolution is a strict three-tier cascade: a per-entity
// override wins over a per-type campaign setting, which wins over the
// hardcoded defaults. All functions are pure; persistence of the config
// belongs to the campaign settings layer.
package visibility

import "github.com/emberfall/lorekeep/internal/catalog"

// Core pseudo-field keys. These address an entity's intrinsic attributes
// (description, tags, timestamps, ...) through the same cascade as schema
// fields, but they have no field definition and default to visible.
const (
	CoreDescription   = "__core_description"
	CoreSummary       = "__core_summary"
	CoreTags          = "__core_tags"
	CoreImageURL      = "__core_imageUrl"
	CoreCreatedAt     = "__core_createdAt"
	CoreUpdatedAt     = "__core_updatedAt"
	CoreRelationships = "__core_relationships"
)

// coreFields lists every core pseudo-field key.
var coreFields = []string{
	CoreDescription, CoreSummary, CoreTags, CoreImageURL,
	CoreCreatedAt, CoreUpdatedAt, CoreRelationships,
}

// CoreFields returns the core pseudo-field keys as a copy.
func CoreFields() []string {
	return append([]string(nil), coreFields...)
}

// IsCoreField reports whether key addresses a core entity attribute rather
// than a schema field.
func IsCoreField(key string) bool {
	for _, k := range coreFields {
		if k == key {
			return true
		}
	}
	return false
}

// Config is a campaign's player-export visibility configuration.
// FieldVisibility maps entity type -> field key -> visible; empty leaf maps
// are never stored, so configs always compare deep-equal to their minimal
// form. CategoryVisibility hides or shows a whole type at once.
type Config struct {
	FieldVisibility    map[string]map[string]bool `json:"fieldVisibility,omitempty"`
	CategoryVisibility map[string]bool            `json:"categoryVisibility,omitempty"`
}

// IsFieldPlayerVisible resolves whether one field of one entity may appear
// in a player export.
//
// Cascade, first hit wins:
//  1. the entity's own metadata override for the key, even when false
//  2. the campaign config's per-type setting for the key
//  3. hardcoded defaults: notes is hidden, fields defined in the hidden
//     section are hidden, session preparation is hidden, core pseudo-fields
//     and everything else (including unknown keys with no definition) are
//     visible
func IsFieldPlayerVisible(fieldKey string, def *catalog.FieldDefinition, entityType string, entityOverrides map[string]bool, cfg *Config) bool {
	if v, ok := entityOverrides[fieldKey]; ok {
		return v
	}

	if cfg != nil {
		if typeCfg, ok := cfg.FieldVisibility[entityType]; ok {
			if v, ok := typeCfg[fieldKey]; ok {
				return v
			}
		}
	}

	if IsCoreField(fieldKey) {
		return true
	}
	if fieldKey == "notes" {
		return false
	}
	if def != nil && def.Section == catalog.SectionHidden {
		return false
	}
	if fieldKey == "preparation" && entityType == catalog.TypeSession {
		return false
	}
	return true
}

// CategoryOverride reports whether the config pins an entire entity type's
// export visibility. ok is false when no override exists, in which case the
// per-entity playerVisible flag and field-level filtering decide.
func CategoryOverride(entityType string, cfg *Config) (visible, ok bool) {
	if cfg == nil {
		return false, false
	}
	v, ok := cfg.CategoryVisibility[entityType]
	return v, ok
}
