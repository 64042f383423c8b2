// Package settings manages campaign-scoped configuration stored in Redis:
// the player-visibility config, entity type customizations, sidebar type
// order, and relationship-context tuning. Settings are stored as JSON blobs
// under well-known keys; readers fall back to defaults when a key is absent
// or unreadable, so a cold or broken Redis never takes the GM surface down.
package settings

import (
	"github.com/emberfall/lorekeep/internal/catalog"
)

// Campaign setting keys. Only these keys are accepted by the raw
// get/set/delete API.
const (
	// KeyVisibility holds the visibility.Config JSON blob.
	KeyVisibility = "visibility"

	// KeyTypeOrder holds the sidebar display order as a string array of
	// type keys.
	KeyTypeOrder = "typeOrder"

	// KeyCustomTypes holds campaign-defined entity types as an array of
	// catalog.EntityTypeDefinition.
	KeyCustomTypes = "customTypes"

	// KeyTypeOverrides holds per-type adjustments to built-in types as a
	// map of type key to catalog.EntityTypeOverride.
	KeyTypeOverrides = "typeOverrides"

	// KeyContext holds relationship-context tuning (ContextTuning).
	KeyContext = "context"

	// KeyDebug holds a boolean that enables parse debug payloads in
	// scribe responses.
	KeyDebug = "debug"
)

// knownKeys is the allow-list for the raw settings API.
var knownKeys = map[string]bool{
	KeyVisibility:    true,
	KeyTypeOrder:     true,
	KeyCustomTypes:   true,
	KeyTypeOverrides: true,
	KeyContext:       true,
	KeyDebug:         true,
}

// KnownKey reports whether key is a recognized campaign setting.
func KnownKey(key string) bool {
	return knownKeys[key]
}

// ContextTuning is the stored shape of relationship-context options. Zero
// values mean "use the built-in default".
type ContextTuning struct {
	MaxDepth           int  `json:"maxDepth,omitempty"`
	MaxRelatedEntities int  `json:"maxRelatedEntities,omitempty"`
	MaxCharacters      int  `json:"maxCharacters,omitempty"`
	IncludeStrength    bool `json:"includeStrength,omitempty"`
	IncludeNotes       bool `json:"includeNotes,omitempty"`
}

// TypeCustomization bundles the campaign's effective type inputs for the
// catalog resolvers.
type TypeCustomization struct {
	Order       []string
	CustomTypes []catalog.EntityTypeDefinition
	Overrides   map[string]catalog.EntityTypeOverride
}
