// Package catalog holds the static entity-type and relationship-template
// catalogs for Lorekeep. Every campaign object (NPCs, locations, factions,
// scenes, etc.) is an entity of a catalog-defined type, and each type carries
// an ordered list of field definitions that drive form rendering, AI-response
// parsing, and player-export filtering.
//
// The built-in tables are immutable. Campaign-level customization (hidden
// fields, additional fields, reordering, system profiles) is applied
// functionally at read time — see registry.go. Nothing in this package
// performs I/O or mutates shared state.
package catalog

// FieldKind tags the value shape of a field. The parser and validator switch
// on this tag instead of duck-typing the stored value.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextarea    FieldKind = "textarea"
	KindRichText    FieldKind = "richtext"
	KindNumber      FieldKind = "number"
	KindDate        FieldKind = "date"
	KindSelect      FieldKind = "select"
	KindTags        FieldKind = "tags"
	KindMultiSelect FieldKind = "multi-select"
	KindEntityRef   FieldKind = "entity-ref"
	KindEntityRefs  FieldKind = "entity-refs"
)

// SectionHidden marks a field as GM-only. Fields in this section never appear
// in player exports or relationship-context summaries.
const SectionHidden = "hidden"

// FieldDefinition describes a single field on an entity type.
type FieldDefinition struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Kind         FieldKind `json:"kind"`
	Required     bool      `json:"required,omitempty"`
	DefaultValue any       `json:"defaultValue,omitempty"`
	Options      []string  `json:"options,omitempty"`     // valid values for select/multi-select
	EntityTypes  []string  `json:"entityTypes,omitempty"` // allowed target types for entity-ref(s)
	Section      string    `json:"section,omitempty"`     // display grouping; "hidden" = GM-only
	Help         string    `json:"help,omitempty"`
	Order        int       `json:"order"`
}

// EntityTypeDefinition describes one kind of campaign entity. Field keys and
// Order values are unique within a type.
type EntityTypeDefinition struct {
	Key                  string            `json:"key"`
	Name                 string            `json:"name"`
	NamePlural           string            `json:"namePlural"`
	Icon                 string            `json:"icon"`
	Color                string            `json:"color"`
	Fields               []FieldDefinition `json:"fields"`
	DefaultRelationships []string          `json:"defaultRelationships,omitempty"`
	BuiltIn              bool              `json:"builtIn"`
}

// EntityTypeOverride is a campaign-level adjustment applied to a built-in
// type at read time. The base catalog is never mutated.
type EntityTypeOverride struct {
	// HiddenFields lists field keys removed from the effective definition.
	HiddenFields []string `json:"hiddenFields,omitempty"`

	// AdditionalFields are appended after the built-in fields.
	AdditionalFields []FieldDefinition `json:"additionalFields,omitempty"`

	// FieldOrder is an explicit key order. Keys not listed keep their
	// original relative order after the listed ones.
	FieldOrder []string `json:"fieldOrder,omitempty"`

	// HideFromSidebar removes the type from listings without deleting
	// existing entities of that type.
	HideFromSidebar bool `json:"hideFromSidebar,omitempty"`
}

// SystemModification is a third-party "system profile" adjustment (e.g. a
// game-system content pack that renames alignment options). Applied on top
// of a field list by ApplySystemModification.
type SystemModification struct {
	// HideFields lists field keys to drop.
	HideFields []string `json:"hideFields,omitempty"`

	// OptionOverrides replaces the option list of select-like fields by key.
	OptionOverrides map[string][]string `json:"optionOverrides,omitempty"`

	// AddFields are added, replacing any existing field with the same key.
	AddFields []FieldDefinition `json:"addFields,omitempty"`
}

// TypeNPC and friends are the built-in type keys. "character" is accepted as
// an alias for npc in parser input but is never a catalog key.
const (
	TypeNPC      = "npc"
	TypeLocation = "location"
	TypeFaction  = "faction"
	TypeItem     = "item"
	TypeCreature = "creature"
	TypeScene    = "scene"
	TypeSession  = "session"
	TypeDeity    = "deity"
)

// builtinOrder is the canonical sidebar order for built-in types.
var builtinOrder = []string{
	TypeNPC, TypeLocation, TypeFaction, TypeItem,
	TypeCreature, TypeScene, TypeSession, TypeDeity,
}

// builtinTypes is the immutable built-in catalog, keyed by type.
var builtinTypes = map[string]EntityTypeDefinition{
	TypeNPC: {
		Key: TypeNPC, Name: "NPC", NamePlural: "NPCs",
		Icon: "fa-user", Color: "#3b82f6", BuiltIn: true,
		DefaultRelationships: []string{"ally of", "enemy of", "member of", "located in", "knows"},
		Fields: []FieldDefinition{
			{Key: "role", Label: "Role/Occupation", Kind: KindText, Order: 1},
			{Key: "race", Label: "Race", Kind: KindText, Order: 2},
			{Key: "personality", Label: "Personality", Kind: KindTextarea, Order: 3},
			{Key: "appearance", Label: "Appearance", Kind: KindTextarea, Order: 4},
			{Key: "motivation", Label: "Motivation", Kind: KindTextarea, Order: 5},
			{Key: "voice", Label: "Voice", Kind: KindText, Order: 6,
				Help: "Accent, mannerisms, and speech patterns for roleplay."},
			{Key: "status", Label: "Status", Kind: KindSelect, Order: 7, DefaultValue: "alive",
				Options: []string{"alive", "dead", "missing", "unknown"}},
			{Key: "location", Label: "Location", Kind: KindEntityRef, Order: 8,
				EntityTypes: []string{TypeLocation}},
			{Key: "secrets", Label: "Secrets", Kind: KindTextarea, Order: 9, Section: SectionHidden},
		},
	},
	TypeLocation: {
		Key: TypeLocation, Name: "Location", NamePlural: "Locations",
		Icon: "fa-map-pin", Color: "#ef4444", BuiltIn: true,
		DefaultRelationships: []string{"contains", "located in", "ruled by"},
		Fields: []FieldDefinition{
			{Key: "type", Label: "Type", Kind: KindSelect, Order: 1,
				Options: []string{"city", "town", "village", "dungeon", "wilderness", "landmark", "building", "region"}},
			{Key: "population", Label: "Population", Kind: KindNumber, Order: 2},
			{Key: "region", Label: "Region", Kind: KindText, Order: 3},
			{Key: "atmosphere", Label: "Atmosphere", Kind: KindTextarea, Order: 4},
			{Key: "government", Label: "Government", Kind: KindText, Order: 5},
			{Key: "pointsOfInterest", Label: "Points of Interest", Kind: KindTextarea, Order: 6},
			{Key: "secrets", Label: "Secrets", Kind: KindTextarea, Order: 7, Section: SectionHidden},
		},
	},
	TypeFaction: {
		Key: TypeFaction, Name: "Faction", NamePlural: "Factions",
		Icon: "fa-flag", Color: "#f59e0b", BuiltIn: true,
		DefaultRelationships: []string{"allied with", "enemy of", "has member", "controls"},
		Fields: []FieldDefinition{
			{Key: "type", Label: "Type", Kind: KindSelect, Order: 1,
				Options: []string{"guild", "cult", "government", "military", "criminal", "religious", "mercantile"}},
			{Key: "goals", Label: "Goals", Kind: KindTextarea, Order: 2},
			{Key: "resources", Label: "Resources", Kind: KindTextarea, Order: 3},
			{Key: "influence", Label: "Influence", Kind: KindSelect, Order: 4,
				Options: []string{"local", "regional", "national", "continental"}},
			{Key: "headquarters", Label: "Headquarters", Kind: KindEntityRef, Order: 5,
				EntityTypes: []string{TypeLocation}},
			{Key: "allies", Label: "Allies", Kind: KindTags, Order: 6},
			{Key: "enemies", Label: "Enemies", Kind: KindTags, Order: 7},
			{Key: "secrets", Label: "Secrets", Kind: KindTextarea, Order: 8, Section: SectionHidden},
		},
	},
	TypeItem: {
		Key: TypeItem, Name: "Item", NamePlural: "Items",
		Icon: "fa-box", Color: "#8b5cf6", BuiltIn: true,
		DefaultRelationships: []string{"owned by", "created by", "located in"},
		Fields: []FieldDefinition{
			{Key: "type", Label: "Type", Kind: KindSelect, Order: 1,
				Options: []string{"weapon", "armor", "potion", "scroll", "wondrous", "tool", "treasure"}},
			{Key: "rarity", Label: "Rarity", Kind: KindSelect, Order: 2, DefaultValue: "common",
				Options: []string{"common", "uncommon", "rare", "very rare", "legendary", "artifact"}},
			{Key: "value", Label: "Value", Kind: KindNumber, Order: 3,
				Help: "Approximate value in gold pieces."},
			{Key: "properties", Label: "Properties", Kind: KindTextarea, Order: 4},
			{Key: "history", Label: "History", Kind: KindTextarea, Order: 5},
			{Key: "curse", Label: "Curse", Kind: KindTextarea, Order: 6, Section: SectionHidden},
		},
	},
	TypeCreature: {
		Key: TypeCreature, Name: "Creature", NamePlural: "Creatures",
		Icon: "fa-dragon", Color: "#10b981", BuiltIn: true,
		DefaultRelationships: []string{"found in", "serves", "hunts"},
		Fields: []FieldDefinition{
			{Key: "type", Label: "Type", Kind: KindText, Order: 1},
			{Key: "challenge", Label: "Challenge", Kind: KindNumber, Order: 2},
			{Key: "habitat", Label: "Habitat", Kind: KindText, Order: 3},
			{Key: "behavior", Label: "Behavior", Kind: KindTextarea, Order: 4},
			{Key: "abilities", Label: "Abilities", Kind: KindTextarea, Order: 5},
			{Key: "weaknesses", Label: "Weaknesses", Kind: KindTextarea, Order: 6, Section: SectionHidden},
		},
	},
	TypeScene: {
		Key: TypeScene, Name: "Scene", NamePlural: "Scenes",
		Icon: "fa-clapperboard", Color: "#ec4899", BuiltIn: true,
		DefaultRelationships: []string{"takes place in", "features", "follows"},
		Fields: []FieldDefinition{
			{Key: "status", Label: "Status", Kind: KindSelect, Order: 1, DefaultValue: "planned",
				Options: []string{"planned", "active", "completed"}},
			{Key: "objective", Label: "Objective", Kind: KindTextarea, Order: 2},
			{Key: "setting", Label: "Setting", Kind: KindEntityRef, Order: 3,
				EntityTypes: []string{TypeLocation}},
			{Key: "participants", Label: "Participants", Kind: KindEntityRefs, Order: 4,
				EntityTypes: []string{TypeNPC, TypeCreature}},
			{Key: "mood", Label: "Mood", Kind: KindText, Order: 5},
			{Key: "readAloud", Label: "Read-Aloud Text", Kind: KindRichText, Order: 6},
		},
	},
	TypeSession: {
		Key: TypeSession, Name: "Session", NamePlural: "Sessions",
		Icon: "fa-calendar", Color: "#06b6d4", BuiltIn: true,
		DefaultRelationships: []string{"follows", "features"},
		Fields: []FieldDefinition{
			{Key: "date", Label: "Date", Kind: KindDate, Order: 1},
			{Key: "status", Label: "Status", Kind: KindSelect, Order: 2, DefaultValue: "planned",
				Options: []string{"planned", "completed"}},
			{Key: "agenda", Label: "Agenda", Kind: KindTextarea, Order: 3},
			{Key: "recap", Label: "Recap", Kind: KindRichText, Order: 4},
			{Key: "preparation", Label: "Preparation", Kind: KindTextarea, Order: 5},
		},
	},
	TypeDeity: {
		Key: TypeDeity, Name: "Deity", NamePlural: "Deities",
		Icon: "fa-sun", Color: "#eab308", BuiltIn: true,
		DefaultRelationships: []string{"worshiped by", "opposes", "patron of"},
		Fields: []FieldDefinition{
			{Key: "domains", Label: "Domains", Kind: KindTags, Order: 1},
			{Key: "alignment", Label: "Alignment", Kind: KindText, Order: 2},
			{Key: "symbol", Label: "Symbol", Kind: KindText, Order: 3},
			{Key: "worshipers", Label: "Worshipers", Kind: KindTextarea, Order: 4},
			{Key: "tenets", Label: "Tenets", Kind: KindTextarea, Order: 5},
		},
	},
}

// BuiltinTypeKeys returns the built-in type keys in canonical order.
// The returned slice is a copy.
func BuiltinTypeKeys() []string {
	keys := make([]string, len(builtinOrder))
	copy(keys, builtinOrder)
	return keys
}

// IsBuiltinType reports whether the key names a built-in type.
func IsBuiltinType(key string) bool {
	_, ok := builtinTypes[key]
	return ok
}
