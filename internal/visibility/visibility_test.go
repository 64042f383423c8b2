package visibility

import (
	"reflect"
	"testing"

	"github.com/emberfall/lorekeep/internal/catalog"
)

func npcField(key string) *catalog.FieldDefinition {
	def, ok := catalog.Definition(catalog.TypeNPC, nil, nil)
	if !ok {
		panic("npc definition missing")
	}
	for i := range def.Fields {
		if def.Fields[i].Key == key {
			return &def.Fields[i]
		}
	}
	return nil
}

// --- Cascade Tests ---

func TestIsFieldPlayerVisible_HardcodedRules(t *testing.T) {
	tests := []struct {
		name       string
		fieldKey   string
		def        *catalog.FieldDefinition
		entityType string
		want       bool
	}{
		{"notes always hidden", "notes", nil, catalog.TypeNPC, false},
		{"hidden-section field hidden", "secrets", npcField("secrets"), catalog.TypeNPC, false},
		{"session preparation hidden", "preparation", nil, catalog.TypeSession, false},
		{"preparation on other types visible", "preparation", nil, catalog.TypeNPC, true},
		{"ordinary field visible", "role", npcField("role"), catalog.TypeNPC, true},
		{"orphaned key visible", "no-such-field", nil, catalog.TypeNPC, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsFieldPlayerVisible(tt.fieldKey, tt.def, tt.entityType, nil, nil)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsFieldPlayerVisible_EntityOverrideWins(t *testing.T) {
	// notes is hidden by the hardcoded rule; the entity override flips it.
	overrides := map[string]bool{"notes": true}
	if !IsFieldPlayerVisible("notes", nil, catalog.TypeNPC, overrides, nil) {
		t.Error("expected entity override to reveal notes")
	}

	// An override mapped to false wins over everything below it too.
	cfg := SetFieldVisibility(Config{}, catalog.TypeNPC, "role", true)
	overrides = map[string]bool{"role": false}
	if IsFieldPlayerVisible("role", npcField("role"), catalog.TypeNPC, overrides, &cfg) {
		t.Error("expected false entity override to beat category config")
	}
}

func TestIsFieldPlayerVisible_CategoryConfigBeatsHardcoded(t *testing.T) {
	cfg := SetFieldVisibility(Config{}, catalog.TypeNPC, "notes", true)
	if !IsFieldPlayerVisible("notes", nil, catalog.TypeNPC, nil, &cfg) {
		t.Error("expected category config to reveal notes")
	}

	cfg = SetFieldVisibility(Config{}, catalog.TypeNPC, "role", false)
	if IsFieldPlayerVisible("role", npcField("role"), catalog.TypeNPC, nil, &cfg) {
		t.Error("expected category config to hide role")
	}

	// Config for one type must not leak into another.
	if !IsFieldPlayerVisible("role", nil, catalog.TypeLocation, nil, &cfg) {
		t.Error("npc config applied to location")
	}
}

func TestIsFieldPlayerVisible_CoreFields(t *testing.T) {
	for _, key := range CoreFields() {
		if !IsFieldPlayerVisible(key, nil, catalog.TypeNPC, nil, nil) {
			t.Errorf("expected core field %q visible by default", key)
		}
	}

	// Core fields still honor the cascade above the hardcoded tier.
	cfg := SetFieldVisibility(Config{}, catalog.TypeNPC, CoreTags, false)
	if IsFieldPlayerVisible(CoreTags, nil, catalog.TypeNPC, nil, &cfg) {
		t.Error("expected config to hide a core field")
	}
}

func TestCategoryOverride(t *testing.T) {
	if _, ok := CategoryOverride(catalog.TypeNPC, nil); ok {
		t.Error("nil config must not report an override")
	}
	if _, ok := CategoryOverride(catalog.TypeNPC, &Config{}); ok {
		t.Error("empty config must not report an override")
	}

	cfg := SetCategoryVisibility(Config{}, catalog.TypeSession, false)
	visible, ok := CategoryOverride(catalog.TypeSession, &cfg)
	if !ok || visible {
		t.Errorf("expected hidden override, got visible=%v ok=%v", visible, ok)
	}
}

// --- Mutator Tests ---

func TestMutators_Pure(t *testing.T) {
	original := Config{
		FieldVisibility:    map[string]map[string]bool{catalog.TypeNPC: {"role": true}},
		CategoryVisibility: map[string]bool{catalog.TypeSession: false},
	}
	snapshot := Config{
		FieldVisibility:    map[string]map[string]bool{catalog.TypeNPC: {"role": true}},
		CategoryVisibility: map[string]bool{catalog.TypeSession: false},
	}

	_ = SetFieldVisibility(original, catalog.TypeNPC, "race", false)
	_ = RemoveFieldVisibility(original, catalog.TypeNPC, "role")
	_ = ResetEntityTypeConfig(original, catalog.TypeNPC)
	_ = SetCategoryVisibility(original, catalog.TypeNPC, true)
	_ = RemoveCategoryVisibility(original, catalog.TypeSession)

	if !reflect.DeepEqual(original, snapshot) {
		t.Fatalf("mutators modified their input: %+v", original)
	}
}

func TestRemoveFieldVisibility_PrunesEmptyLeaves(t *testing.T) {
	cfg := SetFieldVisibility(Config{}, catalog.TypeNPC, "role", false)
	cfg = RemoveFieldVisibility(cfg, catalog.TypeNPC, "role")
	if !reflect.DeepEqual(cfg, Config{}) {
		t.Fatalf("expected minimal config after removal, got %+v", cfg)
	}
}

func TestResetEntityTypeConfig(t *testing.T) {
	cfg := SetFieldVisibility(Config{}, catalog.TypeNPC, "role", false)
	cfg = SetFieldVisibility(cfg, catalog.TypeNPC, "race", false)
	cfg = SetFieldVisibility(cfg, catalog.TypeLocation, "region", false)

	cfg = ResetEntityTypeConfig(cfg, catalog.TypeNPC)

	if _, ok := cfg.FieldVisibility[catalog.TypeNPC]; ok {
		t.Error("expected npc settings cleared")
	}
	if _, ok := cfg.FieldVisibility[catalog.TypeLocation]; !ok {
		t.Error("expected location settings kept")
	}
}

func TestRemoveCategoryVisibility_PrunesKey(t *testing.T) {
	cfg := SetCategoryVisibility(Config{}, catalog.TypeSession, false)
	cfg = RemoveCategoryVisibility(cfg, catalog.TypeSession)
	if !reflect.DeepEqual(cfg, Config{}) {
		t.Fatalf("expected minimal config, got %+v", cfg)
	}
}

func TestIsCoreField(t *testing.T) {
	if !IsCoreField(CoreDescription) {
		t.Error("expected __core_description recognized")
	}
	if IsCoreField("description") {
		t.Error("plain description is not a core pseudo-field")
	}
}
