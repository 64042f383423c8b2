package catalog

import "testing"

// --- Definition Tests ---

func TestDefinition_Builtin(t *testing.T) {
	def, ok := Definition(TypeNPC, nil, nil)
	if !ok {
		t.Fatal("expected npc definition to exist")
	}
	if def.Key != TypeNPC {
		t.Errorf("expected key 'npc', got %q", def.Key)
	}
	if !def.BuiltIn {
		t.Error("expected npc to be marked built-in")
	}
	if len(def.Fields) == 0 {
		t.Error("expected npc to have fields")
	}
}

func TestDefinition_Unknown(t *testing.T) {
	_, ok := Definition("starship", nil, nil)
	if ok {
		t.Error("expected unknown type to be not-found")
	}
}

func TestDefinition_CustomType(t *testing.T) {
	custom := []EntityTypeDefinition{
		{Key: "vehicle", Name: "Vehicle", Fields: []FieldDefinition{
			{Key: "speed", Label: "Speed", Kind: KindNumber, Order: 1},
		}},
	}
	def, ok := Definition("vehicle", custom, nil)
	if !ok {
		t.Fatal("expected custom type to be found")
	}
	if def.Name != "Vehicle" {
		t.Errorf("expected name 'Vehicle', got %q", def.Name)
	}
}

func TestDefinition_BuiltinWinsOverCustom(t *testing.T) {
	// A custom type reusing a built-in key must not shadow the built-in.
	custom := []EntityTypeDefinition{{Key: TypeNPC, Name: "Shadowed"}}
	def, _ := Definition(TypeNPC, custom, nil)
	if def.Name != "NPC" {
		t.Errorf("expected built-in to win, got %q", def.Name)
	}
}

func TestDefinition_OverrideHidesFields(t *testing.T) {
	overrides := map[string]EntityTypeOverride{
		TypeNPC: {HiddenFields: []string{"voice", "race"}},
	}
	def, _ := Definition(TypeNPC, nil, overrides)
	for _, f := range def.Fields {
		if f.Key == "voice" || f.Key == "race" {
			t.Errorf("expected field %q to be hidden", f.Key)
		}
	}
}

func TestDefinition_OverrideAppendsFields(t *testing.T) {
	overrides := map[string]EntityTypeOverride{
		TypeNPC: {AdditionalFields: []FieldDefinition{
			{Key: "bond", Label: "Bond", Kind: KindText, Order: 20},
		}},
	}
	def, _ := Definition(TypeNPC, nil, overrides)
	last := def.Fields[len(def.Fields)-1]
	if last.Key != "bond" {
		t.Errorf("expected appended field 'bond' last, got %q", last.Key)
	}
}

func TestDefinition_OverrideReorders(t *testing.T) {
	overrides := map[string]EntityTypeOverride{
		TypeNPC: {FieldOrder: []string{"personality", "role", "no-such-field"}},
	}
	def, _ := Definition(TypeNPC, nil, overrides)
	if def.Fields[0].Key != "personality" {
		t.Errorf("expected 'personality' first, got %q", def.Fields[0].Key)
	}
	if def.Fields[1].Key != "role" {
		t.Errorf("expected 'role' second, got %q", def.Fields[1].Key)
	}
	// Unlisted fields keep their original relative order afterwards.
	if def.Fields[2].Key != "race" {
		t.Errorf("expected 'race' third, got %q", def.Fields[2].Key)
	}
}

func TestDefinition_DoesNotMutateCatalog(t *testing.T) {
	overrides := map[string]EntityTypeOverride{
		TypeNPC: {HiddenFields: []string{"role"}},
	}
	before := len(builtinTypes[TypeNPC].Fields)
	_, _ = Definition(TypeNPC, nil, overrides)
	if len(builtinTypes[TypeNPC].Fields) != before {
		t.Fatal("override mutated the static catalog")
	}

	// Mutating the returned copy must not leak into the table either.
	def, _ := Definition(TypeNPC, nil, nil)
	def.Fields[0].Label = "Tampered"
	fresh, _ := Definition(TypeNPC, nil, nil)
	if fresh.Fields[0].Label == "Tampered" {
		t.Fatal("returned definition shares memory with the static catalog")
	}
}

// --- All / OrderedTypes Tests ---

func TestAll_BuiltinsThenCustom(t *testing.T) {
	custom := []EntityTypeDefinition{{Key: "vehicle", Name: "Vehicle"}}
	all := All(custom, nil)
	if len(all) != len(builtinOrder)+1 {
		t.Fatalf("expected %d types, got %d", len(builtinOrder)+1, len(all))
	}
	if all[0].Key != TypeNPC {
		t.Errorf("expected npc first, got %q", all[0].Key)
	}
	if all[len(all)-1].Key != "vehicle" {
		t.Errorf("expected custom type last, got %q", all[len(all)-1].Key)
	}
}

func TestAll_SkipsSidebarHidden(t *testing.T) {
	overrides := map[string]EntityTypeOverride{
		TypeDeity: {HideFromSidebar: true},
	}
	for _, def := range All(nil, overrides) {
		if def.Key == TypeDeity {
			t.Fatal("expected deity to be hidden from listing")
		}
	}
}

func TestOrderedTypes_CustomOrder(t *testing.T) {
	ordered := OrderedTypes([]string{TypeScene, TypeNPC, "bogus"}, nil, nil)
	if ordered[0].Key != TypeScene {
		t.Errorf("expected scene first, got %q", ordered[0].Key)
	}
	if ordered[1].Key != TypeNPC {
		t.Errorf("expected npc second, got %q", ordered[1].Key)
	}
	// Remaining built-ins follow in canonical order.
	if ordered[2].Key != TypeLocation {
		t.Errorf("expected location third, got %q", ordered[2].Key)
	}
	if len(ordered) != len(builtinOrder) {
		t.Errorf("expected %d types, got %d", len(builtinOrder), len(ordered))
	}
}

func TestOrderedTypes_BuiltinsBeforeCustom(t *testing.T) {
	custom := []EntityTypeDefinition{{Key: "vehicle", Name: "Vehicle"}}
	// Even when the custom order lists the custom type first, built-ins
	// are emitted before custom types.
	ordered := OrderedTypes([]string{"vehicle", TypeNPC}, custom, nil)
	if ordered[0].Key != TypeNPC {
		t.Errorf("expected npc first, got %q", ordered[0].Key)
	}
	if ordered[len(ordered)-1].Key != "vehicle" {
		t.Errorf("expected vehicle last, got %q", ordered[len(ordered)-1].Key)
	}
}

// --- ApplySystemModification Tests ---

func TestApplySystemModification_HidesFields(t *testing.T) {
	fields := builtinTypes[TypeNPC].Fields
	out := ApplySystemModification(fields, SystemModification{HideFields: []string{"race"}})
	for _, f := range out {
		if f.Key == "race" {
			t.Error("expected 'race' to be hidden")
		}
	}
	if len(out) != len(fields)-1 {
		t.Errorf("expected %d fields, got %d", len(fields)-1, len(out))
	}
}

func TestApplySystemModification_OverridesOptions(t *testing.T) {
	mod := SystemModification{
		OptionOverrides: map[string][]string{"status": {"active", "retired"}},
	}
	out := ApplySystemModification(builtinTypes[TypeNPC].Fields, mod)
	for _, f := range out {
		if f.Key == "status" {
			if len(f.Options) != 2 || f.Options[0] != "active" {
				t.Errorf("expected replaced options, got %v", f.Options)
			}
			return
		}
	}
	t.Fatal("status field missing from output")
}

func TestApplySystemModification_OptionOverrideIgnoredForNonSelect(t *testing.T) {
	mod := SystemModification{
		OptionOverrides: map[string][]string{"role": {"a", "b"}},
	}
	out := ApplySystemModification(builtinTypes[TypeNPC].Fields, mod)
	for _, f := range out {
		if f.Key == "role" && len(f.Options) != 0 {
			t.Errorf("expected text field options untouched, got %v", f.Options)
		}
	}
}

func TestApplySystemModification_AddAndReplace(t *testing.T) {
	mod := SystemModification{
		AddFields: []FieldDefinition{
			{Key: "role", Label: "Profession", Kind: KindText, Order: 1}, // replace
			{Key: "honor", Label: "Honor", Kind: KindNumber, Order: 0},   // add, sorts first
		},
	}
	out := ApplySystemModification(builtinTypes[TypeNPC].Fields, mod)
	if out[0].Key != "honor" {
		t.Errorf("expected 'honor' sorted first by order, got %q", out[0].Key)
	}
	for _, f := range out {
		if f.Key == "role" && f.Label != "Profession" {
			t.Errorf("expected 'role' replaced with label 'Profession', got %q", f.Label)
		}
	}
}

func TestApplySystemModification_DoesNotMutateInput(t *testing.T) {
	fields := builtinTypes[TypeNPC].Fields
	label := fields[0].Label
	_ = ApplySystemModification(fields, SystemModification{
		HideFields:      []string{"race"},
		OptionOverrides: map[string][]string{"status": {"x"}},
	})
	if builtinTypes[TypeNPC].Fields[0].Label != label {
		t.Fatal("modification mutated the input field list")
	}
}

// --- Catalog Invariant Tests ---

func TestBuiltinTypes_UniqueFieldKeysAndOrders(t *testing.T) {
	for _, key := range BuiltinTypeKeys() {
		def, _ := Definition(key, nil, nil)
		keys := make(map[string]bool)
		orders := make(map[int]bool)
		for _, f := range def.Fields {
			if keys[f.Key] {
				t.Errorf("%s: duplicate field key %q", key, f.Key)
			}
			keys[f.Key] = true
			if orders[f.Order] {
				t.Errorf("%s: duplicate field order %d (key %q)", key, f.Order, f.Key)
			}
			orders[f.Order] = true
		}
	}
}

func TestRelationshipTemplates_Lookup(t *testing.T) {
	tmpl, ok := FindRelationshipTemplate("member")
	if !ok {
		t.Fatal("expected 'member' template to exist")
	}
	if tmpl.Reverse != "has member" {
		t.Errorf("expected reverse 'has member', got %q", tmpl.Reverse)
	}

	if _, ok := FindRelationshipTemplate("no-such"); ok {
		t.Error("expected lookup miss for unknown template")
	}
}

func TestRelationshipTemplates_ReturnsCopy(t *testing.T) {
	a := RelationshipTemplates()
	a[0].Name = "Tampered"
	b := RelationshipTemplates()
	if b[0].Name == "Tampered" {
		t.Fatal("RelationshipTemplates returned shared backing array")
	}
}
