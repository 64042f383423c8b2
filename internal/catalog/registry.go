package catalog

import "sort"

// Definition resolves the effective type definition for a key. Built-in types
// are checked first; if found, the campaign override for that key (if any) is
// applied. Otherwise the custom-types list is searched. Returns false when
// the key is unknown.
//
// The returned definition is always a copy — callers may not reach the
// static tables through it.
func Definition(typeKey string, customTypes []EntityTypeDefinition, overrides map[string]EntityTypeOverride) (EntityTypeDefinition, bool) {
	if def, ok := builtinTypes[typeKey]; ok {
		return applyOverride(cloneDefinition(def), overrides[typeKey]), true
	}
	for _, ct := range customTypes {
		if ct.Key == typeKey {
			return cloneDefinition(ct), true
		}
	}
	return EntityTypeDefinition{}, false
}

// All returns every effective type definition: override-adjusted built-ins in
// canonical order (skipping any whose override hides it from the sidebar),
// followed by the custom types as given.
func All(customTypes []EntityTypeDefinition, overrides map[string]EntityTypeOverride) []EntityTypeDefinition {
	out := make([]EntityTypeDefinition, 0, len(builtinOrder)+len(customTypes))
	for _, key := range builtinOrder {
		if ov, ok := overrides[key]; ok && ov.HideFromSidebar {
			continue
		}
		out = append(out, applyOverride(cloneDefinition(builtinTypes[key]), overrides[key]))
	}
	for _, ct := range customTypes {
		out = append(out, cloneDefinition(ct))
	}
	return out
}

// OrderedTypes returns all effective types in display order. Built-in types
// come first, in the caller-supplied custom order when given: unknown keys in
// customOrder are skipped, and built-ins absent from it are appended in
// canonical order. Custom types follow, respecting any positions customOrder
// assigns to them, with the remainder in catalog order.
func OrderedTypes(customOrder []string, customTypes []EntityTypeDefinition, overrides map[string]EntityTypeOverride) []EntityTypeDefinition {
	all := All(customTypes, overrides)
	byKey := make(map[string]EntityTypeDefinition, len(all))
	for _, def := range all {
		byKey[def.Key] = def
	}

	seen := make(map[string]bool, len(all))
	var builtins, customs []EntityTypeDefinition

	place := func(def EntityTypeDefinition) {
		if def.BuiltIn {
			builtins = append(builtins, def)
		} else {
			customs = append(customs, def)
		}
	}

	for _, key := range customOrder {
		def, ok := byKey[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		place(def)
	}
	for _, def := range all {
		if !seen[def.Key] {
			place(def)
		}
	}

	return append(builtins, customs...)
}

// ApplySystemModification applies a system-profile modification to a field
// list: hidden fields are dropped, select option lists are replaced by key,
// and added fields replace any existing field with the same key. The result
// is re-sorted by Order. The input slice is not mutated.
func ApplySystemModification(fields []FieldDefinition, mod SystemModification) []FieldDefinition {
	hidden := make(map[string]bool, len(mod.HideFields))
	for _, key := range mod.HideFields {
		hidden[key] = true
	}

	out := make([]FieldDefinition, 0, len(fields)+len(mod.AddFields))
	replaced := make(map[string]bool)

	for _, f := range fields {
		if hidden[f.Key] {
			continue
		}
		fc := cloneField(f)
		if opts, ok := mod.OptionOverrides[f.Key]; ok && isSelectKind(f.Kind) {
			fc.Options = append([]string(nil), opts...)
		}
		for _, add := range mod.AddFields {
			if add.Key == f.Key {
				fc = cloneField(add)
				replaced[add.Key] = true
				break
			}
		}
		out = append(out, fc)
	}

	for _, add := range mod.AddFields {
		if !replaced[add.Key] && !hidden[add.Key] {
			out = append(out, cloneField(add))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// applyOverride produces the effective definition for a built-in type under
// a campaign override: hidden fields filtered out, additional fields
// appended, then an optional explicit reorder.
func applyOverride(def EntityTypeDefinition, ov EntityTypeOverride) EntityTypeDefinition {
	if len(ov.HiddenFields) > 0 {
		hidden := make(map[string]bool, len(ov.HiddenFields))
		for _, key := range ov.HiddenFields {
			hidden[key] = true
		}
		kept := def.Fields[:0:0]
		for _, f := range def.Fields {
			if !hidden[f.Key] {
				kept = append(kept, f)
			}
		}
		def.Fields = kept
	}

	for _, extra := range ov.AdditionalFields {
		def.Fields = append(def.Fields, cloneField(extra))
	}

	if len(ov.FieldOrder) > 0 {
		def.Fields = reorderFields(def.Fields, ov.FieldOrder)
	}

	return def
}

// reorderFields places fields named in order first (skipping unknown keys);
// fields not listed keep their original relative order at the end.
func reorderFields(fields []FieldDefinition, order []string) []FieldDefinition {
	byKey := make(map[string]FieldDefinition, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	out := make([]FieldDefinition, 0, len(fields))
	placed := make(map[string]bool, len(fields))
	for _, key := range order {
		if f, ok := byKey[key]; ok && !placed[key] {
			out = append(out, f)
			placed[key] = true
		}
	}
	for _, f := range fields {
		if !placed[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

// isSelectKind reports whether a field kind carries an option list.
func isSelectKind(kind FieldKind) bool {
	return kind == KindSelect || kind == KindMultiSelect
}

// cloneDefinition deep-copies a definition so callers cannot mutate the
// static tables through returned values.
func cloneDefinition(def EntityTypeDefinition) EntityTypeDefinition {
	out := def
	out.Fields = make([]FieldDefinition, len(def.Fields))
	for i, f := range def.Fields {
		out.Fields[i] = cloneField(f)
	}
	out.DefaultRelationships = append([]string(nil), def.DefaultRelationships...)
	return out
}

// cloneField copies a field definition including its option slices.
func cloneField(f FieldDefinition) FieldDefinition {
	out := f
	out.Options = append([]string(nil), f.Options...)
	out.EntityTypes = append([]string(nil), f.EntityTypes...)
	return out
}
