package visibility

// The mutators below never touch their input: each returns a fresh Config
// with the change applied and empty leaf maps pruned away.

// SetFieldVisibility returns a copy of cfg with the field setting applied.
func SetFieldVisibility(cfg Config, entityType, fieldKey string, visible bool) Config {
	out := cloneConfig(cfg)
	if out.FieldVisibility == nil {
		out.FieldVisibility = make(map[string]map[string]bool)
	}
	if out.FieldVisibility[entityType] == nil {
		out.FieldVisibility[entityType] = make(map[string]bool)
	}
	out.FieldVisibility[entityType][fieldKey] = visible
	return out
}

// RemoveFieldVisibility returns a copy of cfg without the field setting.
// Removing the last setting for a type removes the type's key too.
func RemoveFieldVisibility(cfg Config, entityType, fieldKey string) Config {
	out := cloneConfig(cfg)
	if typeCfg, ok := out.FieldVisibility[entityType]; ok {
		delete(typeCfg, fieldKey)
		if len(typeCfg) == 0 {
			delete(out.FieldVisibility, entityType)
		}
	}
	return pruneConfig(out)
}

// ResetEntityTypeConfig returns a copy of cfg with every field setting for
// the type removed.
func ResetEntityTypeConfig(cfg Config, entityType string) Config {
	out := cloneConfig(cfg)
	delete(out.FieldVisibility, entityType)
	return pruneConfig(out)
}

// SetCategoryVisibility returns a copy of cfg with the whole-type override
// applied.
func SetCategoryVisibility(cfg Config, entityType string, visible bool) Config {
	out := cloneConfig(cfg)
	if out.CategoryVisibility == nil {
		out.CategoryVisibility = make(map[string]bool)
	}
	out.CategoryVisibility[entityType] = visible
	return out
}

// RemoveCategoryVisibility returns a copy of cfg without the whole-type
// override.
func RemoveCategoryVisibility(cfg Config, entityType string) Config {
	out := cloneConfig(cfg)
	delete(out.CategoryVisibility, entityType)
	return pruneConfig(out)
}

// cloneConfig deep-copies a config.
func cloneConfig(cfg Config) Config {
	out := Config{}
	if cfg.FieldVisibility != nil {
		out.FieldVisibility = make(map[string]map[string]bool, len(cfg.FieldVisibility))
		for typ, fields := range cfg.FieldVisibility {
			inner := make(map[string]bool, len(fields))
			for k, v := range fields {
				inner[k] = v
			}
			out.FieldVisibility[typ] = inner
		}
	}
	if cfg.CategoryVisibility != nil {
		out.CategoryVisibility = make(map[string]bool, len(cfg.CategoryVisibility))
		for k, v := range cfg.CategoryVisibility {
			out.CategoryVisibility[k] = v
		}
	}
	return out
}

// pruneConfig nils out empty top-level maps so minimal configs stay
// deep-equal to the zero value.
func pruneConfig(cfg Config) Config {
	if len(cfg.FieldVisibility) == 0 {
		cfg.FieldVisibility = nil
	}
	if len(cfg.CategoryVisibility) == 0 {
		cfg.CategoryVisibility = nil
	}
	return cfg
}
