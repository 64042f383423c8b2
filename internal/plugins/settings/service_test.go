package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/visibility"
)

// newTestService spins up a miniredis-backed settings service.
func newTestService(t *testing.T) (SettingsService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSettingsService(NewSettingsRepository(rdb)), mr
}

func TestSetGetDelete_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "camp-1", KeyDebug, json.RawMessage(`true`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, err := svc.Get(ctx, "camp-1", KeyDebug)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(val) != "true" {
		t.Errorf("Get() = %s, want true", val)
	}

	if err := svc.Delete(ctx, "camp-1", KeyDebug); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err = svc.Get(ctx, "camp-1", KeyDebug)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("Get() after delete error = %v, want not found", err)
	}
}

func TestSet_RejectsUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Set(context.Background(), "camp-1", "theme", json.RawMessage(`"dark"`))
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("Set() error = %v, want bad request", err)
	}
}

func TestSet_RejectsWrongShape(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		key   string
		value string
	}{
		{KeyDebug, `"yes"`},
		{KeyTypeOrder, `{"a":1}`},
		{KeyContext, `[1,2]`},
		{KeyVisibility, `42`},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := svc.Set(context.Background(), "camp-1", tt.key, json.RawMessage(tt.value))
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Code != 422 {
				t.Fatalf("Set(%s) error = %v, want validation error", tt.key, err)
			}
		})
	}
}

func TestSettings_CampaignScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "camp-1", KeyDebug, json.RawMessage(`true`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if svc.DebugEnabled(ctx, "camp-2") {
		t.Error("setting leaked into another campaign")
	}
	if !svc.DebugEnabled(ctx, "camp-1") {
		t.Error("DebugEnabled() = false, want true")
	}
}

func TestTypedReaders_DefaultOnMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if cfg := svc.VisibilityConfig(ctx, "camp-1"); cfg.FieldVisibility != nil || cfg.CategoryVisibility != nil {
		t.Errorf("VisibilityConfig() = %+v, want zero config", cfg)
	}
	if tuning := svc.ContextTuning(ctx, "camp-1"); tuning != (ContextTuning{}) {
		t.Errorf("ContextTuning() = %+v, want zero", tuning)
	}
	if svc.DebugEnabled(ctx, "camp-1") {
		t.Error("DebugEnabled() = true, want false")
	}
}

func TestTypedReaders_DefaultOnCorruptValue(t *testing.T) {
	svc, mr := newTestService(t)

	mr.HSet("campaign:camp-1:settings", KeyContext, "{not json")

	if tuning := svc.ContextTuning(context.Background(), "camp-1"); tuning != (ContextTuning{}) {
		t.Errorf("ContextTuning() = %+v, want zero on corrupt value", tuning)
	}
}

func TestTypedReaders_DefaultWhenRedisDown(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()

	if tuning := svc.ContextTuning(context.Background(), "camp-1"); tuning != (ContextTuning{}) {
		t.Errorf("ContextTuning() = %+v, want zero when redis is down", tuning)
	}
	if svc.DebugEnabled(context.Background(), "camp-1") {
		t.Error("DebugEnabled() = true, want false when redis is down")
	}
}

func TestContextTuning_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	raw := json.RawMessage(`{"maxDepth":2,"maxRelatedEntities":5,"includeStrength":true}`)
	if err := svc.Set(ctx, "camp-1", KeyContext, raw); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	tuning := svc.ContextTuning(ctx, "camp-1")
	if tuning.MaxDepth != 2 || tuning.MaxRelatedEntities != 5 || !tuning.IncludeStrength {
		t.Errorf("ContextTuning() = %+v", tuning)
	}
}

func TestVisibilityMutators_Persist(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.SetFieldVisibility(ctx, "camp-1", "npc", "secrets", true)
	if err != nil {
		t.Fatalf("SetFieldVisibility() error = %v", err)
	}
	if !cfg.FieldVisibility["npc"]["secrets"] {
		t.Errorf("returned config missing rule: %+v", cfg)
	}

	// A fresh read must see the stored rule.
	stored := svc.VisibilityConfig(ctx, "camp-1")
	if !stored.FieldVisibility["npc"]["secrets"] {
		t.Errorf("stored config missing rule: %+v", stored)
	}

	cfg, err = svc.RemoveFieldVisibility(ctx, "camp-1", "npc", "secrets")
	if err != nil {
		t.Fatalf("RemoveFieldVisibility() error = %v", err)
	}
	if cfg.FieldVisibility != nil {
		t.Errorf("config not pruned after removal: %+v", cfg)
	}
}

func TestVisibilityMutators_CategoryAndReset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SetCategoryVisibility(ctx, "camp-1", "session", false); err != nil {
		t.Fatalf("SetCategoryVisibility() error = %v", err)
	}
	if _, err := svc.SetFieldVisibility(ctx, "camp-1", "session", "recap", true); err != nil {
		t.Fatalf("SetFieldVisibility() error = %v", err)
	}

	cfg, err := svc.ResetEntityTypeConfig(ctx, "camp-1", "session")
	if err != nil {
		t.Fatalf("ResetEntityTypeConfig() error = %v", err)
	}
	if cfg.FieldVisibility != nil || cfg.CategoryVisibility != nil {
		t.Errorf("reset left config behind: %+v", cfg)
	}
}

func TestVisibilityMutators_RequireKeys(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SetFieldVisibility(context.Background(), "camp-1", "", "secrets", true)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("SetFieldVisibility() error = %v, want bad request", err)
	}
}

func TestEffectiveTypes_CustomTypeAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	custom := json.RawMessage(`[{"key":"vehicle","name":"Vehicle","namePlural":"Vehicles","fields":[]}]`)
	if err := svc.Set(ctx, "camp-1", KeyCustomTypes, custom); err != nil {
		t.Fatalf("Set(customTypes) error = %v", err)
	}
	if err := svc.Set(ctx, "camp-1", KeyTypeOrder, json.RawMessage(`["location","npc"]`)); err != nil {
		t.Fatalf("Set(typeOrder) error = %v", err)
	}

	types := svc.EffectiveTypes(ctx, "camp-1")
	if len(types) == 0 {
		t.Fatal("EffectiveTypes() returned nothing")
	}
	if types[0].Key != "location" || types[1].Key != "npc" {
		t.Errorf("order = %s, %s, want location, npc", types[0].Key, types[1].Key)
	}
	if types[len(types)-1].Key != "vehicle" {
		t.Errorf("last type = %s, want custom vehicle", types[len(types)-1].Key)
	}
}

func TestVisibilityConfig_UsedByExportCascade(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := svc.SetFieldVisibility(ctx, "camp-1", "npc", "notes", true)
	if err != nil {
		t.Fatalf("SetFieldVisibility() error = %v", err)
	}

	// The stored rule overrides the hardcoded notes-hidden default.
	if !visibility.IsFieldPlayerVisible("notes", nil, "npc", nil, &cfg) {
		t.Error("config rule did not override hardcoded default")
	}
}
