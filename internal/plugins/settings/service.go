package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/catalog"
	"github.com/emberfall/lorekeep/internal/visibility"
)

// SettingsService handles business logic for campaign settings: key
// validation, JSON shape checks, and typed readers with default fallback.
//
// The typed readers never fail. A campaign with no stored settings, or a
// Redis that is down, behaves exactly like a campaign on defaults; failures
// are logged and swallowed.
type SettingsService interface {
	Get(ctx context.Context, campaignID, key string) (json.RawMessage, error)
	Set(ctx context.Context, campaignID, key string, value json.RawMessage) error
	Delete(ctx context.Context, campaignID, key string) error
	All(ctx context.Context, campaignID string) (map[string]json.RawMessage, error)

	// VisibilityConfig returns the stored visibility config, or an empty
	// config when unset.
	VisibilityConfig(ctx context.Context, campaignID string) visibility.Config

	SetFieldVisibility(ctx context.Context, campaignID, entityType, fieldKey string, visible bool) (visibility.Config, error)
	RemoveFieldVisibility(ctx context.Context, campaignID, entityType, fieldKey string) (visibility.Config, error)
	SetCategoryVisibility(ctx context.Context, campaignID, entityType string, visible bool) (visibility.Config, error)
	RemoveCategoryVisibility(ctx context.Context, campaignID, entityType string) (visibility.Config, error)
	ResetEntityTypeConfig(ctx context.Context, campaignID, entityType string) (visibility.Config, error)

	// ContextTuning returns the stored relationship-context tuning, zero
	// when unset.
	ContextTuning(ctx context.Context, campaignID string) ContextTuning

	// TypeCustomization returns the campaign's type order, custom types,
	// and built-in overrides, all empty when unset.
	TypeCustomization(ctx context.Context, campaignID string) TypeCustomization

	// EffectiveTypes returns the campaign's entity types in display order.
	EffectiveTypes(ctx context.Context, campaignID string) []catalog.EntityTypeDefinition

	// DebugEnabled reports whether parse debug payloads are enabled.
	DebugEnabled(ctx context.Context, campaignID string) bool
}

// settingsService implements SettingsService.
type settingsService struct {
	repo SettingsRepository
}

// NewSettingsService creates a new settings service with the given dependencies.
func NewSettingsService(repo SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// --- Raw key-value API ---

// Get returns one setting's raw JSON value.
func (s *settingsService) Get(ctx context.Context, campaignID, key string) (json.RawMessage, error) {
	if !KnownKey(key) {
		return nil, apperror.NewBadRequest(fmt.Sprintf("unknown setting %q", key))
	}
	val, err := s.repo.Get(ctx, campaignID, key)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

// Set validates and stores one setting. The value must be JSON of the shape
// the key expects.
func (s *settingsService) Set(ctx context.Context, campaignID, key string, value json.RawMessage) error {
	if !KnownKey(key) {
		return apperror.NewBadRequest(fmt.Sprintf("unknown setting %q", key))
	}
	if err := validateShape(key, value); err != nil {
		return apperror.NewValidation(err.Error())
	}
	if err := s.repo.Set(ctx, campaignID, key, string(value)); err != nil {
		return apperror.NewInternal(err)
	}
	slog.Info("campaign setting updated",
		slog.String("campaign_id", campaignID),
		slog.String("key", key),
	)
	return nil
}

// Delete removes one setting, reverting readers to defaults.
func (s *settingsService) Delete(ctx context.Context, campaignID, key string) error {
	if !KnownKey(key) {
		return apperror.NewBadRequest(fmt.Sprintf("unknown setting %q", key))
	}
	if err := s.repo.Delete(ctx, campaignID, key); err != nil {
		return apperror.NewInternal(err)
	}
	slog.Info("campaign setting removed",
		slog.String("campaign_id", campaignID),
		slog.String("key", key),
	)
	return nil
}

// All returns every stored setting for a campaign as raw JSON.
func (s *settingsService) All(ctx context.Context, campaignID string) (map[string]json.RawMessage, error) {
	vals, err := s.repo.GetAll(ctx, campaignID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	out := make(map[string]json.RawMessage, len(vals))
	for k, v := range vals {
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

// validateShape checks that a raw value unmarshals into the type stored
// under key.
func validateShape(key string, value json.RawMessage) error {
	var target any
	switch key {
	case KeyVisibility:
		target = &visibility.Config{}
	case KeyTypeOrder:
		target = &[]string{}
	case KeyCustomTypes:
		target = &[]catalog.EntityTypeDefinition{}
	case KeyTypeOverrides:
		target = &map[string]catalog.EntityTypeOverride{}
	case KeyContext:
		target = &ContextTuning{}
	case KeyDebug:
		target = new(bool)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := json.Unmarshal(value, target); err != nil {
		return fmt.Errorf("setting %q: invalid value: %v", key, err)
	}
	return nil
}

// --- Typed readers ---

// load unmarshals one setting into target, reporting whether a usable value
// was found. Missing keys are normal; anything else is logged once.
func (s *settingsService) load(ctx context.Context, campaignID, key string, target any) bool {
	val, err := s.repo.Get(ctx, campaignID, key)
	if err != nil {
		if apperror.SafeCode(err) != 404 {
			slog.Warn("settings read failed, using defaults",
				slog.String("campaign_id", campaignID),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), target); err != nil {
		slog.Warn("settings value corrupt, using defaults",
			slog.String("campaign_id", campaignID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (s *settingsService) VisibilityConfig(ctx context.Context, campaignID string) visibility.Config {
	var cfg visibility.Config
	s.load(ctx, campaignID, KeyVisibility, &cfg)
	return cfg
}

func (s *settingsService) ContextTuning(ctx context.Context, campaignID string) ContextTuning {
	var tuning ContextTuning
	s.load(ctx, campaignID, KeyContext, &tuning)
	return tuning
}

func (s *settingsService) TypeCustomization(ctx context.Context, campaignID string) TypeCustomization {
	var tc TypeCustomization
	s.load(ctx, campaignID, KeyTypeOrder, &tc.Order)
	s.load(ctx, campaignID, KeyCustomTypes, &tc.CustomTypes)
	s.load(ctx, campaignID, KeyTypeOverrides, &tc.Overrides)
	return tc
}

func (s *settingsService) EffectiveTypes(ctx context.Context, campaignID string) []catalog.EntityTypeDefinition {
	tc := s.TypeCustomization(ctx, campaignID)
	return catalog.OrderedTypes(tc.Order, tc.CustomTypes, tc.Overrides)
}

func (s *settingsService) DebugEnabled(ctx context.Context, campaignID string) bool {
	var debug bool
	s.load(ctx, campaignID, KeyDebug, &debug)
	return debug
}

// --- Visibility config mutation ---

// mutateVisibility applies a pure config transform under read-modify-write.
func (s *settingsService) mutateVisibility(ctx context.Context, campaignID string, fn func(visibility.Config) visibility.Config) (visibility.Config, error) {
	cfg := fn(s.VisibilityConfig(ctx, campaignID))
	raw, err := json.Marshal(cfg)
	if err != nil {
		return visibility.Config{}, apperror.NewInternal(fmt.Errorf("encoding visibility config: %w", err))
	}
	if err := s.repo.Set(ctx, campaignID, KeyVisibility, string(raw)); err != nil {
		return visibility.Config{}, apperror.NewInternal(err)
	}
	return cfg, nil
}

func (s *settingsService) SetFieldVisibility(ctx context.Context, campaignID, entityType, fieldKey string, visible bool) (visibility.Config, error) {
	if entityType == "" || fieldKey == "" {
		return visibility.Config{}, apperror.NewBadRequest("entity type and field key are required")
	}
	return s.mutateVisibility(ctx, campaignID, func(cfg visibility.Config) visibility.Config {
		return visibility.SetFieldVisibility(cfg, entityType, fieldKey, visible)
	})
}

func (s *settingsService) RemoveFieldVisibility(ctx context.Context, campaignID, entityType, fieldKey string) (visibility.Config, error) {
	if entityType == "" || fieldKey == "" {
		return visibility.Config{}, apperror.NewBadRequest("entity type and field key are required")
	}
	return s.mutateVisibility(ctx, campaignID, func(cfg visibility.Config) visibility.Config {
		return visibility.RemoveFieldVisibility(cfg, entityType, fieldKey)
	})
}

func (s *settingsService) SetCategoryVisibility(ctx context.Context, campaignID, entityType string, visible bool) (visibility.Config, error) {
	if entityType == "" {
		return visibility.Config{}, apperror.NewBadRequest("entity type is required")
	}
	return s.mutateVisibility(ctx, campaignID, func(cfg visibility.Config) visibility.Config {
		return visibility.SetCategoryVisibility(cfg, entityType, visible)
	})
}

func (s *settingsService) RemoveCategoryVisibility(ctx context.Context, campaignID, entityType string) (visibility.Config, error) {
	if entityType == "" {
		return visibility.Config{}, apperror.NewBadRequest("entity type is required")
	}
	return s.mutateVisibility(ctx, campaignID, func(cfg visibility.Config) visibility.Config {
		return visibility.RemoveCategoryVisibility(cfg, entityType)
	})
}

func (s *settingsService) ResetEntityTypeConfig(ctx context.Context, campaignID, entityType string) (visibility.Config, error) {
	if entityType == "" {
		return visibility.Config{}, apperror.NewBadRequest("entity type is required")
	}
	return s.mutateVisibility(ctx, campaignID, func(cfg visibility.Config) visibility.Config {
		return visibility.ResetEntityTypeConfig(cfg, entityType)
	})
}
