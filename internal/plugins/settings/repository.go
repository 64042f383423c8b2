package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/emberfall/lorekeep/internal/apperror"
)

// SettingsRepository defines the data access contract for campaign settings.
// Values are opaque JSON strings; the service layer owns the shapes.
type SettingsRepository interface {
	// Get retrieves one setting value. Returns NotFound when the key is
	// unset for the campaign.
	Get(ctx context.Context, campaignID, key string) (string, error)

	// Set upserts a setting value.
	Set(ctx context.Context, campaignID, key, value string) error

	// Delete removes a setting, reverting readers to defaults.
	Delete(ctx context.Context, campaignID, key string) error

	// GetAll returns every stored setting for a campaign.
	GetAll(ctx context.Context, campaignID string) (map[string]string, error)
}

// settingsRepository implements SettingsRepository on a Redis hash per
// campaign.
type settingsRepository struct {
	rdb *redis.Client
}

// NewSettingsRepository creates a new settings repository backed by Redis.
func NewSettingsRepository(rdb *redis.Client) SettingsRepository {
	return &settingsRepository{rdb: rdb}
}

// settingsKey returns the Redis hash key holding a campaign's settings.
func settingsKey(campaignID string) string {
	return "campaign:" + campaignID + ":settings"
}

func (r *settingsRepository) Get(ctx context.Context, campaignID, key string) (string, error) {
	val, err := r.rdb.HGet(ctx, settingsKey(campaignID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperror.NewNotFound(fmt.Sprintf("setting %q is not set", key))
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return val, nil
}

func (r *settingsRepository) Set(ctx context.Context, campaignID, key, value string) error {
	if err := r.rdb.HSet(ctx, settingsKey(campaignID), key, value).Err(); err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func (r *settingsRepository) Delete(ctx context.Context, campaignID, key string) error {
	if err := r.rdb.HDel(ctx, settingsKey(campaignID), key).Err(); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

func (r *settingsRepository) GetAll(ctx context.Context, campaignID string) (map[string]string, error) {
	vals, err := r.rdb.HGetAll(ctx, settingsKey(campaignID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return vals, nil
}
