package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emberfall/lorekeep/internal/llm"
	"github.com/emberfall/lorekeep/internal/middleware"
	"github.com/emberfall/lorekeep/internal/plugins/entities"
	"github.com/emberfall/lorekeep/internal/plugins/export"
	"github.com/emberfall/lorekeep/internal/plugins/scribe"
	"github.com/emberfall/lorekeep/internal/plugins/settings"
)

// RegisterRoutes builds every plugin's dependency chain and registers its
// routes. This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", a.healthz)

	// Entities: CRUD, search, links, scene status.
	entityRepo := entities.NewEntityRepository(a.DB)
	entitySvc := entities.NewEntityService(entityRepo)
	entities.RegisterRoutes(e, entities.NewHandler(entitySvc))

	// Settings: per-campaign configuration in Redis, plus the effective
	// type catalog and visibility rules derived from it.
	settingsSvc := settings.NewSettingsService(settings.NewSettingsRepository(a.Redis))
	settings.RegisterRoutes(e, settings.NewHandler(settingsSvc))

	// Export: the player-facing document assembled from entities + settings.
	exportSvc := export.NewExportService(entitySvc, settingsSvc)
	export.RegisterRoutes(e, export.NewHandler(exportSvc))

	// Scribe: AI parsing, save, summaries, mentions, relationship context.
	// The LLM client is optional; without one scribe falls back to the
	// heuristic parser and summarizer.
	var llmClient llm.Client
	if a.Config.AI.Enabled() {
		client, err := llm.New(llm.Options{
			Provider:  a.Config.AI.Provider,
			Model:     a.Config.AI.Model,
			APIKey:    a.Config.AI.APIKey,
			BaseURL:   a.Config.AI.BaseURL,
			MaxTokens: a.Config.AI.MaxTokens,
		})
		if err != nil {
			slog.Warn("AI provider unavailable, falling back to heuristics",
				slog.String("provider", a.Config.AI.Provider),
				slog.Any("error", err),
			)
		} else {
			llmClient = client
		}
	}

	// AI endpoints are the expensive ones; rate limit them per client IP.
	var aiLimit echo.MiddlewareFunc
	if a.Config.AI.RateLimitPerMin > 0 {
		aiLimit = middleware.RateLimit(a.Config.AI.RateLimitPerMin, time.Minute)
	}

	scribeSvc := scribe.NewScribeService(
		entitySvc,
		entityRepo,
		settingsSvc,
		entities.NewContextStore(entityRepo),
		llmClient,
	)
	scribe.RegisterRoutes(e, scribe.NewHandler(scribeSvc), aiLimit)
}

// healthz reports whether the server can reach its backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded", "database": err.Error(),
		})
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded", "redis": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
