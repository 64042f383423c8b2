package entities

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/catalog"
	"github.com/emberfall/lorekeep/internal/parser"
	"github.com/emberfall/lorekeep/internal/sanitize"
)

// EntityService handles business logic for entity operations: schema
// validation against the type catalog, slug generation, relationship link
// management, duplication, and the scene status workflow.
type EntityService interface {
	Create(ctx context.Context, campaignID, userID string, input CreateEntityInput) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	GetBySlug(ctx context.Context, campaignID, slug string) (*Entity, error)
	Update(ctx context.Context, entityID string, input UpdateEntityInput) (*Entity, error)
	Delete(ctx context.Context, entityID string) error

	List(ctx context.Context, campaignID, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error)
	Search(ctx context.Context, campaignID, query, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error)
	CountByType(ctx context.Context, campaignID string, playerOnly bool) (map[string]int, error)

	Duplicate(ctx context.Context, entityID string) (*Entity, error)

	AddLink(ctx context.Context, entityID string, input LinkInput) (*Entity, error)
	RemoveLink(ctx context.Context, entityID, targetID, relationship string) (*Entity, error)

	TransitionSceneStatus(ctx context.Context, entityID, status string) (*Entity, error)
}

// entityService implements EntityService.
type entityService struct {
	entities EntityRepository
}

// NewEntityService creates a new entity service with the given dependencies.
func NewEntityService(entities EntityRepository) EntityService {
	return &entityService{entities: entities}
}

// --- CRUD ---

// Create validates input against the type catalog and inserts a new entity.
func (s *entityService) Create(ctx context.Context, campaignID, userID string, input CreateEntityInput) (*Entity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("entity name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("entity name must be at most 200 characters")
	}

	def, ok := catalog.Definition(input.Type, nil, nil)
	if !ok {
		return nil, apperror.NewBadRequest(fmt.Sprintf("unknown entity type %q", input.Type))
	}

	fields := input.Fields
	if fields == nil {
		fields = make(map[string]any)
	}
	if errs := parser.ValidateFields(fields, def.Fields); len(errs) > 0 {
		return nil, apperror.NewValidation(validationSummary(errs))
	}

	slug, err := s.generateSlug(ctx, campaignID, name)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	now := time.Now().UTC()
	entity := &Entity{
		ID:            generateUUID(),
		CampaignID:    campaignID,
		Type:          def.Key,
		Name:          name,
		Slug:          slug,
		Description:   sanitize.HTML(input.Description),
		Summary:       strings.TrimSpace(input.Summary),
		Notes:         input.Notes,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		PlayerVisible: input.PlayerVisible,
		Tags:          normalizeTags(input.Tags),
		Fields:        fields,
		Links:         []Link{},
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Metadata != nil {
		entity.Metadata = *input.Metadata
	}

	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating entity: %w", err))
	}

	slog.Info("entity created",
		slog.String("entity_id", entity.ID),
		slog.String("campaign_id", campaignID),
		slog.String("type", entity.Type),
		slog.String("name", name),
	)

	return entity, nil
}

// GetByID retrieves an entity by ID.
func (s *entityService) GetByID(ctx context.Context, id string) (*Entity, error) {
	return s.entities.FindByID(ctx, id)
}

// GetBySlug retrieves an entity by campaign ID and slug.
func (s *entityService) GetBySlug(ctx context.Context, campaignID, slug string) (*Entity, error) {
	return s.entities.FindBySlug(ctx, campaignID, slug)
}

// Update modifies an existing entity. Absent pointer members keep their
// current values; field values are re-validated against the type catalog.
func (s *entityService) Update(ctx context.Context, entityID string, input UpdateEntityInput) (*Entity, error) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("entity name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("entity name must be at most 200 characters")
	}
	if name != entity.Name {
		slug, err := s.generateSlug(ctx, entity.CampaignID, name)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
		}
		entity.Slug = slug
	}
	entity.Name = name

	if input.Description != nil {
		entity.Description = sanitize.HTML(*input.Description)
	}
	if input.Summary != nil {
		entity.Summary = strings.TrimSpace(*input.Summary)
	}
	if input.Notes != nil {
		entity.Notes = *input.Notes
	}
	if input.ImageURL != nil {
		entity.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.PlayerVisible != nil {
		entity.PlayerVisible = *input.PlayerVisible
	}
	if input.Tags != nil {
		entity.Tags = normalizeTags(input.Tags)
	}
	if input.Fields != nil {
		def, ok := catalog.Definition(entity.Type, nil, nil)
		if ok {
			if errs := parser.ValidateFields(input.Fields, def.Fields); len(errs) > 0 {
				return nil, apperror.NewValidation(validationSummary(errs))
			}
		}
		entity.Fields = input.Fields
	}
	if input.Overrides != nil {
		entity.Metadata.PlayerExportFieldOverrides = input.Overrides
	}

	entity.UpdatedAt = time.Now().UTC()

	if err := s.entities.Update(ctx, entity); err != nil {
		return nil, err
	}

	slog.Info("entity updated", slog.String("entity_id", entityID))
	return entity, nil
}

// Delete removes an entity.
func (s *entityService) Delete(ctx context.Context, entityID string) error {
	if err := s.entities.Delete(ctx, entityID); err != nil {
		return err
	}
	slog.Info("entity deleted", slog.String("entity_id", entityID))
	return nil
}

// --- Listing and Search ---

// List returns entities with pagination and optional type filter.
func (s *entityService) List(ctx context.Context, campaignID, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error) {
	opts = clampListOptions(opts)
	return s.entities.ListByCampaign(ctx, campaignID, typeKey, playerOnly, opts)
}

// Search performs a text search on entity names with a minimum query length.
func (s *entityService) Search(ctx context.Context, campaignID, query, typeKey string, playerOnly bool, opts ListOptions) ([]Entity, int, error) {
	q := strings.TrimSpace(query)
	if len(q) < 2 {
		return nil, 0, apperror.NewBadRequest("search query must be at least 2 characters")
	}
	opts = clampListOptions(opts)
	return s.entities.Search(ctx, campaignID, q, typeKey, playerOnly, opts)
}

// CountByType returns entity counts per type key.
func (s *entityService) CountByType(ctx context.Context, campaignID string, playerOnly bool) (map[string]int, error) {
	return s.entities.CountByType(ctx, campaignID, playerOnly)
}

// --- Duplication ---

// Duplicate copies an entity under a new id and slug with a " (Copy)" name
// suffix and fresh timestamps. Links are carried over; the copy starts
// GM-only so an accidental duplicate never leaks to players.
func (s *entityService) Duplicate(ctx context.Context, entityID string) (*Entity, error) {
	source, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	name := source.Name + " (Copy)"
	if len(name) > 200 {
		name = name[:200]
	}
	slug, err := s.generateSlug(ctx, source.CampaignID, name)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	now := time.Now().UTC()
	copied := *source
	copied.ID = generateUUID()
	copied.Name = name
	copied.Slug = slug
	copied.PlayerVisible = false
	copied.Fields = cloneFieldMap(source.Fields)
	copied.Tags = append([]string(nil), source.Tags...)
	copied.Links = append([]Link(nil), source.Links...)
	copied.CreatedAt = now
	copied.UpdatedAt = now

	if err := s.entities.Create(ctx, &copied); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("duplicating entity: %w", err))
	}

	slog.Info("entity duplicated",
		slog.String("source_id", entityID),
		slog.String("copy_id", copied.ID),
	)
	return &copied, nil
}

// --- Relationship links ---

// AddLink attaches a relationship edge to an entity. The target must exist
// in the same campaign; duplicate edges (same target and relationship) are
// rejected.
func (s *entityService) AddLink(ctx context.Context, entityID string, input LinkInput) (*Entity, error) {
	relationship := strings.TrimSpace(input.Relationship)
	if relationship == "" {
		return nil, apperror.NewBadRequest("relationship name is required")
	}
	targetID := strings.TrimSpace(input.TargetID)
	if targetID == "" {
		return nil, apperror.NewBadRequest("link target is required")
	}
	if targetID == entityID {
		return nil, apperror.NewBadRequest("an entity cannot link to itself")
	}

	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	target, err := s.entities.FindByID(ctx, targetID)
	if err != nil {
		return nil, apperror.NewBadRequest("link target not found")
	}
	if target.CampaignID != entity.CampaignID {
		return nil, apperror.NewBadRequest("link target does not belong to this campaign")
	}

	for _, l := range entity.Links {
		if l.TargetID == targetID && l.Relationship == relationship {
			return nil, apperror.NewConflict("this relationship link already exists")
		}
	}

	entity.Links = append(entity.Links, Link{
		TargetID:     targetID,
		Relationship: relationship,
		Strength:     strings.TrimSpace(input.Strength),
		Notes:        input.Notes,
	})
	entity.UpdatedAt = time.Now().UTC()

	if err := s.entities.Update(ctx, entity); err != nil {
		return nil, err
	}

	slog.Info("entity link added",
		slog.String("entity_id", entityID),
		slog.String("target_id", targetID),
		slog.String("relationship", relationship),
	)
	return entity, nil
}

// RemoveLink detaches a relationship edge. Removing an edge that does not
// exist is a not-found error.
func (s *entityService) RemoveLink(ctx context.Context, entityID, targetID, relationship string) (*Entity, error) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	kept := entity.Links[:0:0]
	removed := false
	for _, l := range entity.Links {
		if l.TargetID == targetID && l.Relationship == relationship {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return nil, apperror.NewNotFound("relationship link not found")
	}

	entity.Links = kept
	entity.UpdatedAt = time.Now().UTC()

	if err := s.entities.Update(ctx, entity); err != nil {
		return nil, err
	}

	slog.Info("entity link removed",
		slog.String("entity_id", entityID),
		slog.String("target_id", targetID),
	)
	return entity, nil
}

// --- Scene status ---

// TransitionSceneStatus moves a scene along its workflow. Only scene
// entities have a status workflow; invalid moves are rejected.
func (s *entityService) TransitionSceneStatus(ctx context.Context, entityID, status string) (*Entity, error) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Type != catalog.TypeScene {
		return nil, apperror.NewBadRequest("only scenes have a status workflow")
	}

	current := SceneStatusPlanned
	if v, ok := entity.Fields["status"].(string); ok && v != "" {
		current = v
	}
	if !SceneTransitionAllowed(current, status) {
		return nil, apperror.NewBadRequest(
			fmt.Sprintf("cannot move scene from %q to %q", current, status))
	}

	if entity.Fields == nil {
		entity.Fields = make(map[string]any)
	}
	entity.Fields["status"] = status
	entity.UpdatedAt = time.Now().UTC()

	if err := s.entities.Update(ctx, entity); err != nil {
		return nil, err
	}

	slog.Info("scene status changed",
		slog.String("entity_id", entityID),
		slog.String("from", current),
		slog.String("to", status),
	)
	return entity, nil
}

// --- Helpers ---

// maxSlugAttempts caps slug deduplication iterations to prevent DoS from
// adversarial name collisions.
const maxSlugAttempts = 100

// generateSlug creates a unique slug for an entity within a campaign.
// If the base slug is taken, appends -2, -3, etc. After maxSlugAttempts,
// falls back to a random suffix.
func (s *entityService) generateSlug(ctx context.Context, campaignID, name string) (string, error) {
	base := Slugify(name)
	slug := base

	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.entities.SlugExists(ctx, campaignID, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}

// generateUUID creates a new v4 UUID string using crypto/rand.
// Panics if the system entropy source fails, as this indicates a
// catastrophic system problem.
func generateUUID() string {
	uuid := make([]byte, 16)
	if _, err := rand.Read(uuid); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40 // Version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // Variant RFC 4122
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}

func clampListOptions(opts ListOptions) ListOptions {
	if opts.PerPage < 1 || opts.PerPage > 100 {
		opts.PerPage = 24
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	return opts
}

// normalizeTags lowercases, trims, and deduplicates tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cloneFieldMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// validationSummary flattens a field-error map into one message for the
// error response body.
func validationSummary(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for _, msg := range errs {
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}
