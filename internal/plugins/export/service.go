// Package export assembles player-safe campaign documents. It walks every
// player-visible entity, applies the visibility cascade field by field, and
// strips inline GM secrets from rich text, so nothing the GM marked private
// can reach a player handout.
package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/catalog"
	"github.com/emberfall/lorekeep/internal/plugins/entities"
	"github.com/emberfall/lorekeep/internal/plugins/settings"
	"github.com/emberfall/lorekeep/internal/sanitize"
	"github.com/emberfall/lorekeep/internal/visibility"
)

// PlayerDocument is a complete player-safe view of one campaign.
type PlayerDocument struct {
	CampaignID  string        `json:"campaignId"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Sections    []TypeSection `json:"sections"`
}

// TypeSection groups the exported entities of one type, in sidebar order.
type TypeSection struct {
	TypeKey    string           `json:"typeKey"`
	TypeName   string           `json:"typeName"`
	NamePlural string           `json:"namePlural"`
	Entities   []ExportedEntity `json:"entities"`
}

// ExportedEntity is the player-safe projection of one entity. Fields holds
// only the values that pass the visibility cascade; Relationships only edges
// whose target is itself exported.
type ExportedEntity struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Summary       string             `json:"summary,omitempty"`
	Description   string             `json:"description,omitempty"`
	ImageURL      string             `json:"imageUrl,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	Fields        []ExportedField    `json:"fields,omitempty"`
	Relationships []ExportedRelation `json:"relationships,omitempty"`
}

// ExportedField is one visible field value with its display label.
type ExportedField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

// ExportedRelation is one relationship edge between two exported entities.
type ExportedRelation struct {
	Relationship string `json:"relationship"`
	TargetID     string `json:"targetId"`
	TargetName   string `json:"targetName"`
}

// ExportService builds player-safe campaign documents.
type ExportService interface {
	PlayerExport(ctx context.Context, campaignID string) (*PlayerDocument, error)
}

// EntityLister is the slice of the entity service the exporter consumes.
type EntityLister interface {
	List(ctx context.Context, campaignID, typeKey string, playerOnly bool, opts entities.ListOptions) ([]entities.Entity, int, error)
}

// SettingsReader is the slice of the settings service the exporter consumes.
type SettingsReader interface {
	VisibilityConfig(ctx context.Context, campaignID string) visibility.Config
	TypeCustomization(ctx context.Context, campaignID string) settings.TypeCustomization
}

// exportService implements ExportService.
type exportService struct {
	entities EntityLister
	settings SettingsReader
}

// NewExportService creates a new export service with the given dependencies.
func NewExportService(entitySvc EntityLister, settingsSvc SettingsReader) ExportService {
	return &exportService{entities: entitySvc, settings: settingsSvc}
}

// exportPageSize is the repository page size used while collecting entities.
const exportPageSize = 100

// PlayerExport assembles the player-safe document for a campaign.
//
// An entity is included when its type's category is not hidden and the
// entity is flagged playerVisible (a category pinned visible includes the
// whole type regardless of per-entity flags). Included entities then go
// through the field cascade; GM notes and hidden-section fields fall out
// unless explicitly overridden.
func (s *exportService) PlayerExport(ctx context.Context, campaignID string) (*PlayerDocument, error) {
	cfg := s.settings.VisibilityConfig(ctx, campaignID)
	tc := s.settings.TypeCustomization(ctx, campaignID)
	types := catalog.OrderedTypes(tc.Order, tc.CustomTypes, tc.Overrides)

	all, err := s.collectAll(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	// First pass decides membership so relationship edges can be filtered
	// against the final set.
	included := make(map[string]*entities.Entity)
	byType := make(map[string][]*entities.Entity)
	for i := range all {
		e := &all[i]
		if !s.entityIncluded(e, &cfg) {
			continue
		}
		included[e.ID] = e
		byType[e.Type] = append(byType[e.Type], e)
	}

	doc := &PlayerDocument{
		CampaignID:  campaignID,
		GeneratedAt: time.Now().UTC(),
		Sections:    []TypeSection{},
	}
	for _, def := range types {
		members := byType[def.Key]
		if len(members) == 0 {
			continue
		}
		section := TypeSection{
			TypeKey:    def.Key,
			TypeName:   def.Name,
			NamePlural: def.NamePlural,
		}
		for _, e := range members {
			section.Entities = append(section.Entities, s.project(e, def, &cfg, included))
		}
		doc.Sections = append(doc.Sections, section)
	}

	slog.Info("player export generated",
		slog.String("campaign_id", campaignID),
		slog.Int("entities", len(included)),
	)
	return doc, nil
}

// collectAll pages through every entity in the campaign.
func (s *exportService) collectAll(ctx context.Context, campaignID string) ([]entities.Entity, error) {
	var all []entities.Entity
	opts := entities.ListOptions{Page: 1, PerPage: exportPageSize}
	for {
		page, total, err := s.entities.List(ctx, campaignID, "", false, opts)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			return all, nil
		}
		opts.Page++
	}
}

// entityIncluded applies category config and the per-entity flag.
func (s *exportService) entityIncluded(e *entities.Entity, cfg *visibility.Config) bool {
	if v, ok := visibility.CategoryOverride(e.Type, cfg); ok {
		return v
	}
	return e.PlayerVisible
}

// project builds the player-safe view of one entity.
func (s *exportService) project(e *entities.Entity, def catalog.EntityTypeDefinition, cfg *visibility.Config, included map[string]*entities.Entity) ExportedEntity {
	overrides := e.Metadata.PlayerExportFieldOverrides

	out := ExportedEntity{
		ID:   e.ID,
		Type: e.Type,
		Name: e.Name,
		Slug: e.Slug,
	}
	if visibility.IsFieldPlayerVisible(visibility.CoreSummary, nil, e.Type, overrides, cfg) {
		out.Summary = e.Summary
	}
	if visibility.IsFieldPlayerVisible(visibility.CoreDescription, nil, e.Type, overrides, cfg) {
		out.Description = sanitize.StripSecretsHTML(e.Description)
	}
	if visibility.IsFieldPlayerVisible(visibility.CoreImageURL, nil, e.Type, overrides, cfg) {
		out.ImageURL = e.ImageURL
	}
	if visibility.IsFieldPlayerVisible(visibility.CoreTags, nil, e.Type, overrides, cfg) {
		out.Tags = e.Tags
	}

	// GM notes go through the cascade like any field; only an explicit
	// override or config rule can surface them.
	if e.Notes != "" && visibility.IsFieldPlayerVisible("notes", nil, e.Type, overrides, cfg) {
		out.Fields = append(out.Fields, ExportedField{
			Key: "notes", Label: "Notes", Value: sanitize.StripSecretsHTML(e.Notes),
		})
	}

	for _, fd := range def.Fields {
		val, ok := e.Fields[fd.Key]
		if !ok || val == nil || val == "" {
			continue
		}
		fd := fd
		if !visibility.IsFieldPlayerVisible(fd.Key, &fd, e.Type, overrides, cfg) {
			continue
		}
		out.Fields = append(out.Fields, ExportedField{Key: fd.Key, Label: fd.Label, Value: val})
	}

	if visibility.IsFieldPlayerVisible(visibility.CoreRelationships, nil, e.Type, overrides, cfg) {
		for _, l := range e.Links {
			target, ok := included[l.TargetID]
			if !ok {
				continue
			}
			out.Relationships = append(out.Relationships, ExportedRelation{
				Relationship: l.Relationship,
				TargetID:     target.ID,
				TargetName:   target.Name,
			})
		}
	}
	return out
}
