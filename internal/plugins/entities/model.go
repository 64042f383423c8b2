// Package entities manages campaign entities — the content objects of
// Lorekeep. Every object (NPCs, locations, factions, scenes, ...) is an
// entity of a catalog-defined type carrying schema-driven field values,
// tags, GM-only notes, and relationship links to other entities.
//
// This is a CORE plugin — always enabled, cannot be disabled.
package entities

import (
	"regexp"
	"strings"
	"time"
)

// --- Domain Models ---

// Entity is one campaign object. Description holds sanitized rich text;
// Notes is GM-only and never leaves the GM surface. Fields is the dynamic
// value map keyed by the type's field definitions.
type Entity struct {
	ID            string         `json:"id"`
	CampaignID    string         `json:"campaignId"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Description   string         `json:"description,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	PlayerVisible bool           `json:"playerVisible"`
	Tags          []string       `json:"tags,omitempty"`
	Fields        map[string]any `json:"fields"`
	Metadata      Metadata       `json:"metadata"`
	Links         []Link         `json:"links"`
	CreatedBy     string         `json:"createdBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Metadata is the free-form per-entity extension blob. The export field
// overrides are the top tier of the player-visibility cascade.
type Metadata struct {
	PlayerExportFieldOverrides map[string]bool `json:"playerExportFieldOverrides,omitempty"`
	AIGenerated                bool            `json:"aiGenerated,omitempty"`
	SourceConfidence           float64         `json:"sourceConfidence,omitempty"`
}

// Link is one outgoing relationship edge to another entity in the same
// campaign.
type Link struct {
	TargetID     string `json:"targetId"`
	Relationship string `json:"relationship"`
	Strength     string `json:"strength,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// --- Inputs ---

// CreateEntityInput carries the fields accepted when creating an entity.
type CreateEntityInput struct {
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Summary       string         `json:"summary"`
	Notes         string         `json:"notes"`
	ImageURL      string         `json:"imageUrl"`
	PlayerVisible bool           `json:"playerVisible"`
	Tags          []string       `json:"tags"`
	Fields        map[string]any `json:"fields"`
	Metadata      *Metadata      `json:"metadata"`
}

// UpdateEntityInput carries the fields accepted when updating an entity.
// Pointer members mean "leave unchanged when nil".
type UpdateEntityInput struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Summary       *string         `json:"summary"`
	Notes         *string         `json:"notes"`
	ImageURL      *string         `json:"imageUrl"`
	PlayerVisible *bool           `json:"playerVisible"`
	Tags          []string        `json:"tags"`
	Fields        map[string]any  `json:"fields"`
	Overrides     map[string]bool `json:"playerExportFieldOverrides"`
}

// LinkInput carries one relationship edge for the link endpoints.
type LinkInput struct {
	TargetID     string `json:"targetId"`
	Relationship string `json:"relationship"`
	Strength     string `json:"strength"`
	Notes        string `json:"notes"`
}

// --- Listing ---

// ListOptions controls pagination for entity listings.
type ListOptions struct {
	Page    int
	PerPage int
}

// DefaultListOptions returns the standard page size.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PerPage: 24}
}

// Offset returns the SQL offset for the current page.
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * o.PerPage
}

// --- Scene status ---

// Scene workflow statuses.
const (
	SceneStatusPlanned   = "planned"
	SceneStatusActive    = "active"
	SceneStatusCompleted = "completed"
)

// sceneTransitions lists the allowed forward moves of the scene workflow.
var sceneTransitions = map[string][]string{
	SceneStatusPlanned:   {SceneStatusActive},
	SceneStatusActive:    {SceneStatusCompleted},
	SceneStatusCompleted: {},
}

// SceneTransitionAllowed reports whether a scene may move from one status
// to another.
func SceneTransitionAllowed(from, to string) bool {
	for _, next := range sceneTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// --- Helpers ---

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashes       = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a display name into a URL-safe slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidChars.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "entity"
	}
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}
