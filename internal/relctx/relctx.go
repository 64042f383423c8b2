// Package relctx builds character-budget-bounded textual digests of an
// entity's relationship neighborhood, suitable for injection into an LLM
// prompt. The builder walks the relationship graph breadth-first with a
// visited set, so bidirectional links and cycles terminate safely.
package relctx

import (
	"context"
	"fmt"

	"github.com/emberfall/lorekeep/internal/catalog"
	"github.com/emberfall/lorekeep/internal/parser"
)

// Traversal directions.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionBoth     = "both"
)

// Defaults applied when an Options field is zero.
const (
	defaultMaxDepth      = 1
	defaultMaxEntities   = 20
	defaultMaxCharacters = 4000

	// summaryFieldLimit caps how many schema fields a privacy-safe summary
	// appends after the base text.
	summaryFieldLimit = 3
)

// Entity is the builder's view of a campaign entity. The entity store
// adapts its own records into this shape.
type Entity struct {
	ID          string
	Type        string
	Name        string
	Summary     string
	Description string
	Fields      map[string]any
	Links       []Link
}

// Link is one outgoing relationship edge.
type Link struct {
	TargetID     string
	Relationship string
	Strength     string
	Notes        string
}

// Store is the entity lookup collaborator. Get returns nil (no error) for
// unknown ids; GetLinkingTo resolves reverse edges: every entity holding a
// link that points at id.
type Store interface {
	Get(ctx context.Context, id string) (*Entity, error)
	GetLinkingTo(ctx context.Context, id string) ([]*Entity, error)
}

// Options tunes a context build. Zero values mean the documented defaults
// (depth 1, direction both, 20 entities, 4000 characters).
type Options struct {
	MaxDepth           int      `json:"maxDepth,omitempty"`
	Direction          string   `json:"direction,omitempty"`
	RelationshipTypes  []string `json:"relationshipTypes,omitempty"`
	EntityTypes        []string `json:"entityTypes,omitempty"`
	MaxRelatedEntities int      `json:"maxRelatedEntities,omitempty"`
	MaxCharacters      int      `json:"maxCharacters,omitempty"`
	IncludeStrength    bool     `json:"includeStrength,omitempty"`
	IncludeNotes       bool     `json:"includeNotes,omitempty"`
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.Direction == "" {
		o.Direction = DirectionBoth
	}
	if o.MaxRelatedEntities <= 0 {
		o.MaxRelatedEntities = defaultMaxEntities
	}
	if o.MaxCharacters <= 0 {
		o.MaxCharacters = defaultMaxCharacters
	}
	return o
}

// RelatedEntity is one accepted neighbor in the digest.
type RelatedEntity struct {
	Relationship string `json:"relationship"`
	EntityID     string `json:"entityId"`
	EntityType   string `json:"entityType"`
	EntityName   string `json:"entityName"`
	Summary      string `json:"summary"`
	Direction    string `json:"direction"`
	Depth        int    `json:"depth"`
	Strength     string `json:"strength,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Context is the built digest. TotalCharacters counts the rendered entry
// lines, which is also what the character budget measures.
type Context struct {
	SourceEntityID   string          `json:"sourceEntityId"`
	SourceEntityName string          `json:"sourceEntityName"`
	RelatedEntities  []RelatedEntity `json:"relatedEntities"`
	TotalCharacters  int             `json:"totalCharacters"`
	Truncated        bool            `json:"truncated"`
}

// Builder walks the relationship graph through a Store.
type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// candidate is a neighbor edge discovered during traversal, before budget
// checks.
type candidate struct {
	entity       *Entity
	relationship string
	direction    string
	depth        int
	strength     string
	notes        string
}

// Build assembles the relationship context for one entity. It fails only
// when the source entity does not exist or the store errors; budget
// overruns are reported through Truncated, never as errors.
func (b *Builder) Build(ctx context.Context, entityID string, opts Options) (*Context, error) {
	opts = opts.normalized()

	source, err := b.store.Get(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("entity %s not found", entityID)
	}

	result := &Context{
		SourceEntityID:   source.ID,
		SourceEntityName: source.Name,
		RelatedEntities:  []RelatedEntity{},
	}

	visited := map[string]bool{source.ID: true}
	frontier := []*Entity{source}

	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		var next []*Entity
		for _, node := range frontier {
			candidates, err := b.neighbors(ctx, node, depth, opts)
			if err != nil {
				return nil, err
			}
			for _, cand := range candidates {
				if visited[cand.entity.ID] {
					continue
				}
				if !matchesFilters(cand, opts) {
					continue
				}
				visited[cand.entity.ID] = true

				if len(result.RelatedEntities) >= opts.MaxRelatedEntities {
					result.Truncated = true
					return result, nil
				}

				entry := b.entry(cand, opts)
				cost := len(FormatEntry(entry))
				if result.TotalCharacters+cost > opts.MaxCharacters {
					// The first candidate is kept even when it alone blows
					// the budget, so the digest is never uselessly empty.
					if len(result.RelatedEntities) == 0 {
						result.RelatedEntities = append(result.RelatedEntities, entry)
						result.TotalCharacters += cost
					}
					result.Truncated = true
					return result, nil
				}

				result.RelatedEntities = append(result.RelatedEntities, entry)
				result.TotalCharacters += cost
				next = append(next, cand.entity)
			}
		}
		frontier = next
	}

	return result, nil
}

// neighbors collects the node's adjacent edges in the requested direction.
func (b *Builder) neighbors(ctx context.Context, node *Entity, depth int, opts Options) ([]candidate, error) {
	var out []candidate

	if opts.Direction == DirectionOutgoing || opts.Direction == DirectionBoth {
		for _, link := range node.Links {
			target, err := b.store.Get(ctx, link.TargetID)
			if err != nil {
				return nil, err
			}
			if target == nil {
				// Dangling link; skip rather than fail the whole build.
				continue
			}
			out = append(out, candidate{
				entity:       target,
				relationship: link.Relationship,
				direction:    DirectionOutgoing,
				depth:        depth,
				strength:     link.Strength,
				notes:        link.Notes,
			})
		}
	}

	if opts.Direction == DirectionIncoming || opts.Direction == DirectionBoth {
		linkers, err := b.store.GetLinkingTo(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		for _, linker := range linkers {
			for _, link := range linker.Links {
				if link.TargetID != node.ID {
					continue
				}
				out = append(out, candidate{
					entity:       linker,
					relationship: link.Relationship,
					direction:    DirectionIncoming,
					depth:        depth,
					strength:     link.Strength,
					notes:        link.Notes,
				})
			}
		}
	}

	return out, nil
}

// matchesFilters applies the relationship-type and entity-type allow-lists.
func matchesFilters(cand candidate, opts Options) bool {
	if len(opts.RelationshipTypes) > 0 && !contains(opts.RelationshipTypes, cand.relationship) {
		return false
	}
	if len(opts.EntityTypes) > 0 && !contains(opts.EntityTypes, cand.entity.Type) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// entry converts an accepted candidate into a digest entry.
func (b *Builder) entry(cand candidate, opts Options) RelatedEntity {
	out := RelatedEntity{
		Relationship: cand.relationship,
		EntityID:     cand.entity.ID,
		EntityType:   cand.entity.Type,
		EntityName:   cand.entity.Name,
		Summary:      safeSummary(cand.entity),
		Direction:    cand.direction,
		Depth:        cand.depth,
	}
	if opts.IncludeStrength {
		out.Strength = cand.strength
	}
	if opts.IncludeNotes {
		out.Notes = cand.notes
	}
	return out
}

// safeSummary renders a player-facing summary of an entity without leaking
// GM-only material: the notes field, any secrets field, and any field whose
// definition sits in the hidden section are never included. The base text
// is the entity's summary, falling back to a digest of its description; a
// few visible schema fields are appended for flavor.
func safeSummary(e *Entity) string {
	base := e.Summary
	if base == "" {
		base = parser.GenerateSummary(e.Description, 0)
	}

	def, ok := catalog.Definition(e.Type, nil, nil)
	if !ok {
		return base
	}

	appended := 0
	for _, f := range def.Fields {
		if appended >= summaryFieldLimit {
			break
		}
		if f.Key == "notes" || f.Key == "secrets" || f.Section == catalog.SectionHidden {
			continue
		}
		v, ok := e.Fields[f.Key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if base != "" {
			base += " "
		}
		base += fmt.Sprintf("%s: %s.", f.Label, s)
		appended++
	}

	return base
}
