package relctx

import (
	"context"
	"strings"
	"testing"

	"github.com/emberfall/lorekeep/internal/catalog"
)

type mockStore struct {
	getFn          func(ctx context.Context, id string) (*Entity, error)
	getLinkingToFn func(ctx context.Context, id string) ([]*Entity, error)
}

func (m *mockStore) Get(ctx context.Context, id string) (*Entity, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockStore) GetLinkingTo(ctx context.Context, id string) ([]*Entity, error) {
	if m.getLinkingToFn != nil {
		return m.getLinkingToFn(ctx, id)
	}
	return nil, nil
}

// graphStore backs the mock with an in-memory entity map, deriving reverse
// lookups by scanning every entity's links.
func graphStore(entities ...*Entity) *mockStore {
	byID := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	return &mockStore{
		getFn: func(_ context.Context, id string) (*Entity, error) {
			return byID[id], nil
		},
		getLinkingToFn: func(_ context.Context, id string) ([]*Entity, error) {
			var out []*Entity
			for _, e := range entities {
				for _, l := range e.Links {
					if l.TargetID == id {
						out = append(out, e)
						break
					}
				}
			}
			return out, nil
		},
	}
}

func TestBuild_SourceNotFound(t *testing.T) {
	b := NewBuilder(graphStore())
	_, err := b.Build(context.Background(), "ghost", Options{})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected error to name the missing id, got %q", err)
	}
}

func TestBuild_NoLinks(t *testing.T) {
	b := NewBuilder(graphStore(&Entity{ID: "a", Type: catalog.TypeNPC, Name: "Aldric"}))
	got, err := b.Build(context.Background(), "a", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.RelatedEntities) != 0 {
		t.Errorf("expected no related entities, got %d", len(got.RelatedEntities))
	}
	if got.Truncated {
		t.Error("empty result must not be truncated")
	}
	if got.SourceEntityName != "Aldric" {
		t.Errorf("expected source name, got %q", got.SourceEntityName)
	}
}

func TestBuild_Directions(t *testing.T) {
	// a --ally--> b ; c --enemy--> a
	a := &Entity{ID: "a", Type: catalog.TypeNPC, Name: "Aldric",
		Links: []Link{{TargetID: "b", Relationship: "ally"}}}
	bEnt := &Entity{ID: "b", Type: catalog.TypeNPC, Name: "Brann", Summary: "A smith."}
	c := &Entity{ID: "c", Type: catalog.TypeFaction, Name: "The Veil", Summary: "A cult.",
		Links: []Link{{TargetID: "a", Relationship: "enemy"}}}
	builder := NewBuilder(graphStore(a, bEnt, c))

	tests := []struct {
		direction string
		wantIDs   []string
	}{
		{DirectionOutgoing, []string{"b"}},
		{DirectionIncoming, []string{"c"}},
		{DirectionBoth, []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.direction, func(t *testing.T) {
			got, err := builder.Build(context.Background(), "a", Options{Direction: tt.direction})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.RelatedEntities) != len(tt.wantIDs) {
				t.Fatalf("expected %d entities, got %d", len(tt.wantIDs), len(got.RelatedEntities))
			}
			for i, id := range tt.wantIDs {
				if got.RelatedEntities[i].EntityID != id {
					t.Errorf("expected %q at %d, got %q", id, i, got.RelatedEntities[i].EntityID)
				}
			}
		})
	}
}

func TestBuild_CycleTerminates(t *testing.T) {
	a := &Entity{ID: "a", Type: catalog.TypeNPC, Name: "A",
		Links: []Link{{TargetID: "b", Relationship: "ally"}}}
	bEnt := &Entity{ID: "b", Type: catalog.TypeNPC, Name: "B",
		Links: []Link{{TargetID: "a", Relationship: "ally"}}}
	builder := NewBuilder(graphStore(a, bEnt))

	got, err := builder.Build(context.Background(), "a", Options{MaxDepth: 5, Direction: DirectionOutgoing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.RelatedEntities) != 1 || got.RelatedEntities[0].EntityID != "b" {
		t.Fatalf("expected just b, got %+v", got.RelatedEntities)
	}
}

func TestBuild_DepthLimit(t *testing.T) {
	a := &Entity{ID: "a", Name: "A", Type: catalog.TypeNPC,
		Links: []Link{{TargetID: "b", Relationship: "knows"}}}
	bEnt := &Entity{ID: "b", Name: "B", Type: catalog.TypeNPC,
		Links: []Link{{TargetID: "c", Relationship: "knows"}}}
	c := &Entity{ID: "c", Name: "C", Type: catalog.TypeNPC}
	builder := NewBuilder(graphStore(a, bEnt, c))

	t.Run("default depth 1", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "a", Options{Direction: DirectionOutgoing})
		if len(got.RelatedEntities) != 1 {
			t.Fatalf("expected 1 entity at depth 1, got %d", len(got.RelatedEntities))
		}
	})

	t.Run("depth 2 reaches second hop", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "a", Options{MaxDepth: 2, Direction: DirectionOutgoing})
		if len(got.RelatedEntities) != 2 {
			t.Fatalf("expected 2 entities at depth 2, got %d", len(got.RelatedEntities))
		}
		if got.RelatedEntities[1].Depth != 2 {
			t.Errorf("expected second entity at depth 2, got %d", got.RelatedEntities[1].Depth)
		}
	})
}

func TestBuild_Filters(t *testing.T) {
	a := &Entity{ID: "a", Name: "A", Type: catalog.TypeNPC, Links: []Link{
		{TargetID: "b", Relationship: "ally"},
		{TargetID: "c", Relationship: "enemy"},
	}}
	bEnt := &Entity{ID: "b", Name: "B", Type: catalog.TypeNPC}
	c := &Entity{ID: "c", Name: "C", Type: catalog.TypeFaction}
	builder := NewBuilder(graphStore(a, bEnt, c))

	t.Run("relationship allow-list", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "a", Options{
			Direction: DirectionOutgoing, RelationshipTypes: []string{"enemy"},
		})
		if len(got.RelatedEntities) != 1 || got.RelatedEntities[0].EntityID != "c" {
			t.Fatalf("expected only the enemy link, got %+v", got.RelatedEntities)
		}
	})

	t.Run("entity-type allow-list", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "a", Options{
			Direction: DirectionOutgoing, EntityTypes: []string{catalog.TypeFaction},
		})
		if len(got.RelatedEntities) != 1 || got.RelatedEntities[0].EntityType != catalog.TypeFaction {
			t.Fatalf("expected only faction entities, got %+v", got.RelatedEntities)
		}
	})

	t.Run("filters can empty the result", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "a", Options{
			Direction: DirectionOutgoing, RelationshipTypes: []string{"worships"},
		})
		if len(got.RelatedEntities) != 0 || got.Truncated {
			t.Fatalf("expected empty untruncated result, got %+v", got)
		}
	})
}

func TestBuild_EntityCountBudget(t *testing.T) {
	source := &Entity{ID: "src", Name: "Hub", Type: catalog.TypeLocation}
	all := []*Entity{source}
	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		source.Links = append(source.Links, Link{TargetID: id, Relationship: "contains"})
		all = append(all, &Entity{ID: id, Name: id, Type: catalog.TypeNPC, Summary: "Someone."})
	}
	builder := NewBuilder(graphStore(all...))

	got, err := builder.Build(context.Background(), "src", Options{
		Direction: DirectionOutgoing, MaxRelatedEntities: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.RelatedEntities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(got.RelatedEntities))
	}
	if !got.Truncated {
		t.Error("expected truncation flag when entities were cut")
	}
}

func TestBuild_CharacterBudget(t *testing.T) {
	long := strings.Repeat("very long summary text ", 20)
	source := &Entity{ID: "src", Name: "Hub", Type: catalog.TypeLocation, Links: []Link{
		{TargetID: "e1", Relationship: "contains"},
		{TargetID: "e2", Relationship: "contains"},
	}}
	e1 := &Entity{ID: "e1", Name: "One", Type: catalog.TypeNPC, Summary: long}
	e2 := &Entity{ID: "e2", Name: "Two", Type: catalog.TypeNPC, Summary: long}
	builder := NewBuilder(graphStore(source, e1, e2))

	t.Run("stops before exceeding budget", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "src", Options{
			Direction: DirectionOutgoing, MaxCharacters: 600,
		})
		if len(got.RelatedEntities) != 1 {
			t.Fatalf("expected 1 entity under budget, got %d", len(got.RelatedEntities))
		}
		if got.TotalCharacters > 600 {
			t.Errorf("budget exceeded: %d", got.TotalCharacters)
		}
		if !got.Truncated {
			t.Error("expected truncation flag")
		}
	})

	t.Run("first candidate kept even over budget", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "src", Options{
			Direction: DirectionOutgoing, MaxCharacters: 10,
		})
		if len(got.RelatedEntities) != 1 {
			t.Fatalf("expected the oversized first entity kept, got %d", len(got.RelatedEntities))
		}
		if !got.Truncated {
			t.Error("expected truncation flag")
		}
	})
}

func TestBuild_PrivacySafeSummary(t *testing.T) {
	source := &Entity{ID: "src", Name: "Hub", Type: catalog.TypeLocation,
		Links: []Link{{TargetID: "npc1", Relationship: "contains"}}}
	npc := &Entity{ID: "npc1", Name: "Vessa", Type: catalog.TypeNPC,
		Description: "A well-connected merchant.",
		Fields: map[string]any{
			"role":    "Merchant",
			"secrets": "Secretly a vampire",
			"notes":   "GM only: kill her in act two",
		}}
	builder := NewBuilder(graphStore(source, npc))

	got, err := builder.Build(context.Background(), "src", Options{Direction: DirectionOutgoing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary := got.RelatedEntities[0].Summary
	if strings.Contains(summary, "vampire") || strings.Contains(summary, "kill her") {
		t.Fatalf("hidden material leaked into summary: %q", summary)
	}
	if !strings.Contains(summary, "Merchant") {
		t.Errorf("expected visible field appended, got %q", summary)
	}
	if !strings.Contains(summary, "A well-connected merchant.") {
		t.Errorf("expected description fallback, got %q", summary)
	}
}

func TestBuild_StrengthAndNotesOptions(t *testing.T) {
	source := &Entity{ID: "src", Name: "A", Type: catalog.TypeNPC,
		Links: []Link{{TargetID: "b", Relationship: "ally", Strength: "strong", Notes: "old friends"}}}
	bEnt := &Entity{ID: "b", Name: "B", Type: catalog.TypeNPC, Summary: "An ally."}
	builder := NewBuilder(graphStore(source, bEnt))

	t.Run("excluded by default", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "src", Options{Direction: DirectionOutgoing})
		e := got.RelatedEntities[0]
		if e.Strength != "" || e.Notes != "" {
			t.Errorf("expected strength/notes excluded, got %+v", e)
		}
	})

	t.Run("included on request", func(t *testing.T) {
		got, _ := builder.Build(context.Background(), "src", Options{
			Direction: DirectionOutgoing, IncludeStrength: true, IncludeNotes: true,
		})
		e := got.RelatedEntities[0]
		if e.Strength != "strong" || e.Notes != "old friends" {
			t.Errorf("expected strength/notes carried, got %+v", e)
		}
	})
}

// --- Formatting Tests ---

func TestFormatEntry(t *testing.T) {
	got := FormatEntry(RelatedEntity{
		Relationship: "ally", EntityName: "Brann", EntityType: "npc", Summary: "A smith.",
	})
	want := "[Relationship: ally] Brann (npc): A smith."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatForPrompt(t *testing.T) {
	c := &Context{
		SourceEntityName: "Aldric",
		RelatedEntities: []RelatedEntity{
			{Relationship: "ally", EntityName: "Brann", EntityType: "npc", Summary: "A smith."},
			{Relationship: "enemy", EntityName: "The Veil", EntityType: "faction", Summary: "A cult."},
		},
		Truncated: true,
	}
	got := FormatForPrompt(c)

	if !strings.HasPrefix(got, "Relationships for Aldric:\n") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "[Relationship: ally] Brann (npc): A smith.") {
		t.Errorf("missing entry line: %q", got)
	}
	if !strings.Contains(got, "omitted") {
		t.Errorf("missing truncation note: %q", got)
	}

	empty := FormatForPrompt(&Context{SourceEntityName: "Aldric", RelatedEntities: []RelatedEntity{}})
	if !strings.Contains(empty, "No known relationships.") {
		t.Errorf("expected empty marker, got %q", empty)
	}
}

func TestContextStats(t *testing.T) {
	c := &Context{
		TotalCharacters: 400,
		Truncated:       true,
		RelatedEntities: []RelatedEntity{
			{Relationship: "ally", EntityType: "npc"},
			{Relationship: "ally", EntityType: "faction"},
			{Relationship: "enemy", EntityType: "npc"},
		},
	}
	s := ContextStats(c)
	if s.EntityCount != 3 || s.CharacterCount != 400 || s.TokenEstimate != 100 || !s.Truncated {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.ByRelationship["ally"] != 2 || s.ByRelationship["enemy"] != 1 {
		t.Errorf("unexpected relationship breakdown: %v", s.ByRelationship)
	}
	if s.ByEntityType["npc"] != 2 || s.ByEntityType["faction"] != 1 {
		t.Errorf("unexpected type breakdown: %v", s.ByEntityType)
	}
}
