package export

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/emberfall/lorekeep/internal/plugins/entities"
	"github.com/emberfall/lorekeep/internal/plugins/settings"
	"github.com/emberfall/lorekeep/internal/visibility"
)

// mockLister serves a fixed entity set, honoring pagination.
type mockLister struct {
	entities []entities.Entity
}

func (m *mockLister) List(_ context.Context, _, _ string, _ bool, opts entities.ListOptions) ([]entities.Entity, int, error) {
	start := opts.Offset()
	if start >= len(m.entities) {
		return nil, len(m.entities), nil
	}
	end := start + opts.PerPage
	if end > len(m.entities) {
		end = len(m.entities)
	}
	return m.entities[start:end], len(m.entities), nil
}

// mockSettings serves a fixed config with function-field overrides.
type mockSettings struct {
	visibilityFn func(ctx context.Context, campaignID string) visibility.Config
	typesFn      func(ctx context.Context, campaignID string) settings.TypeCustomization
}

func (m *mockSettings) VisibilityConfig(ctx context.Context, campaignID string) visibility.Config {
	if m.visibilityFn != nil {
		return m.visibilityFn(ctx, campaignID)
	}
	return visibility.Config{}
}

func (m *mockSettings) TypeCustomization(ctx context.Context, campaignID string) settings.TypeCustomization {
	if m.typesFn != nil {
		return m.typesFn(ctx, campaignID)
	}
	return settings.TypeCustomization{}
}

func aldric() entities.Entity {
	return entities.Entity{
		ID: "ent-1", CampaignID: "camp-1", Type: "npc",
		Name: "Captain Aldric", Slug: "captain-aldric",
		Summary:       "Stern but fair guard captain.",
		Description:   `<p>Commands the city watch.</p><span data-secret="true">Secretly a vampire.</span>`,
		Notes:         "Plans to betray the council.",
		PlayerVisible: true,
		Tags:          []string{"guard"},
		Fields: map[string]any{
			"role":    "City Guard Captain",
			"status":  "alive",
			"secrets": "Owes the thieves guild.",
		},
		Links: []entities.Link{
			{TargetID: "ent-2", Relationship: "frequents"},
			{TargetID: "ent-3", Relationship: "reports to"},
		},
	}
}

func flagon() entities.Entity {
	return entities.Entity{
		ID: "ent-2", CampaignID: "camp-1", Type: "location",
		Name: "The Gilded Flagon", Slug: "the-gilded-flagon",
		PlayerVisible: true,
		Fields:        map[string]any{"type": "tavern"},
	}
}

func hiddenSpymaster() entities.Entity {
	return entities.Entity{
		ID: "ent-3", CampaignID: "camp-1", Type: "npc",
		Name: "The Spymaster", Slug: "the-spymaster",
		PlayerVisible: false,
	}
}

func exportDoc(t *testing.T, lister *mockLister, cfg *mockSettings) *PlayerDocument {
	t.Helper()
	svc := NewExportService(lister, cfg)
	doc, err := svc.PlayerExport(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("PlayerExport() error = %v", err)
	}
	return doc
}

func findEntity(doc *PlayerDocument, id string) *ExportedEntity {
	for i := range doc.Sections {
		for j := range doc.Sections[i].Entities {
			if doc.Sections[i].Entities[j].ID == id {
				return &doc.Sections[i].Entities[j]
			}
		}
	}
	return nil
}

func TestPlayerExport_IncludesOnlyPlayerVisible(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon(), hiddenSpymaster()}}
	doc := exportDoc(t, lister, &mockSettings{})

	if findEntity(doc, "ent-1") == nil || findEntity(doc, "ent-2") == nil {
		t.Fatal("player-visible entities missing from export")
	}
	if findEntity(doc, "ent-3") != nil {
		t.Fatal("GM-only entity leaked into export")
	}
}

func TestPlayerExport_FieldCascade(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon()}}
	doc := exportDoc(t, lister, &mockSettings{})

	e := findEntity(doc, "ent-1")
	if e == nil {
		t.Fatal("aldric missing")
	}

	keys := make(map[string]bool)
	for _, f := range e.Fields {
		keys[f.Key] = true
	}
	if !keys["role"] || !keys["status"] {
		t.Errorf("visible fields missing: %v", e.Fields)
	}
	if keys["secrets"] {
		t.Error("hidden-section field leaked")
	}
	if keys["notes"] {
		t.Error("GM notes leaked")
	}
}

func TestPlayerExport_StripsInlineSecrets(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon()}}
	doc := exportDoc(t, lister, &mockSettings{})

	e := findEntity(doc, "ent-1")
	if strings.Contains(e.Description, "vampire") {
		t.Errorf("inline secret leaked: %q", e.Description)
	}
	if !strings.Contains(e.Description, "Commands the city watch.") {
		t.Errorf("safe description lost: %q", e.Description)
	}
}

func TestPlayerExport_EntityOverrideSurfacesHiddenField(t *testing.T) {
	a := aldric()
	a.Metadata.PlayerExportFieldOverrides = map[string]bool{"secrets": true, "role": false}
	lister := &mockLister{entities: []entities.Entity{a, flagon()}}
	doc := exportDoc(t, lister, &mockSettings{})

	e := findEntity(doc, "ent-1")
	keys := make(map[string]bool)
	for _, f := range e.Fields {
		keys[f.Key] = true
	}
	if !keys["secrets"] {
		t.Error("explicit override did not surface the hidden field")
	}
	if keys["role"] {
		t.Error("explicit false override did not hide the field")
	}
}

func TestPlayerExport_CategoryHiddenDropsType(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon()}}
	cfg := &mockSettings{
		visibilityFn: func(context.Context, string) visibility.Config {
			return visibility.Config{CategoryVisibility: map[string]bool{"location": false}}
		},
	}
	doc := exportDoc(t, lister, cfg)

	if findEntity(doc, "ent-2") != nil {
		t.Fatal("category-hidden entity exported")
	}

	// Aldric's link to the dropped tavern must not dangle.
	e := findEntity(doc, "ent-1")
	for _, r := range e.Relationships {
		if r.TargetID == "ent-2" {
			t.Error("relationship points at an unexported entity")
		}
	}
}

func TestPlayerExport_CategoryVisibleIncludesGMEntities(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), hiddenSpymaster()}}
	cfg := &mockSettings{
		visibilityFn: func(context.Context, string) visibility.Config {
			return visibility.Config{CategoryVisibility: map[string]bool{"npc": true}}
		},
	}
	doc := exportDoc(t, lister, cfg)

	if findEntity(doc, "ent-3") == nil {
		t.Fatal("category pinned visible should include GM-only entities")
	}
}

func TestPlayerExport_RelationshipsOnlyBetweenExported(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon(), hiddenSpymaster()}}
	doc := exportDoc(t, lister, &mockSettings{})

	e := findEntity(doc, "ent-1")
	if len(e.Relationships) != 1 {
		t.Fatalf("Relationships = %v, want only the tavern edge", e.Relationships)
	}
	r := e.Relationships[0]
	if r.TargetID != "ent-2" || r.TargetName != "The Gilded Flagon" || r.Relationship != "frequents" {
		t.Errorf("Relationships[0] = %+v", r)
	}
}

func TestPlayerExport_SectionsFollowTypeOrder(t *testing.T) {
	lister := &mockLister{entities: []entities.Entity{aldric(), flagon()}}
	cfg := &mockSettings{
		typesFn: func(context.Context, string) settings.TypeCustomization {
			return settings.TypeCustomization{Order: []string{"location", "npc"}}
		},
	}
	doc := exportDoc(t, lister, cfg)

	if len(doc.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(doc.Sections))
	}
	if doc.Sections[0].TypeKey != "location" || doc.Sections[1].TypeKey != "npc" {
		t.Errorf("section order = %s, %s", doc.Sections[0].TypeKey, doc.Sections[1].TypeKey)
	}
}

func TestPlayerExport_Pagination(t *testing.T) {
	var many []entities.Entity
	for i := 0; i < exportPageSize+25; i++ {
		e := flagon()
		e.ID = fmt.Sprintf("loc-%03d", i)
		many = append(many, e)
	}
	lister := &mockLister{entities: many}
	doc := exportDoc(t, lister, &mockSettings{})

	total := 0
	for _, s := range doc.Sections {
		total += len(s.Entities)
	}
	if total != len(many) {
		t.Errorf("exported %d entities, want %d", total, len(many))
	}
}

func TestPlayerExport_EmptyCampaign(t *testing.T) {
	doc := exportDoc(t, &mockLister{}, &mockSettings{})
	if len(doc.Sections) != 0 {
		t.Errorf("Sections = %v, want none", doc.Sections)
	}
	if doc.CampaignID != "camp-1" {
		t.Errorf("CampaignID = %q", doc.CampaignID)
	}
}
