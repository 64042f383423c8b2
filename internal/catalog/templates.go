package catalog

// RelationshipStrength grades how significant a link is. Used for display
// and for optional inclusion in relationship-context digests.
type RelationshipStrength string

const (
	StrengthWeak     RelationshipStrength = "weak"
	StrengthModerate RelationshipStrength = "moderate"
	StrengthStrong   RelationshipStrength = "strong"
)

// RelationshipTemplate is a reusable named relationship pattern. Templates
// are purely declarative — the catalog below is the whole lifecycle.
type RelationshipTemplate struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Relationship  string               `json:"relationship"`
	Reverse       string               `json:"reverse,omitempty"`
	Bidirectional bool                 `json:"bidirectional"`
	Strength      RelationshipStrength `json:"strength,omitempty"`
	Category      string               `json:"category"`
	Description   string               `json:"description,omitempty"`
}

// relationshipTemplates is the built-in template catalog. Symmetric patterns
// omit Reverse and set Bidirectional.
var relationshipTemplates = []RelationshipTemplate{
	{ID: "ally", Name: "Ally", Relationship: "allied with", Bidirectional: true,
		Strength: StrengthModerate, Category: "social"},
	{ID: "enemy", Name: "Enemy", Relationship: "enemy of", Bidirectional: true,
		Strength: StrengthStrong, Category: "social"},
	{ID: "rival", Name: "Rival", Relationship: "rival of", Bidirectional: true,
		Strength: StrengthModerate, Category: "social"},
	{ID: "family", Name: "Family", Relationship: "related to", Bidirectional: true,
		Strength: StrengthStrong, Category: "social"},
	{ID: "parent", Name: "Parent", Relationship: "parent of", Reverse: "child of",
		Strength: StrengthStrong, Category: "social"},
	{ID: "mentor", Name: "Mentor", Relationship: "mentor of", Reverse: "student of",
		Strength: StrengthModerate, Category: "social"},
	{ID: "member", Name: "Member", Relationship: "member of", Reverse: "has member",
		Strength: StrengthModerate, Category: "organization",
		Description: "Membership in a faction, guild, or order."},
	{ID: "leader", Name: "Leader", Relationship: "leads", Reverse: "led by",
		Strength: StrengthStrong, Category: "organization"},
	{ID: "serves", Name: "Servant", Relationship: "serves", Reverse: "served by",
		Strength: StrengthModerate, Category: "organization"},
	{ID: "located", Name: "Located In", Relationship: "located in", Reverse: "contains",
		Strength: StrengthWeak, Category: "spatial"},
	{ID: "rules", Name: "Ruler", Relationship: "rules", Reverse: "ruled by",
		Strength: StrengthStrong, Category: "spatial"},
	{ID: "owns", Name: "Owner", Relationship: "owns", Reverse: "owned by",
		Strength: StrengthModerate, Category: "possession"},
	{ID: "created", Name: "Creator", Relationship: "created", Reverse: "created by",
		Strength: StrengthWeak, Category: "possession"},
	{ID: "worships", Name: "Worshiper", Relationship: "worships", Reverse: "worshiped by",
		Strength: StrengthModerate, Category: "religious"},
	{ID: "knows", Name: "Acquaintance", Relationship: "knows", Bidirectional: true,
		Strength: StrengthWeak, Category: "social"},
}

// RelationshipTemplates returns the built-in template catalog as a copy.
func RelationshipTemplates() []RelationshipTemplate {
	out := make([]RelationshipTemplate, len(relationshipTemplates))
	copy(out, relationshipTemplates)
	return out
}

// FindRelationshipTemplate returns the template with the given ID, or false.
func FindRelationshipTemplate(id string) (RelationshipTemplate, bool) {
	for _, t := range relationshipTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return RelationshipTemplate{}, false
}
