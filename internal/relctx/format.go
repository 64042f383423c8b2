package relctx

import (
	"fmt"
	"strings"
)

// FormatEntry renders one related entity to the fixed single-line template
// used inside prompts.
func FormatEntry(e RelatedEntity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Relationship: %s] %s (%s): %s", e.Relationship, e.EntityName, e.EntityType, e.Summary)
	if e.Strength != "" {
		fmt.Fprintf(&b, " [strength: %s]", e.Strength)
	}
	if e.Notes != "" {
		fmt.Fprintf(&b, " [notes: %s]", e.Notes)
	}
	return b.String()
}

// FormatForPrompt renders a whole context block: a header naming the source
// entity, one line per related entity, and a trailing note when the digest
// was truncated to fit its budgets.
func FormatForPrompt(c *Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Relationships for %s:\n", c.SourceEntityName)

	if len(c.RelatedEntities) == 0 {
		b.WriteString("No known relationships.\n")
		return b.String()
	}

	for _, e := range c.RelatedEntities {
		b.WriteString(FormatEntry(e))
		b.WriteByte('\n')
	}
	if c.Truncated {
		b.WriteString("(Additional relationships omitted to fit the context budget.)\n")
	}
	return b.String()
}

// Stats summarizes a built context for display and debugging. TokenEstimate
// is the usual rough chars/4 heuristic.
type Stats struct {
	EntityCount    int            `json:"entityCount"`
	CharacterCount int            `json:"characterCount"`
	TokenEstimate  int            `json:"tokenEstimate"`
	Truncated      bool           `json:"truncated"`
	ByRelationship map[string]int `json:"byRelationship"`
	ByEntityType   map[string]int `json:"byEntityType"`
}

// ContextStats derives display statistics from a built context. It never
// influences traversal or budgeting.
func ContextStats(c *Context) Stats {
	s := Stats{
		EntityCount:    len(c.RelatedEntities),
		CharacterCount: c.TotalCharacters,
		TokenEstimate:  c.TotalCharacters / 4,
		Truncated:      c.Truncated,
		ByRelationship: make(map[string]int),
		ByEntityType:   make(map[string]int),
	}
	for _, e := range c.RelatedEntities {
		s.ByRelationship[e.Relationship]++
		s.ByEntityType[e.EntityType]++
	}
	return s
}
