// Package scribe is the AI orchestration layer: it turns raw AI chat output
// into reviewable entity candidates, saves approved candidates through the
// entity service, generates summaries via the configured LLM, builds
// relationship-context digests for prompts, and detects entity mentions in
// free text.
package scribe

import (
	"github.com/emberfall/lorekeep/internal/parser"
	"github.com/emberfall/lorekeep/internal/plugins/entities"
	"github.com/emberfall/lorekeep/internal/relctx"
)

// ParseRequest carries one block of AI output to parse.
type ParseRequest struct {
	Text          string   `json:"text"`
	PreferredType string   `json:"preferredType,omitempty"`
	MinConfidence float64  `json:"minConfidence,omitempty"`
	ExcludeTypes  []string `json:"excludeTypes,omitempty"`
}

// ParseResponse is the parse result, with an optional debug block when the
// campaign's debug setting is on.
type ParseResponse struct {
	parser.ParseResult
	Debug *ParseDebug `json:"debug,omitempty"`
}

// ParseDebug exposes the effective parse inputs for troubleshooting.
type ParseDebug struct {
	MinConfidence float64  `json:"minConfidence"`
	PreferredType string   `json:"preferredType,omitempty"`
	ExcludeTypes  []string `json:"excludeTypes,omitempty"`
	CustomTypes   []string `json:"customTypes,omitempty"`
}

// SaveRequest carries one reviewed candidate to persist. Notes and
// PlayerVisible are GM decisions made at review time, not parser output.
type SaveRequest struct {
	Entity        parser.ParsedEntity `json:"entity"`
	Notes         string              `json:"notes,omitempty"`
	PlayerVisible bool                `json:"playerVisible,omitempty"`
}

// SaveResponse is the scribe save envelope.
type SaveResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Entity  *entities.Entity `json:"entity,omitempty"`
}

// SummarizeRequest asks for a short summary of an entity or a free text.
// Exactly one of EntityID and Text should be set; EntityID wins.
type SummarizeRequest struct {
	EntityID  string `json:"entityId,omitempty"`
	Text      string `json:"text,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// MentionsRequest asks for entity mentions in free text.
type MentionsRequest struct {
	Text string `json:"text"`
}

// Mention is one detected entity name occurrence.
type Mention struct {
	EntityID string `json:"entityId"`
	Name     string `json:"name"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// ContextResponse bundles a relationship-context digest with its prompt
// rendering and display stats.
type ContextResponse struct {
	Context *relctx.Context `json:"context"`
	Prompt  string          `json:"prompt"`
	Stats   relctx.Stats    `json:"stats"`
}
