// Package parser turns free-form AI chat output into structured entity
// records. It detects which entity type a block of text most likely
// describes, extracts a display name and field values keyed by the type's
// field definitions, splits multi-entity responses into sections, and
// validates the result against the catalog.
//
// Everything in this package is a pure function over its inputs. Parsing
// never fails hard: malformed input degrades to empty results plus
// human-readable error strings.
package parser

import (
	"regexp"
	"strings"

	"github.com/emberfall/lorekeep/internal/catalog"
)

// Detection is the result of entity-type detection. Type is empty when no
// type could be determined; Confidence is always in [0, 1].
type Detection struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`

	// fieldMatches is the number of distinct field-pattern hits for the
	// winning type. Used only for tie-breaking.
	fieldMatches int
}

// DetectOptions tunes entity-type detection.
type DetectOptions struct {
	// ExcludeTypes removes candidates from consideration entirely.
	ExcludeTypes []string

	// MinConfidence discards detections scoring below it.
	MinConfidence float64

	// PreferredType is forced when detection is weak (below the keep
	// threshold) or absent.
	PreferredType string

	// CustomTypes adds campaign-defined types to the candidate pool.
	CustomTypes []catalog.EntityTypeDefinition
}

// Scoring weights. These are tuned against fixture text, not derived from
// principle: changing any of them shifts which fixtures classify correctly,
// so treat the set as a contract.
const (
	// markerConfidence is awarded when the text names its own type with an
	// explicit [Type] bracket or "Entity Type:" line.
	markerConfidence = 0.7

	// weightSpecificField scores a hit on a type-specific field header
	// (e.g. "**Personality**:"), which is strong evidence.
	weightSpecificField = 0.2

	// weightGenericField scores a hit on the generic "Type:" header, which
	// several built-in types share and so proves little on its own.
	weightGenericField = 0.1

	// weightKeyword scores each hand-authored keyword found in the text.
	weightKeyword = 0.1

	// weightTypeLiteral scores the literal "<type>:" string appearing
	// anywhere in the text.
	weightTypeLiteral = 0.1

	// keepThreshold is the confidence at or above which a detected type is
	// kept even when the caller prefers a different one.
	keepThreshold = 0.4

	// forcedConfidence is the floor assigned when a preferred type is
	// forced over a weak or absent detection.
	forcedConfidence = 0.3

	// fallbackConfidence is assigned when a section defaults to npc with
	// no evidence at all.
	fallbackConfidence = 0.2
)

// densityBonus rewards clusters of field matches: one hit could be
// coincidence, three or four almost never are.
func densityBonus(matches int) float64 {
	switch {
	case matches >= 4:
		return 0.4
	case matches >= 3:
		return 0.3
	case matches >= 1:
		return 0.1
	}
	return 0
}

// typeKeywords are hand-authored per-type keyword lists. Lowercase only.
var typeKeywords = map[string][]string{
	catalog.TypeNPC:      {"merchant", "guard", "captain", "wizard", "priest", "noble", "innkeeper", "soldier", "blacksmith"},
	catalog.TypeLocation: {"city", "town", "village", "tavern", "dungeon", "castle", "temple", "forest", "harbor", "district"},
	catalog.TypeFaction:  {"guild", "cult", "order", "syndicate", "clan", "brotherhood", "council"},
	catalog.TypeItem:     {"sword", "weapon", "armor", "potion", "scroll", "artifact", "enchanted", "relic"},
	catalog.TypeCreature: {"beast", "monster", "dragon", "undead", "lair", "predator", "hunts"},
	catalog.TypeScene:    {"encounter", "ambush", "confrontation", "negotiation", "combat"},
	catalog.TypeSession:  {"recap", "agenda", "last session", "next session"},
	catalog.TypeDeity:    {"god", "goddess", "divine", "worship", "shrine", "pantheon"},
}

// bracketMarkerRe matches a leading "[Type]" marker.
var bracketMarkerRe = regexp.MustCompile(`^\s*\[([^\]\n]+)\]`)

// entityTypeLineRe matches an "Entity Type: X" line anywhere in the text.
var entityTypeLineRe = regexp.MustCompile(`(?im)^\s*\*{0,2}entity type\*{0,2}\s*:\s*(.+)$`)

// DetectEntityType determines which entity type the text most likely
// describes, with a confidence in [0, 1]. Empty or whitespace-only text
// yields no type at confidence 0.
//
// Explicit markers ([Type] brackets, "Entity Type:" lines) win outright.
// Otherwise every candidate type is scored on field-header matches, keyword
// hits, and a literal "<type>:" mention; the highest score wins, with ties
// broken in favor of the candidate with more field matches.
func DetectEntityType(text string, opts DetectOptions) Detection {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Detection{}
	}

	excluded := make(map[string]bool, len(opts.ExcludeTypes))
	for _, t := range opts.ExcludeTypes {
		excluded[t] = true
	}

	if marker, ok := explicitTypeMarker(trimmed, opts.CustomTypes); ok && !excluded[marker] {
		return applyDetectThresholds(Detection{Type: marker, Confidence: markerConfidence}, opts)
	}

	lower := strings.ToLower(trimmed)

	var best Detection
	var haveBest bool
	for _, def := range candidateTypes(opts.CustomTypes) {
		if excluded[def.Key] {
			continue
		}
		score, matches := scoreType(lower, def)
		if score <= 0 {
			continue
		}
		d := Detection{Type: def.Key, Confidence: score, fieldMatches: matches}
		if !haveBest || d.Confidence > best.Confidence ||
			(d.Confidence == best.Confidence && d.fieldMatches > best.fieldMatches) {
			best = d
			haveBest = true
		}
	}

	return applyDetectThresholds(best, opts)
}

// applyDetectThresholds applies the minConfidence and preferredType rules to
// a raw detection.
func applyDetectThresholds(d Detection, opts DetectOptions) Detection {
	if opts.MinConfidence > 0 && d.Confidence < opts.MinConfidence {
		d = Detection{}
	}

	if opts.PreferredType != "" {
		switch {
		case d.Type == "":
			// Nothing detected: fall back to the preference.
			d = Detection{Type: opts.PreferredType, Confidence: forcedConfidence}
		case d.Confidence < keepThreshold:
			// Weak detection: the caller's preference wins.
			conf := d.Confidence
			if conf < forcedConfidence {
				conf = forcedConfidence
			}
			d = Detection{Type: opts.PreferredType, Confidence: conf}
		}
	}

	return d
}

// explicitTypeMarker looks for a self-declared type. The "character" alias
// maps to npc. Returns false when no marker names a known type.
func explicitTypeMarker(text string, customTypes []catalog.EntityTypeDefinition) (string, bool) {
	var raw string
	if m := bracketMarkerRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := entityTypeLineRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else {
		return "", false
	}

	key := normalizeTypeName(raw)
	if key == "" {
		return "", false
	}
	if catalog.IsBuiltinType(key) {
		return key, true
	}
	for _, ct := range customTypes {
		if ct.Key == key || strings.EqualFold(ct.Name, strings.TrimSpace(raw)) {
			return ct.Key, true
		}
	}
	return "", false
}

// normalizeTypeName lowercases a user-facing type word and applies aliases.
func normalizeTypeName(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch key {
	case "character", "person":
		return catalog.TypeNPC
	case "place":
		return catalog.TypeLocation
	case "organization", "organisation":
		return catalog.TypeFaction
	case "monster":
		return catalog.TypeCreature
	}
	return key
}

// candidateTypes returns the detection candidate pool: all built-ins plus
// the supplied custom types.
func candidateTypes(customTypes []catalog.EntityTypeDefinition) []catalog.EntityTypeDefinition {
	out := catalog.All(nil, nil)
	return append(out, customTypes...)
}

// scoreType scores one candidate type against lowercased text. Returns the
// capped score and the distinct field-pattern match count.
func scoreType(lower string, def catalog.EntityTypeDefinition) (float64, int) {
	score := 0.0
	matches := 0

	for _, f := range def.Fields {
		if !fieldPatternPresent(lower, f) {
			continue
		}
		matches++
		if isGenericFieldKey(f.Key) {
			score += weightGenericField
		} else {
			score += weightSpecificField
		}
	}
	score += densityBonus(matches)

	for _, kw := range typeKeywords[def.Key] {
		if strings.Contains(lower, kw) {
			score += weightKeyword
		}
	}

	if strings.Contains(lower, def.Key+":") {
		score += weightTypeLiteral
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, matches
}

// isGenericFieldKey reports whether a field key is too common across types
// to count as strong evidence.
func isGenericFieldKey(key string) bool {
	return key == "type" || key == "status" || key == "date"
}
