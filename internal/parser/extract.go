package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/emberfall/lorekeep/internal/catalog"
)

// fieldSynonyms maps field keys to extra header spellings the extractor
// accepts beyond the field's own key and label.
var fieldSynonyms = map[string][]string{
	"role":             {"occupation", "profession", "job"},
	"race":             {"species", "ancestry"},
	"personality":      {"temperament", "demeanor"},
	"appearance":       {"looks", "physical description"},
	"motivation":       {"goals", "wants", "motivations"},
	"voice":            {"speech", "mannerisms"},
	"location":         {"found at", "whereabouts"},
	"population":       {"residents"},
	"region":           {"area", "territory"},
	"atmosphere":       {"mood", "ambiance"},
	"government":       {"ruled by", "leadership"},
	"pointsOfInterest": {"notable locations", "landmarks"},
	"resources":        {"assets"},
	"influence":        {"reach", "power"},
	"headquarters":     {"base", "base of operations", "hq"},
	"allies":           {"friends"},
	"enemies":          {"foes", "rivals"},
	"weaknesses":       {"weakness", "vulnerabilities"},
	"abilities":        {"powers"},
	"habitat":          {"environment"},
	"domains":          {"domain", "portfolio"},
	"symbol":           {"holy symbol"},
	"worshipers":       {"worshippers", "followers"},
	"tenets":           {"teachings", "commandments"},
	"objective":        {"goal", "objectives"},
	"readAloud":        {"read-aloud", "boxed text"},
	"agenda":           {"plan", "planned"},
	"recap":            {"summary", "previously"},
	"preparation":      {"prep", "gm prep"},
}

// headerRe matches the first markdown header line.
var headerRe = regexp.MustCompile(`(?m)^\s*#{1,6}\s+(.+)$`)

// leadingBoldRe matches a bold span at the start of the first line.
var leadingBoldRe = regexp.MustCompile(`^\s*\*\*([^*\n]+)\*\*`)

// nameLineRe matches an explicit "Name: X" label line.
var nameLineRe = regexp.MustCompile(`(?im)^\s*(?:[-*]\s+)?\*{0,2}name\*{0,2}\s*:\s*(.+)$`)

// namePrefixVocabulary is the small fixed set of type-name words stripped
// when a header reads like "NPC: Captain Aldric".
var namePrefixVocabulary = []string{
	"npc", "character", "location", "place", "faction", "organization",
	"item", "creature", "monster", "scene", "session", "deity", "god",
}

// ExtractEntityName pulls a display name out of a text block. Priority:
// first markdown header (minus a leading type-name prefix like "NPC:"),
// then a bold span opening the text, then a "Name:" label line. Returns ""
// when no name is found.
func ExtractEntityName(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	if m := headerRe.FindStringSubmatch(trimmed); m != nil {
		return cleanName(stripTypePrefix(m[1]))
	}
	if m := leadingBoldRe.FindStringSubmatch(trimmed); m != nil {
		if name := cleanName(stripTypePrefix(m[1])); name != "" && !looksLikeFieldHeader(trimmed) {
			return name
		}
	}
	if m := nameLineRe.FindStringSubmatch(trimmed); m != nil {
		return cleanName(m[1])
	}
	return ""
}

// stripTypePrefix removes a leading "TypeName:" prefix when the word before
// the colon is a known type-name word.
func stripTypePrefix(s string) string {
	before, after, ok := strings.Cut(s, ":")
	if !ok {
		return s
	}
	word := strings.ToLower(strings.TrimSpace(before))
	for _, v := range namePrefixVocabulary {
		if word == v {
			return after
		}
	}
	return s
}

// cleanName strips markdown decoration and brackets from a candidate name.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "#*_`")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return strings.Join(strings.Fields(s), " ")
}

// ExtractFields pulls field values out of text for the given entity type.
// Each field definition is matched against header pattern variants (label,
// key, and known synonyms); matched values are coerced by field kind.
// Unset fields with a declared default are backfilled. Unknown types yield
// an empty map.
func ExtractFields(text, typeKey string, customTypes []catalog.EntityTypeDefinition) map[string]any {
	out := make(map[string]any)
	def, ok := catalog.Definition(typeKey, customTypes, nil)
	if !ok {
		return out
	}

	lines := strings.Split(text, "\n")

	for _, f := range def.Fields {
		raw, found := findFieldValue(lines, fieldVariants(f))
		if !found {
			continue
		}
		out[f.Key] = coerceFieldValue(raw, f)
	}

	// Legacy heuristic fields kept for older AI output that predates the
	// formal definitions.
	switch typeKey {
	case catalog.TypeLocation:
		if _, ok := out["inhabitants"]; !ok {
			if raw, found := findFieldValue(lines, []string{"inhabitants", "residents", "who lives here"}); found {
				out["inhabitants"] = raw
			}
		}
	case catalog.TypeFaction:
		if _, ok := out["leadership"]; !ok {
			if raw, found := findFieldValue(lines, []string{"leadership", "leader", "led by"}); found {
				out["leadership"] = raw
			}
		}
	}

	if _, ok := out["tags"]; !ok {
		if raw, found := findFieldValue(lines, []string{"tags"}); found {
			if tags := splitList(raw); len(tags) > 0 {
				out["tags"] = tags
			}
		}
	}

	for _, f := range def.Fields {
		if _, ok := out[f.Key]; !ok && f.DefaultValue != nil {
			out[f.Key] = f.DefaultValue
		}
	}

	return out
}

// fieldVariants returns the lowercase header spellings accepted for a
// field: its label, its key, a space-separated form of a camelCase key, and
// any registered synonyms.
func fieldVariants(f catalog.FieldDefinition) []string {
	seen := make(map[string]bool, 4)
	var out []string
	add := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	add(f.Label)
	add(f.Key)
	add(splitCamelCase(f.Key))
	for _, syn := range fieldSynonyms[f.Key] {
		add(syn)
	}
	return out
}

// splitCamelCase turns "pointsOfInterest" into "points of interest".
func splitCamelCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fieldHeaderRe loosely matches any "Something:" line that opens a field.
var fieldHeaderRe = regexp.MustCompile(`^\s*(?:[-*]\s+)?(?:\*\*[^*\n]+\*\*|[A-Za-z][A-Za-z0-9 /()'_-]{0,40})\s*:`)

// looksLikeFieldHeader reports whether the first line of s reads as a
// "Label: value" field line.
func looksLikeFieldHeader(s string) bool {
	line, _, _ := strings.Cut(s, "\n")
	return fieldHeaderRe.MatchString(line)
}

// matchFieldLine checks one line against the variant list. On a match it
// returns the text after the colon.
func matchFieldLine(line string, variants []string) (string, bool) {
	norm := strings.TrimSpace(line)
	norm = strings.TrimPrefix(norm, "- ")
	norm = strings.TrimPrefix(norm, "* ")
	norm = strings.ReplaceAll(norm, "**", "")
	lower := strings.ToLower(norm)
	for _, v := range variants {
		if !strings.HasPrefix(lower, v) {
			continue
		}
		rest := norm[len(v):]
		trimmed := strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(trimmed, ":") {
			return strings.TrimSpace(trimmed[1:]), true
		}
	}
	return "", false
}

// findFieldValue scans lines for a field header matching one of variants
// and captures its value through any continuation lines, stopping at the
// next field header or blank line.
func findFieldValue(lines []string, variants []string) (string, bool) {
	for i, line := range lines {
		value, ok := matchFieldLine(line, variants)
		if !ok {
			continue
		}
		parts := []string{value}
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || fieldHeaderRe.MatchString(lines[j]) || strings.HasPrefix(next, "#") {
				break
			}
			parts = append(parts, next)
		}
		return strings.TrimSpace(strings.Join(parts, " ")), true
	}
	return "", false
}

// fieldPatternPresent reports whether any header variant of the field
// appears in the text. Shared with type detection.
func fieldPatternPresent(text string, f catalog.FieldDefinition) bool {
	variants := fieldVariants(f)
	for _, line := range strings.Split(text, "\n") {
		if _, ok := matchFieldLine(line, variants); ok {
			return true
		}
	}
	return false
}

// coerceFieldValue converts a raw captured string to the field kind's value
// shape. Unparseable values fall back to the raw string so validation can
// flag them instead of losing data.
func coerceFieldValue(raw string, f catalog.FieldDefinition) any {
	switch f.Kind {
	case catalog.KindNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n
		}
		return raw
	case "boolean", "checkbox":
		return raw == "true"
	case catalog.KindSelect:
		for _, opt := range f.Options {
			if strings.EqualFold(opt, raw) {
				return opt
			}
		}
		return raw
	case catalog.KindTags, catalog.KindMultiSelect:
		return splitList(raw)
	default:
		return raw
	}
}

// splitList splits a comma-separated value, trimming entries and dropping
// empties.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
