package parser

import (
	"regexp"
	"strings"
)

// defaultSummaryLength caps generated summaries when the caller does not.
const defaultSummaryLength = 150

// section is a slice of the source text with its byte offsets preserved so
// parse results can point back into the original.
type section struct {
	text  string
	start int
	end   int
}

func (s section) trimmedText() string {
	return strings.TrimSpace(s.text)
}

var sectionHeaderRe = regexp.MustCompile(`^#{1,2}\s`)

// isHorizontalRule reports whether a line is a markdown rule (---, ***, ===).
func isHorizontalRule(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return false
	}
	c := t[0]
	if c != '-' && c != '*' && c != '=' {
		return false
	}
	for i := 1; i < len(t); i++ {
		if t[i] != c {
			return false
		}
	}
	return true
}

// splitSections divides text into sections at horizontal rules and right
// before level-1/level-2 headers, keeping byte offsets. Whitespace-only
// sections are dropped.
func splitSections(text string) []section {
	var out []section
	start := -1 // -1 = no open section
	offset := 0

	flush := func(end int) {
		if start < 0 {
			return
		}
		raw := text[start:end]
		if strings.TrimSpace(raw) != "" {
			out = append(out, section{text: raw, start: start, end: end})
		}
		start = -1
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)

		switch {
		case isHorizontalRule(line):
			flush(lineStart)
		case sectionHeaderRe.MatchString(line) && start >= 0:
			flush(lineStart)
			start = lineStart
		default:
			if start < 0 {
				start = lineStart
			}
		}
	}
	flush(len(text))

	return out
}

// SplitIntoEntitySections splits text into per-entity chunks at horizontal
// rules and level-1/level-2 markdown headers. Sections are trimmed; empty
// ones are dropped.
func SplitIntoEntitySections(text string) []string {
	secs := splitSections(text)
	out := make([]string, 0, len(secs))
	for _, s := range secs {
		out = append(out, strings.TrimSpace(s.text))
	}
	return out
}

// GenerateSummary produces a short digest of text: the first full sentence
// when it fits within maxLength, otherwise a hard truncation ending in
// "...". maxLength <= 0 uses the default of 150.
func GenerateSummary(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = defaultSummaryLength
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	if i := strings.IndexAny(trimmed, ".!?"); i >= 0 && i+1 <= maxLength {
		return strings.TrimSpace(trimmed[:i+1])
	}

	if len(trimmed) > maxLength {
		return trimmed[:maxLength-3] + "..."
	}
	return trimmed
}

// tagLineRe matches an inline "Tags: a, b, c" line.
var tagLineRe = regexp.MustCompile(`(?im)^\s*(?:[-*]\s+)?\*{0,2}tags\*{0,2}\s*:\s*(\S.*)$`)

// tagHeaderRe matches a bare "Tags:" line introducing a bullet list.
var tagHeaderRe = regexp.MustCompile(`(?i)^\s*\*{0,2}tags\*{0,2}\s*:\s*$`)

var bulletRe = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)

// tagKeywords strongly imply an entity type: when no explicit tag line is
// present but one of these words appears, the type itself becomes a tag.
var tagKeywords = []string{"tavern", "dungeon", "castle", "temple", "guild", "faction", "deity"}

// ExtractTags collects tags from text: an explicit inline "Tags:" line
// first, else a "Tags:" bullet list, else a single type-derived tag when
// the text contains a strongly-typed keyword. Tags are lowercased and
// deduplicated.
func ExtractTags(text, typeKey string) []string {
	if m := tagLineRe.FindStringSubmatch(text); m != nil {
		return normalizeTags(splitList(m[1]))
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !tagHeaderRe.MatchString(line) {
			continue
		}
		var tags []string
		for j := i + 1; j < len(lines); j++ {
			m := bulletRe.FindStringSubmatch(lines[j])
			if m == nil {
				break
			}
			tags = append(tags, m[1])
		}
		if len(tags) > 0 {
			return normalizeTags(tags)
		}
		break
	}

	lower := strings.ToLower(text)
	for _, kw := range tagKeywords {
		if strings.Contains(lower, kw) && typeKey != "" {
			return []string{typeKey}
		}
	}
	return nil
}

// normalizeTags lowercases and deduplicates, preserving first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
