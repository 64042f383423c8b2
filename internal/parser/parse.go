package parser

import (
	"fmt"

	"github.com/emberfall/lorekeep/internal/catalog"
)

// defaultParseMinConfidence filters out entities the detector barely
// believes in when the caller does not set a floor.
const defaultParseMinConfidence = 0.2

// SourceRange is a half-open byte range [Start, End) into the original text.
type SourceRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParsedEntity is one entity candidate recovered from AI output. It has not
// been persisted; ValidationErrors flags problems a save would need
// resolved or acknowledged.
type ParsedEntity struct {
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Confidence       float64           `json:"confidence"`
	Description      string            `json:"description"`
	Summary          string            `json:"summary"`
	Fields           map[string]any    `json:"fields"`
	Tags             []string          `json:"tags,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	SourceRange      SourceRange       `json:"sourceRange"`
}

// ParseResult is the outcome of parsing one AI response. Errors holds
// per-section problems; a non-empty Errors with a non-empty Entities list
// means the parse partially succeeded.
type ParseResult struct {
	Entities    []ParsedEntity `json:"entities"`
	HasMultiple bool           `json:"hasMultiple"`
	RawText     string         `json:"rawText"`
	Errors      []string       `json:"errors,omitempty"`
}

// ParseOptions tunes ParseAIResponse.
type ParseOptions struct {
	// ExcludeTypes drops sections whose detected type is listed.
	ExcludeTypes []string

	// PreferredType is used for sections whose type cannot be detected.
	PreferredType string

	// MinConfidence filters out weak entities from the result. Zero means
	// the default of 0.2.
	MinConfidence float64

	// CustomTypes extends the type catalog for detection and extraction.
	CustomTypes []catalog.EntityTypeDefinition
}

// ParseAIResponse splits AI output into entity sections and parses each
// independently. Sections that fail produce an Errors entry instead of
// aborting the parse; malformed input degrades to an empty result.
func ParseAIResponse(text string, opts ParseOptions) ParseResult {
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = defaultParseMinConfidence
	}

	result := ParseResult{RawText: text}

	sections := splitSections(text)
	result.HasMultiple = len(sections) > 1

	for i, sec := range sections {
		entity, skip, err := parseSection(sec, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("section %d: %v", i+1, err))
			continue
		}
		if skip {
			continue
		}
		// Low-confidence entities are dropped without comment: the floor
		// exists to suppress noise, not to report it.
		if entity.Confidence < minConfidence {
			continue
		}
		result.Entities = append(result.Entities, entity)
	}

	return result
}

// parseSection parses one section into an entity. skip means the section
// was deliberately dropped (excluded type); err means it was malformed.
func parseSection(sec section, opts ParseOptions) (entity ParsedEntity, skip bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse failed: %v", r)
		}
	}()

	name := ExtractEntityName(sec.text)
	if name == "" {
		return ParsedEntity{}, false, fmt.Errorf("no entity name found")
	}

	// Detect without exclusions first so an excluded type drops the
	// section instead of being misfiled under the next-best type.
	trueType := DetectEntityType(sec.text, DetectOptions{CustomTypes: opts.CustomTypes})
	for _, excluded := range opts.ExcludeTypes {
		if trueType.Type == excluded {
			return ParsedEntity{}, true, nil
		}
	}

	detected := DetectEntityType(sec.text, DetectOptions{
		ExcludeTypes: opts.ExcludeTypes,
		CustomTypes:  opts.CustomTypes,
	})
	if detected.Type == "" {
		if opts.PreferredType != "" {
			detected = Detection{Type: opts.PreferredType, Confidence: forcedConfidence}
		} else {
			detected = Detection{Type: catalog.TypeNPC, Confidence: fallbackConfidence}
		}
	}

	fields := ExtractFields(sec.text, detected.Type, opts.CustomTypes)

	entity = ParsedEntity{
		Name:        name,
		Type:        detected.Type,
		Confidence:  detected.Confidence,
		Description: sec.trimmedText(),
		Summary:     GenerateSummary(sec.text, 0),
		Fields:      fields,
		Tags:        ExtractTags(sec.text, detected.Type),
		SourceRange: SourceRange{Start: sec.start, End: sec.end},
	}

	if def, ok := catalog.Definition(detected.Type, opts.CustomTypes, nil); ok {
		if errs := ValidateFields(fields, def.Fields); len(errs) > 0 {
			entity.ValidationErrors = errs
		}
	}

	return entity, false, nil
}
