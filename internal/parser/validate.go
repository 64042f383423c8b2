package parser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/emberfall/lorekeep/internal/catalog"
)

// ValidateFields checks extracted values against their field definitions
// and returns a map of field key to human-readable problem. An empty map
// means the values are acceptable.
//
// Checked: required fields present and non-empty, select values inside the
// option list, number fields numeric, and URL-shaped fields parseable with
// an http(s) scheme.
func ValidateFields(fields map[string]any, defs []catalog.FieldDefinition) map[string]string {
	errs := make(map[string]string)

	for _, def := range defs {
		value, present := fields[def.Key]

		if def.Required && (!present || isEmptyValue(value)) {
			errs[def.Key] = fmt.Sprintf("%s is required", def.Label)
			continue
		}
		if !present || isEmptyValue(value) {
			continue
		}

		switch def.Kind {
		case catalog.KindSelect:
			if s, ok := value.(string); ok && !optionAllowed(s, def.Options) {
				errs[def.Key] = fmt.Sprintf("%s must be one of: %s", def.Label, strings.Join(def.Options, ", "))
			}
		case catalog.KindNumber:
			if !isNumeric(value) {
				errs[def.Key] = fmt.Sprintf("%s must be a number", def.Label)
			}
		}

		if isURLField(def) {
			if s, ok := value.(string); ok && !isWellFormedURL(s) {
				errs[def.Key] = fmt.Sprintf("%s must be a valid URL", def.Label)
			}
		}
	}

	return errs
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	}
	return false
}

func optionAllowed(value string, options []string) bool {
	if len(options) == 0 {
		return true
	}
	for _, opt := range options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}

func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64, float32, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return err == nil
	}
	return false
}

// isURLField treats explicit url kinds and url-suffixed keys as URLs.
func isURLField(def catalog.FieldDefinition) bool {
	if def.Kind == "url" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(def.Key), "url")
}

func isWellFormedURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
