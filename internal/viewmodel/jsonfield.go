package viewmodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStringList decodes a JSON-encoded array string. Invalid input yields an empty list and a warning;
// empty input yields an empty list silently. Non-string elements are rendered with fmt.
func ParseStringList(field, s string) ([]string, *ParseWarning) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return []string{}, nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return []string{}, &ParseWarning{Field: field, Kind: WarningJSON, Raw: s}
	}
	return renderList(items), nil
}

func renderList(items []interface{}) []string {
	ret := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			ret = append(ret, t)
		case nil:
		case map[string]interface{}, []interface{}:
			ret = append(ret, rawString(t))
		default:
			ret = append(ret, fmt.Sprint(t))
		}
	}
	return ret
}

// ParseObject decodes a JSON-encoded object string on top of defaults. Keys present in s override the
// corresponding leaves, absent keys keep their default. Invalid input returns defaults untouched and a warning.
func ParseObject[T any](field, s string, defaults T) (T, *ParseWarning) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return defaults, nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return defaults, &ParseWarning{Field: field, Kind: WarningJSON, Raw: s}
	}

	merged := defaults
	if err := json.Unmarshal([]byte(trimmed), &merged); err != nil {
		return defaults, &ParseWarning{Field: field, Kind: WarningJSON, Raw: s}
	}
	return merged, nil
}

// stringList accepts a field either as a JSON-encoded string or already decoded.
func (w *warnings) stringList(field string, v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		list, warning := ParseStringList(field, t)
		w.add(field, warning)
		return list
	case []interface{}:
		return renderList(t)
	default:
		w.addf(field, WarningJSON, v)
		return []string{}
	}
}

// structured accepts a field either as a JSON-encoded object string or already decoded, merged on defaults.
func structured[T any](w *warnings, field string, v interface{}, defaults T) T {
	switch t := v.(type) {
	case nil:
		return defaults
	case string:
		value, warning := ParseObject(field, t, defaults)
		w.add(field, warning)
		return value
	case map[string]interface{}:
		content, err := json.Marshal(t)
		if err != nil {
			w.addf(field, WarningJSON, v)
			return defaults
		}
		value, warning := ParseObject(field, string(content), defaults)
		w.add(field, warning)
		return value
	default:
		w.addf(field, WarningJSON, v)
		return defaults
	}
}
