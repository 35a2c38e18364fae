package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/schema"
)

// ErrorMapping splits an error payload into field messages keyed by the
// dotted input paths of the rendered form and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises server error paths (dotted, JSON pointer,
// JSONPath or bracketed) onto the collection's input paths. Array and block
// indexes are kept. Unknown paths become form-level errors.
func MapErrorPayload(collection schema.Collection, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	fieldPaths := make(map[string]struct{})
	collectFieldPaths(collection.Fields, "", fieldPaths)

	for rawPath, messages := range payload {
		normalizedMessages := normalizeMessages(messages)
		if len(normalizedMessages) == 0 {
			continue
		}

		mapped, formLevel := mapErrorPath(rawPath, fieldPaths)
		if formLevel || mapped == "" {
			mapping.Form = append(mapping.Form, normalizedMessages...)
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], normalizedMessages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, fieldPaths map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	bestDepth := 0
	for _, variant := range [][]string{segments, dropWrapperSegments(segments)} {
		path, depth := longestMatchingPath(variant, fieldPaths)
		if depth > bestDepth {
			best, bestDepth = path, depth
		}
	}
	if best != "" {
		return best, false
	}
	return "", true
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	if len(segments) == 0 {
		return segments
	}

	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}

	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

// longestMatchingPath returns the longest prefix of segments whose
// non-numeric segments form a known field path, keeping the numeric ones.
// depth counts the matched field segments.
func longestMatchingPath(segments []string, fieldPaths map[string]struct{}) (string, int) {
	if len(segments) == 0 || len(fieldPaths) == 0 {
		return "", 0
	}

	for end := len(segments); end > 0; end-- {
		if isIndex(segments[end-1]) {
			continue
		}
		var named []string
		for _, segment := range segments[:end] {
			if !isIndex(segment) {
				named = append(named, segment)
			}
		}
		if _, ok := fieldPaths[strings.Join(named, ".")]; ok {
			return strings.Join(segments[:end], "."), len(named)
		}
	}
	return "", 0
}

func isIndex(segment string) bool {
	_, err := strconv.Atoi(segment)
	return err == nil
}

// collectFieldPaths records input paths without indexes. Block slugs are not
// part of input paths; named tabs are.
func collectFieldPaths(fields []schema.Field, prefix string, dest map[string]struct{}) {
	for _, field := range fields {
		path := joinPath(prefix, strings.TrimSpace(field.Name))
		if path != prefix {
			dest[path] = struct{}{}
		}
		collectFieldPaths(field.Fields, path, dest)
		for _, block := range field.Blocks {
			collectFieldPaths(block.Fields, path, dest)
		}
		for _, tab := range field.Tabs {
			collectFieldPaths(tab.Fields, joinPath(path, strings.TrimSpace(tab.Name)), dest)
		}
	}
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
