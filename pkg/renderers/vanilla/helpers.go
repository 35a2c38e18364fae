package vanilla

import "strings"

func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return "mp-" + strings.ReplaceAll(trimmed, ".", "-")
}

// sanitizeClassList drops tokens that collide with generated mp- ids.
func sanitizeClassList(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "mp-") {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

// componentHandlesChrome reports whether a component renders its own label.
func componentHandlesChrome(componentName string) bool {
	switch strings.TrimSpace(componentName) {
	case "group", "row", "collapsible", "array", "blocks", "tabs":
		return true
	default:
		return false
	}
}

// labelSupportsFor reports whether the label can target the control by id.
func labelSupportsFor(componentName string) bool {
	return !strings.HasPrefix(componentName, "map-point")
}

func joinPath(parts ...string) string {
	keep := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keep = append(keep, part)
		}
	}
	return strings.Join(keep, ".")
}

func isAbsoluteAsset(ref string) bool {
	return strings.HasPrefix(ref, "/") || strings.Contains(ref, "://")
}
