package schema

import "strings"

// VisitFunc is invoked for every field reached by Walk. path is the dotted
// field path built from named ancestors.
type VisitFunc func(path string, field Field)

// Walk visits every field reachable through fields, blocks and tabs, depth
// first, each exactly once.
func Walk(fields []Field, fn VisitFunc) {
	walk("", fields, fn)
}

func walk(prefix string, fields []Field, fn VisitFunc) {
	for _, field := range fields {
		path := joinPath(prefix, field.Name)
		fn(path, field)
		walk(path, field.Fields, fn)
		for _, block := range field.Blocks {
			walk(joinPath(path, block.Slug), block.Fields, fn)
		}
		for _, tab := range field.Tabs {
			walk(joinPath(path, tab.Name), tab.Fields, fn)
		}
	}
}

// PointPaths lists the dotted paths of every point field under fields.
func PointPaths(fields []Field) []string {
	var out []string
	Walk(fields, func(path string, field Field) {
		if field.IsPoint() {
			out = append(out, path)
		}
	})
	return out
}

// FieldID identifies a field across the config as "<slug>.<field path>".
func FieldID(slug, path string) string {
	return joinPath(strings.TrimSpace(slug), path)
}

func joinPath(prefix, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "." + name
	}
}
