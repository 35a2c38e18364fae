package render

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-mappoint/pkg/point"
	"github.com/goliatone/go-mappoint/pkg/schema"
)

// BlockTypeKey names the block slug inside a submitted blocks item.
const BlockTypeKey = "blockType"

// Messages reported by DecodeSubmission.
const (
	MessageRequired     = "This field is required."
	MessageInvalidPoint = "Enter a point as [lng, lat]."
)

// HiddenField is a hidden input emitted alongside the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying a CSRF token.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored; later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}

// DecodeSubmission rebuilds a document from submitted form values using the
// collection schema. Point inputs carry JSON ([lng, lat] or null). Field
// errors are keyed by dotted path; a nil map means the submission is valid.
func DecodeSubmission(collection schema.Collection, values url.Values) (map[string]any, map[string][]string) {
	d := decoder{values: values, errors: make(map[string][]string)}
	doc := make(map[string]any)
	d.fields("", collection.Fields, doc)
	if len(d.errors) == 0 {
		return doc, nil
	}
	return doc, d.errors
}

type decoder struct {
	values url.Values
	errors map[string][]string
}

func (d *decoder) fields(prefix string, fields []schema.Field, container map[string]any) {
	for _, field := range fields {
		d.field(prefix, field, container)
	}
}

func (d *decoder) field(prefix string, field schema.Field, container map[string]any) {
	name := strings.TrimSpace(field.Name)
	path := joinPath(prefix, name)

	switch {
	case field.IsPoint():
		if name == "" {
			return
		}
		raw := d.values.Get(path)
		pt, err := point.ParseString(raw)
		switch {
		case err != nil:
			d.fail(path, MessageInvalidPoint)
			container[name] = nil
		case pt == nil:
			if field.Required {
				d.fail(path, MessageRequired)
			}
			container[name] = nil
		default:
			container[name] = []any{pt.Lng(), pt.Lat()}
		}
	case field.Type == schema.KindArray:
		items := make([]any, 0)
		for _, idx := range d.indexes(path) {
			item := make(map[string]any)
			d.fields(joinPath(path, strconv.Itoa(idx)), field.Fields, item)
			items = append(items, item)
		}
		container[name] = items
	case len(field.Blocks) > 0:
		items := make([]any, 0)
		for _, idx := range d.indexes(path) {
			scope := joinPath(path, strconv.Itoa(idx))
			slug := d.values.Get(joinPath(scope, BlockTypeKey))
			block, ok := findBlock(field.Blocks, slug)
			if !ok {
				continue
			}
			item := map[string]any{BlockTypeKey: block.Slug}
			d.fields(scope, block.Fields, item)
			items = append(items, item)
		}
		container[name] = items
	case len(field.Tabs) > 0:
		target := d.nested(name, container)
		for _, tab := range field.Tabs {
			tabName := strings.TrimSpace(tab.Name)
			if tabName == "" {
				d.fields(path, tab.Fields, target)
				continue
			}
			inner := make(map[string]any)
			d.fields(joinPath(path, tabName), tab.Fields, inner)
			target[tabName] = inner
		}
	case len(field.Fields) > 0:
		d.fields(path, field.Fields, d.nested(name, container))
	default:
		if name == "" {
			return
		}
		raw, ok := d.values[path]
		value := ""
		if ok && len(raw) > 0 {
			value = strings.TrimSpace(raw[0])
		}
		if value == "" && field.Required {
			d.fail(path, MessageRequired)
		}
		if ok {
			container[name] = value
		}
	}
}

// nested returns the object for a named container, or container itself for
// presentational ones.
func (d *decoder) nested(name string, container map[string]any) map[string]any {
	if name == "" {
		return container
	}
	inner := make(map[string]any)
	container[name] = inner
	return inner
}

// indexes lists the item indexes submitted under path, ascending.
func (d *decoder) indexes(path string) []int {
	prefix := path + "."
	seen := make(map[int]struct{})
	for key := range d.values {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, ".")
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 {
			continue
		}
		seen[idx] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (d *decoder) fail(path, message string) {
	d.errors[path] = append(d.errors[path], message)
}

func findBlock(blocks []schema.Block, slug string) (schema.Block, bool) {
	for _, block := range blocks {
		if block.Slug == slug {
			return block, true
		}
	}
	return schema.Block{}, false
}

func joinPath(prefix, name string) string {
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "." + name
	}
}
